package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/pipeline"
)

var (
	fetchStart string
	fetchEnd   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download report PDFs for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseDateRange(fetchStart, fetchEnd)
		if err != nil {
			return err
		}

		runner := pipeline.NewRunner(cfg, pol)
		stats, err := runner.Fetch(cmd.Context(), start, end)
		if err != nil {
			return err
		}

		zap.L().Info("fetch complete",
			zap.Int64("downloaded", stats.Downloaded.Load()),
			zap.Int64("skipped", stats.Skipped.Load()),
			zap.Int64("missing", stats.Missing.Load()),
			zap.Int64("failed", stats.Failed.Load()),
		)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "start date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "end date (YYYY-MM-DD)")
	_ = fetchCmd.MarkFlagRequired("start")
	_ = fetchCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(fetchCmd)
}

// parseDateRange validates the --start/--end pair. A malformed date or an
// inverted range is a usage error, not something to silently clamp.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", startStr)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", endStr)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s is after --end %s", startStr, endStr)
	}
	return start, end, nil
}

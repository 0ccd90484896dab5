package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/pipeline"
)

var (
	runStart    string
	runEnd      string
	runFromStep int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline: fetch, process, analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFromStep < 1 || runFromStep > 3 {
			return fmt.Errorf("invalid --from-step %d: must be 1 (fetch), 2 (process), or 3 (analyze)", runFromStep)
		}

		runner := pipeline.NewRunner(cfg, pol)

		if runFromStep <= 1 {
			start, end, err := parseDateRange(runStart, runEnd)
			if err != nil {
				return err
			}
			stats, err := runner.Fetch(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			zap.L().Info("fetch step complete",
				zap.Int64("downloaded", stats.Downloaded.Load()),
				zap.Int64("skipped", stats.Skipped.Load()),
			)
		}

		if runFromStep <= 2 {
			if err := cfg.Validate("geocode"); err != nil {
				return err
			}
			if err := cfg.Validate("classify"); err != nil {
				return err
			}
			if err := cfg.Validate("extract"); err != nil {
				return err
			}
			if _, err := runner.Process(cmd.Context()); err != nil {
				return err
			}
		}

		_, err := runner.Analyze(cmd.Context())
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start", "", "start date (YYYY-MM-DD), required unless --from-step > 1")
	runCmd.Flags().StringVar(&runEnd, "end", "", "end date (YYYY-MM-DD), required unless --from-step > 1")
	runCmd.Flags().IntVar(&runFromStep, "from-step", 1, "resume from step: 1=fetch, 2=process, 3=analyze")
	rootCmd.AddCommand(runCmd)
}

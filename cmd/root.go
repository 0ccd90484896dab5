package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/config"
	"github.com/safestreets/report-cli/internal/policy"
)

var (
	cfg *config.Config
	pol policy.Policy
)

var rootCmd = &cobra.Command{
	Use:   "report-cli",
	Short: "Police report log processing pipeline",
	Long:  "Downloads daily police report PDFs, extracts incident records, enriches them with geocoding and offense categories, and produces street safety analytics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		p, err := policy.Load(cfg.Policy.File)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
		pol = p

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

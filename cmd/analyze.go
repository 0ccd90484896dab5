package main

import (
	"github.com/spf13/cobra"

	"github.com/safestreets/report-cli/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate canonical incidents into safety analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := pipeline.NewRunner(cfg, pol)
		_, err := runner.Analyze(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

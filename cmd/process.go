package main

import (
	"github.com/spf13/cobra"

	"github.com/safestreets/report-cli/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Extract, enrich, deduplicate, and export incident records",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		if err := cfg.Validate("classify"); err != nil {
			return err
		}
		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		runner := pipeline.NewRunner(cfg, pol)
		_, err := runner.Process(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}

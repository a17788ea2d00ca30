package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civicdata/policy-atlas/internal/export"
	"github.com/civicdata/policy-atlas/internal/stats"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the results workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		policies, err := loadPolicies()
		if err != nil {
			return err
		}
		report := stats.BuildReport(policies)

		out := exportOut
		if out == "" {
			out = cfg.Output.Workbook
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}
		if err := export.Workbook(report, policies, out); err != nil {
			return err
		}
		fmt.Printf("Workbook written to %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "workbook path (default from config)")
	rootCmd.AddCommand(exportCmd)
}

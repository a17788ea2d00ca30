package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/civicdata/policy-atlas/internal/stats"
)

var statsOut string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the key-findings report without rendering figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		policies, err := loadPolicies()
		if err != nil {
			return err
		}

		report := stats.BuildReport(policies)
		text := report.KeyFindings()
		fmt.Print(text)

		out := statsOut
		if out == "" {
			if err := os.MkdirAll(cfg.Output.FiguresDir, 0o755); err != nil {
				return eris.Wrap(err, "create figures dir")
			}
			out = filepath.Join(cfg.Output.FiguresDir, "summary_narrative.txt")
		}
		return os.WriteFile(out, []byte(text), 0o644)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsOut, "out", "", "report path (default <figures>/summary_narrative.txt)")
	rootCmd.AddCommand(statsCmd)
}

package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/render"
	"github.com/civicdata/policy-atlas/internal/stats"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Render the table-image figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		policies, err := loadPolicies()
		if err != nil {
			return err
		}
		report := stats.BuildReport(policies)

		if err := os.MkdirAll(cfg.Output.FiguresDir, 0o755); err != nil {
			return eris.Wrap(err, "create figures dir")
		}

		outputs := map[string]func(string) error{
			"group_summary_table.png": func(p string) error {
				return render.GroupSummaryTable(report.Groups, p)
			},
			"benefit_comparison_table.png": func(p string) error {
				return render.BenefitComparisonTable(report.Comparisons, p)
			},
			"tier_gradient_table.png": func(p string) error {
				return render.TierGradientTable(report.Gradient, p)
			},
			"trend_table.png": func(p string) error {
				return render.TrendTable(report.Trends, p)
			},
			"state_detail_table.png": func(p string) error {
				return render.StateDetailTable(policies, p)
			},
			"fisher_contingency_table.png": func(p string) error {
				t := stats.BuildTable(policies, model.BenefitAnyHealth)
				return render.ContingencyTableImage(model.BenefitAnyHealth, t, p)
			},
		}
		for file, fn := range outputs {
			path := filepath.Join(cfg.Output.FiguresDir, file)
			if err := fn(path); err != nil {
				return eris.Wrapf(err, "render %s", file)
			}
			zap.L().Info("table rendered", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

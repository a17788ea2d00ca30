package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/render"
	"github.com/civicdata/policy-atlas/internal/stats"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Render the bar-chart figures",
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
			"benefit_comparison.png": func(p string) error {
				return render.BenefitComparisonChart(report.Comparisons, p)
			},
			"welfare_scores.png": func(p string) error {
				return render.WelfareScoreChart(report.Groups, p)
			},
			"tier_gradient.png": func(p string) error {
				return render.TierGradientChart(report.Gradient, p)
			},
		}
		addGapChart := func(file string, results []model.ElectoralResult, source string) {
			votes := dataset.JoinElectoral(results)
			outputs[file] = func(p string) error {
				return render.PolicyGapChart(dataset.VoteGapBySplit(policies, votes), source, p)
			}
		}
		if pres, year, err := dataset.LoadElectoralPanel(cfg.Data.Electoral, cfg.Analysis.Year); err != nil {
			zap.L().Warn("presidential panel unavailable, skipping gap chart", zap.Error(err))
		} else {
			addGapChart("policy_gap_presidential.png", pres, fmt.Sprintf("%d Presidential", year))
		}
		if house, year, err := dataset.LoadHouseElections(cfg.Data.HouseElections, cfg.Analysis.Year); err != nil {
			zap.L().Warn("house elections unavailable, skipping gap chart", zap.Error(err))
		} else {
			addGapChart("policy_gap_house.png", house, fmt.Sprintf("%d House", year))
		}

		for file, fn := range outputs {
			path := filepath.Join(cfg.Output.FiguresDir, file)
			if err := fn(path); err != nil {
				return eris.Wrapf(err, "render %s", file)
			}
			zap.L().Info("chart rendered", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}

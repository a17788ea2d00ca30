package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/render"
)

var mapsYear int

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Render the choropleth map figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		year := mapsYear
		if year == 0 {
			year = cfg.Analysis.Year
		}

		rows, _, usedYear, err := loadFrame(ctx, year)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Output.FiguresDir, 0o755); err != nil {
			return eris.Wrap(err, "create figures dir")
		}

		outputs := map[string]func(string) error{
			"policy_panels.png": func(p string) error {
				return render.PolicyPanels(rows, p)
			},
			"combined_panels.png": func(p string) error {
				return render.CombinedPanels(rows, usedYear, p)
			},
			"strictness_tiers.png": func(p string) error {
				return render.SaveMap(rows, render.TierFill(), "Voter-ID Strictness Tiers", "", p)
			},
			"voterid_highcontrast.png": func(p string) error {
				return render.HighContrastPanels(rows, analysis.StrictID(),
					render.RedVivid, render.BlueVivid, usedYear, true, "Voter ID Requirement", p)
			},
			"welfare_highcontrast.png": func(p string) error {
				return render.HighContrastPanels(rows, analysis.OffersBenefits(),
					render.BlueVivid, render.RedVivid, usedYear, false, "Benefits for Undocumented Immigrants", p)
			},
			"unauthorized_highcontrast.png": func(p string) error {
				return render.HighContrastPanels(rows, analysis.HighUnauthorized(rows),
					render.BlueVivid, render.RedVivid, usedYear, false, "Unauthorized Population Share", p)
			},
			"unauthorized_count_highcontrast.png": func(p string) error {
				return render.HighContrastPanels(rows, analysis.HighUnauthorizedCount(rows),
					render.BlueVivid, render.RedVivid, usedYear, false, "Unauthorized Population Count", p)
			},
			"policy_alignment.png": func(p string) error {
				al := analysis.Align(rows, analysis.StrictID(), analysis.OffersBenefits(), true)
				return render.SaveMatchMap(rows, al, "Policy Alignment", p)
			},
		}
		for file, fn := range outputs {
			path := filepath.Join(cfg.Output.FiguresDir, file)
			if err := fn(path); err != nil {
				return eris.Wrapf(err, "render %s", file)
			}
			zap.L().Info("map rendered", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	mapsCmd.Flags().IntVar(&mapsYear, "year", 0, "presidential election year (default from config)")
	rootCmd.AddCommand(mapsCmd)
}

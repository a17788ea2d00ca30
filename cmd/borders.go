package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/render"
)

var bordersYear int

// borderVariant pairs a border study with its figure name and title.
type borderVariant struct {
	name  string // manifest/artifact name
	label string
	file  string
	title string
	study analysis.BorderStudy
}

// borderVariants builds the welfare and voter-ID border studies. The
// welfare study prefers the curated pair file when one is present; the
// voter-ID pairs are always derived from adjacency.
func borderVariants(adjacency []model.CountyAdjacency, policies map[string]model.StatePolicy) []borderVariant {
	welfare := analysis.FindBorderPairs(adjacency, policies, analysis.WelfareBorderSplit())
	if links, err := dataset.LoadBorderLinks(cfg.Data.BorderLinks); err == nil && len(links) > 0 {
		zap.L().Info("using curated border pairs", zap.String("path", cfg.Data.BorderLinks), zap.Int("pairs", len(links)))
		welfare = analysis.StudyFromLinks(links)
	} else if err != nil {
		zap.L().Debug("curated border pairs unavailable, deriving from adjacency", zap.Error(err))
	}

	return []borderVariant{
		{
			name:  "border_welfare",
			label: "welfare",
			file:  "border_counties_welfare.png",
			title: "Counties Along Welfare-Benefit Borders",
			study: welfare,
		},
		{
			name:  "border_voterid",
			label: "voter ID",
			file:  "border_counties_voterid.png",
			title: "Counties Along Voter-ID Borders",
			study: analysis.FindBorderPairs(adjacency, policies, analysis.VoterIDBorderSplit()),
		},
	}
}

var bordersCmd = &cobra.Command{
	Use:   "borders",
	Short: "Analyze county pairs straddling welfare and voter-ID state lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		year := bordersYear
		if year == 0 {
			year = cfg.Analysis.Year
		}

		rows, policies, _, err := loadFrame(ctx, year)
		if err != nil {
			return err
		}

		adjacency, err := dataset.LoadAdjacency(cfg.Data.CountyAdjacency)
		if err != nil {
			return eris.Wrap(err, "load county adjacency")
		}
		votes, err := dataset.LoadCountyVotes(cfg.Data.CountyVotes)
		if err != nil {
			return eris.Wrap(err, "load county votes")
		}
		counties, err := newBoundarySource().Counties(ctx)
		if err != nil {
			return eris.Wrap(err, "load county boundaries")
		}

		voteYear := dataset.LatestCountyYear(votes, year)
		byFIPS := analysis.IndexCountyVotes(votes, voteYear)
		shapes := geodata.ProjectCounties(counties)

		if err := os.MkdirAll(cfg.Output.FiguresDir, 0o755); err != nil {
			return eris.Wrap(err, "create figures dir")
		}

		for _, v := range borderVariants(adjacency, dataset.IndexPolicies(policies)) {
			gap := analysis.VoteGap(v.study, byFIPS)
			fmt.Printf("Border pairs across %s lines: %d\n", v.label, len(v.study.Links))
			fmt.Printf("Pairs with %d vote data: %d\n", voteYear, gap.Pairs)
			fmt.Printf("  In-side mean Democratic share:  %.1f%%\n", gap.BenefitMean)
			fmt.Printf("  Out-side mean Democratic share: %.1f%%\n", gap.NonBenefitMean)
			fmt.Printf("  Gap: %+.1f points\n", gap.Gap)

			path := filepath.Join(cfg.Output.FiguresDir, v.file)
			if err := render.BorderCountyMap(rows, shapes, v.study, byFIPS, voteYear, v.title, path); err != nil {
				return eris.Wrapf(err, "render %s border map", v.label)
			}
			fmt.Printf("Map written to %s\n\n", path)
		}
		return nil
	},
}

func init() {
	bordersCmd.Flags().IntVar(&bordersYear, "year", 0, "presidential election year (default from config)")
	rootCmd.AddCommand(bordersCmd)
}

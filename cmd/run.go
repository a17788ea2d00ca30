package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/export"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/render"
	"github.com/civicdata/policy-atlas/internal/stats"
	"github.com/civicdata/policy-atlas/internal/store"
)

var (
	runYear    int
	runSkipMap bool
)

// figureJob is one artifact the run pipeline produces.
type figureJob struct {
	name  string
	file  string
	kind  string
	title string
	fn    func(path string) error
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis and render every figure",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		prior := priorManifest()
		year := runYear
		if year == 0 && prior != nil && prior.Year > 0 {
			year = prior.Year
			zap.L().Info("election year pinned by manifest", zap.Int("year", year))
		}
		if year == 0 {
			year = cfg.Analysis.Year
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.CreateRun(ctx, year)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		zap.L().Info("run created", zap.String("run_id", run.ID), zap.Int("year", year))

		result, err := executeRun(ctx, st, run, year, prior)
		if err != nil {
			if failErr := st.FailRun(ctx, run.ID, err.Error()); failErr != nil {
				zap.L().Error("mark run failed", zap.Error(failErr))
			}
			return err
		}

		p := message.NewPrinter(language.English)
		p.Printf("Run %s complete: %d jurisdictions, %d figures\n",
			run.ID, result.Jurisdictions, len(result.Figures))
		p.Printf("  No ID required:  %d states, mean score %.2f\n", result.NoIDStates, result.NoIDAvgScore)
		p.Printf("  ID required:     %d states, mean score %.2f\n", result.IDReqStates, result.IDReqAvgScore)
		return nil
	},
}

// priorManifest loads the previous run's figures.yaml when present. It
// carries the per-figure disable switches and can pin the election year
// for a rerun.
func priorManifest() *render.Manifest {
	m, err := render.LoadManifest(filepath.Join(cfg.Output.FiguresDir, "figures.yaml"))
	if err != nil {
		return nil
	}
	return m
}

// filterJobs drops the jobs a prior manifest disables. The disabled
// entries come back so the next manifest keeps the switches.
func filterJobs(jobs []figureJob, prior *render.Manifest) ([]figureJob, []render.Figure) {
	if prior == nil {
		return jobs, nil
	}
	kept := make([]figureJob, 0, len(jobs))
	var disabled []render.Figure
	for _, job := range jobs {
		if !prior.Disabled(job.name) {
			kept = append(kept, job)
			continue
		}
		for _, f := range prior.Figures {
			if f.Name == job.name {
				disabled = append(disabled, f)
				break
			}
		}
	}
	return kept, disabled
}

func executeRun(ctx context.Context, st store.Store, run *model.Run, year int, prior *render.Manifest) (*model.RunResult, error) {
	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusPreparing); err != nil {
		return nil, err
	}

	rows, policies, usedYear, err := loadFrame(ctx, year)
	if err != nil {
		return nil, err
	}

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusAnalyzing); err != nil {
		return nil, err
	}
	report := stats.BuildReport(policies)

	benefitStats := make([]model.BenefitStat, 0, len(report.Comparisons))
	for _, c := range report.Comparisons {
		benefitStats = append(benefitStats, model.BenefitStat{
			RunID:     run.ID,
			Benefit:   string(c.Benefit),
			NoIDPct:   c.NoIDPct,
			IDReqPct:  c.IDReqPct,
			OddsRatio: c.OddsRatio,
			PValue:    c.PValue,
		})
	}
	if err := st.SaveBenefitStats(ctx, run.ID, benefitStats); err != nil {
		return nil, err
	}

	trendTests := make([]model.TrendTest, 0, len(report.Trends))
	for _, t := range report.Trends {
		trendTests = append(trendTests, model.TrendTest{
			RunID:   run.ID,
			Benefit: string(t.Benefit),
			Slope:   t.Slope,
			PTrend:  t.PTrend,
		})
	}
	if err := st.SaveTrendTests(ctx, run.ID, trendTests); err != nil {
		return nil, err
	}

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRendering); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Output.FiguresDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "create figures dir")
	}

	jobs := []figureJob{
		{"policy_panels", "policy_panels.png", "map", "Voter ID, benefits, and alignment", func(p string) error {
			return render.PolicyPanels(rows, p)
		}},
		{"combined_panels", "combined_panels.png", "map", "Policy panels with presidential result", func(p string) error {
			return render.CombinedPanels(rows, usedYear, p)
		}},
		{"strictness_tiers", "strictness_tiers.png", "map", "Five-tier strictness map", func(p string) error {
			return render.SaveMap(rows, render.TierFill(), "Voter-ID Strictness Tiers", "", p)
		}},
		{"voterid_highcontrast", "voterid_highcontrast.png", "map", "Voter ID against the presidential result", func(p string) error {
			return render.HighContrastPanels(rows, analysis.StrictID(),
				render.RedVivid, render.BlueVivid, usedYear, true, "Voter ID Requirement", p)
		}},
		{"welfare_highcontrast", "welfare_highcontrast.png", "map", "Benefits against the presidential result", func(p string) error {
			return render.HighContrastPanels(rows, analysis.OffersBenefits(),
				render.BlueVivid, render.RedVivid, usedYear, false, "Benefits for Undocumented Immigrants", p)
		}},
		{"policy_alignment", "policy_alignment.png", "map", "Standalone alignment map", func(p string) error {
			al := analysis.Align(rows, analysis.StrictID(), analysis.OffersBenefits(), true)
			return render.SaveMatchMap(rows, al, "Policy Alignment", p)
		}},
		{"benefit_comparison_chart", "benefit_comparison.png", "chart", "Benefit availability by group", func(p string) error {
			return render.BenefitComparisonChart(report.Comparisons, p)
		}},
		{"welfare_score_chart", "welfare_scores.png", "chart", "Mean welfare score by group", func(p string) error {
			return render.WelfareScoreChart(report.Groups, p)
		}},
		{"tier_gradient_chart", "tier_gradient.png", "chart", "Welfare score across tiers", func(p string) error {
			return render.TierGradientChart(report.Gradient, p)
		}},
		{"group_summary_table", "group_summary_table.png", "table", "Group summary statistics", func(p string) error {
			return render.GroupSummaryTable(report.Groups, p)
		}},
		{"benefit_comparison_table", "benefit_comparison_table.png", "table", "Odds ratios and Fisher p-values", func(p string) error {
			return render.BenefitComparisonTable(report.Comparisons, p)
		}},
		{"tier_gradient_table", "tier_gradient_table.png", "table", "Per-tier gradient", func(p string) error {
			return render.TierGradientTable(report.Gradient, p)
		}},
		{"trend_table", "trend_table.png", "table", "Logistic trend tests", func(p string) error {
			return render.TrendTable(report.Trends, p)
		}},
		{"state_detail_table", "state_detail_table.png", "table", "Per-state policy detail", func(p string) error {
			return render.StateDetailTable(policies, p)
		}},
		{"key_findings", "key_findings.txt", "narrative", "Key findings", func(p string) error {
			return os.WriteFile(p, []byte(report.KeyFindings()), 0o644)
		}},
		{"workbook", "report.xlsx", "export", "Full results workbook", func(p string) error {
			return export.Workbook(report, policies, p)
		}},
	}
	if !runSkipMap {
		jobs = append(jobs, borderMapJobs(ctx, rows, policies, usedYear)...)
	}

	jobs, disabled := filterJobs(jobs, prior)
	for _, f := range disabled {
		zap.L().Info("figure disabled by manifest", zap.String("name", f.Name))
	}

	manifest := render.NewManifest(run.ID, usedYear)
	manifest.Figures = append(manifest.Figures, disabled...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			path := filepath.Join(cfg.Output.FiguresDir, job.file)
			if err := job.fn(path); err != nil {
				return eris.Wrapf(err, "render %s", job.name)
			}
			zap.L().Info("figure rendered", zap.String("name", job.name), zap.String("path", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	figures := make([]string, 0, len(jobs))
	for _, job := range jobs {
		path := filepath.Join(cfg.Output.FiguresDir, job.file)
		manifest.Add(job.name, path, job.kind, job.title)
		figures = append(figures, path)
		if _, err := st.AddArtifact(ctx, model.Artifact{
			RunID: run.ID,
			Name:  job.name,
			Path:  path,
			Kind:  job.kind,
		}); err != nil {
			return nil, err
		}
	}
	if err := manifest.Write(filepath.Join(cfg.Output.FiguresDir, "figures.yaml")); err != nil {
		return nil, err
	}

	noID, idReq := dataset.Split(policies)
	result := &model.RunResult{
		Jurisdictions: report.NStates,
		NoIDStates:    len(noID),
		IDReqStates:   len(idReq),
		Figures:       figures,
	}
	for _, grp := range report.Groups {
		switch grp.Policy {
		case model.PolicyNoIDRequired:
			result.NoIDAvgScore = grp.AdultsScoreMean
		case model.PolicyIDRequired:
			result.IDReqAvgScore = grp.AdultsScoreMean
		}
	}

	if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// borderMapJobs assembles the welfare and voter-ID border-county figures
// when the county datasets are available. Missing county data only
// drops these figures.
func borderMapJobs(ctx context.Context, rows []analysis.StateRow, policies []model.StatePolicy, year int) []figureJob {
	adjacency, err := dataset.LoadAdjacency(cfg.Data.CountyAdjacency)
	if err != nil {
		zap.L().Warn("county adjacency unavailable, skipping border maps", zap.Error(err))
		return nil
	}
	votes, err := dataset.LoadCountyVotes(cfg.Data.CountyVotes)
	if err != nil {
		zap.L().Warn("county votes unavailable, skipping border maps", zap.Error(err))
		return nil
	}
	counties, err := newBoundarySource().Counties(ctx)
	if err != nil {
		zap.L().Warn("county boundaries unavailable, skipping border maps", zap.Error(err))
		return nil
	}

	voteYear := dataset.LatestCountyYear(votes, year)
	byFIPS := analysis.IndexCountyVotes(votes, voteYear)
	shapes := geodata.ProjectCounties(counties)

	var jobs []figureJob
	for _, v := range borderVariants(adjacency, dataset.IndexPolicies(policies)) {
		study, title := v.study, v.title
		jobs = append(jobs, figureJob{
			name:  v.name,
			file:  v.file,
			kind:  "map",
			title: title,
			fn: func(p string) error {
				return render.BorderCountyMap(rows, shapes, study, byFIPS, voteYear, title, p)
			},
		})
	}
	return jobs
}

func init() {
	runCmd.Flags().IntVar(&runYear, "year", 0, "presidential election year for the vote layers (default from config)")
	runCmd.Flags().BoolVar(&runSkipMap, "skip-border-map", false, "skip the border-county figure")
	rootCmd.AddCommand(runCmd)
}

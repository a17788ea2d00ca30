package stats

import (
	"fmt"
	"strings"

	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/model"
)

// Report bundles every statistic the narrative, tables, and charts draw
// from, computed once per run.
type Report struct {
	NStates     int
	Groups      []dataset.GroupSummary
	Comparisons []BenefitComparison
	MannWhitney MannWhitneyResult
	Gradient    []TierRow
	PearsonR    float64
	SpearmanRho float64
	SpearmanP   float64
	Trends      []TrendResult
}

// ReportBenefits is the benefit ordering used across the narrative and
// the rendered tables.
var ReportBenefits = []model.BenefitColumn{
	model.BenefitAnyHealth,
	model.BenefitHealthAdults,
	model.BenefitHealthChildren,
	model.BenefitHealthSeniors,
	model.BenefitFood,
	model.BenefitCash,
	model.BenefitEITC,
	model.BenefitAny,
}

// BuildReport runs the full descriptive analysis over the joined policy
// table.
func BuildReport(policies []model.StatePolicy) Report {
	noID, idReq := dataset.Split(policies)

	scoresOf := func(ps []model.StatePolicy) []float64 {
		out := make([]float64, len(ps))
		for i, p := range ps {
			out[i] = float64(p.WelfareScoreAdults())
		}
		return out
	}

	r, rho, rhoP := StrictnessCorrelation(policies)
	return Report{
		NStates:     len(policies),
		Groups:      dataset.Summarize(policies),
		Comparisons: CompareBenefits(policies, ReportBenefits),
		MannWhitney: MannWhitneyU(scoresOf(noID), scoresOf(idReq)),
		Gradient:    TierGradient(policies),
		PearsonR:    r,
		SpearmanRho: rho,
		SpearmanP:   rhoP,
		Trends:      TrendTests(policies, ReportBenefits),
	}
}

// Comparison looks up the comparison row for one benefit column.
func (r Report) Comparison(b model.BenefitColumn) (BenefitComparison, bool) {
	for _, c := range r.Comparisons {
		if c.Benefit == b {
			return c, true
		}
	}
	return BenefitComparison{}, false
}

func (r Report) group(policy model.PolicyLabel) dataset.GroupSummary {
	for _, g := range r.Groups {
		if g.Policy == policy {
			return g
		}
	}
	return dataset.GroupSummary{}
}

// KeyFindings renders the plain-text findings report.
func (r Report) KeyFindings() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	noID := r.group(model.PolicyNoIDRequired)
	idReq := r.group(model.PolicyIDRequired)

	line("KEY FINDINGS: VOTER ID STRICTNESS vs. BENEFITS FOR UNDOCUMENTED IMMIGRANTS")
	line(strings.Repeat("=", 78))
	line("")
	if r.NStates == 51 {
		line("Sample: %d jurisdictions (50 states + DC)", r.NStates)
	} else {
		line("Sample: %d jurisdictions", r.NStates)
	}
	line("  %-24s %d states", string(model.PolicyNoIDRequired)+":", noID.NStates)
	line("  %-24s %d states", string(model.PolicyIDRequired)+":", idReq.NStates)
	line("")

	line("1. WELFARE-BENEFIT SCORE (adults: health + food + EITC, 0-3)")
	line("   %-24s mean %.2f  median %.1f", model.PolicyNoIDRequired, noID.AdultsScoreMean, noID.AdultsScoreMedian)
	line("   %-24s mean %.2f  median %.1f", model.PolicyIDRequired, idReq.AdultsScoreMean, idReq.AdultsScoreMedian)
	if idReq.AdultsScoreMean > 0 {
		line("   Ratio: %.1fx higher in states with no effective ID requirement",
			noID.AdultsScoreMean/idReq.AdultsScoreMean)
	}
	line("   Mann-Whitney U = %.1f, one-sided p = %.4f, rank-biserial r = %.2f",
		r.MannWhitney.U, r.MannWhitney.PValue, r.MannWhitney.EffectSize)
	line("")

	line("2. BENEFIT-BY-BENEFIT COMPARISON (%% of states offering each benefit)")
	line("   %-28s %8s %8s %8s %10s", "Benefit", "No ID", "ID Req", "OR", "Fisher p")
	for _, c := range r.Comparisons {
		line("   %-28s %7.1f%% %7.1f%% %8.2f %10.4f %s",
			c.Benefit.Label(), c.NoIDPct, c.IDReqPct, c.OddsRatio, c.PValue,
			SignificanceStars(c.PValue))
	}
	line("")

	line("3. GRADIENT ACROSS THE FIVE STRICTNESS TIERS")
	line("   %-4s %-28s %3s %8s %10s", "Tier", "Label", "n", "avg", "any health")
	for _, row := range r.Gradient {
		line("   %-4d %-28s %3d %8.2f %9.0f%%",
			row.Tier, row.Label, row.NStates, row.AvgWelfare,
			row.BenefitPct[model.BenefitAnyHealth])
	}
	line("   Pearson r(tier, score)  = %.3f", r.PearsonR)
	line("   Spearman rho            = %.3f (p = %.4f)", r.SpearmanRho, r.SpearmanP)
	line("")

	line("4. TREND TESTS (logistic regression of benefit on tier)")
	for _, tr := range r.Trends {
		if !tr.Converged {
			line("   %-28s slope n/a (did not converge)", tr.Benefit.Label())
			continue
		}
		line("   %-28s slope %+.3f  p = %.4f %s",
			tr.Benefit.Label(), tr.Slope, tr.PTrend, SignificanceStars(tr.PTrend))
	}
	line("")

	line("INTERPRETATION")
	line("   These are descriptive associations across %d jurisdictions, not", r.NStates)
	line("   causal estimates. Both policy dimensions track the same underlying")
	line("   partisan and demographic divides; no adjustment for confounders is")
	line("   attempted here.")

	return b.String()
}

package stats

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/model"
)

// TierRow summarizes one NCSL strictness tier.
type TierRow struct {
	Tier       int
	Label      string
	NStates    int
	AvgWelfare float64
	BenefitPct map[model.BenefitColumn]float64
	States     []string
}

var gradientBenefits = []model.BenefitColumn{
	model.BenefitAnyHealth,
	model.BenefitHealthAdults,
	model.BenefitHealthChildren,
	model.BenefitHealthSeniors,
	model.BenefitFood,
	model.BenefitCash,
	model.BenefitEITC,
	model.BenefitAny,
}

// TierGradient computes the per-tier benefit gradient in ascending tier
// order. Tiers with no member states are omitted.
func TierGradient(policies []model.StatePolicy) []TierRow {
	byTier := dataset.ByTier(policies)

	tiers := make([]int, 0, len(byTier))
	for t := range byTier {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)

	out := make([]TierRow, 0, len(tiers))
	for _, t := range tiers {
		group := byTier[t]
		row := TierRow{
			Tier:       t,
			Label:      model.TierLabel(t),
			NStates:    len(group),
			BenefitPct: make(map[model.BenefitColumn]float64, len(gradientBenefits)),
		}

		scores := make([]float64, len(group))
		for i, p := range group {
			scores[i] = float64(p.WelfareScoreAdults())
			row.States = append(row.States, p.Abbrev)
		}
		row.AvgWelfare = stat.Mean(scores, nil)
		sort.Strings(row.States)

		for _, b := range gradientBenefits {
			sum := 0
			for _, p := range group {
				sum += b.Value(p)
			}
			row.BenefitPct[b] = 100 * float64(sum) / float64(len(group))
		}
		out = append(out, row)
	}
	return out
}

// StateList renders the sorted member abbreviations of a tier row.
func (r TierRow) StateList() string {
	return strings.Join(r.States, ", ")
}

// StrictnessCorrelation returns the Pearson r and Spearman rho (with its
// p-value) between the strictness tier and the adult welfare score.
func StrictnessCorrelation(policies []model.StatePolicy) (r, rho, rhoP float64) {
	tier := make([]float64, len(policies))
	score := make([]float64, len(policies))
	for i, p := range policies {
		tier[i] = float64(p.IDStrictness)
		score[i] = float64(p.WelfareScoreAdults())
	}
	r = Pearson(tier, score)
	rho, rhoP = Spearman(tier, score)
	return r, rho, rhoP
}

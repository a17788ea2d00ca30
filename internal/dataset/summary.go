package dataset

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/civicdata/policy-atlas/internal/model"
)

// Split partitions policy rows into the two voter-ID groups.
func Split(policies []model.StatePolicy) (noID, idReq []model.StatePolicy) {
	for _, p := range policies {
		if p.NoEffectiveID() {
			noID = append(noID, p)
		} else {
			idReq = append(idReq, p)
		}
	}
	return noID, idReq
}

// ByTier groups policy rows by strictness tier.
func ByTier(policies []model.StatePolicy) map[int][]model.StatePolicy {
	out := make(map[int][]model.StatePolicy)
	for _, p := range policies {
		out[p.IDStrictness] = append(out[p.IDStrictness], p)
	}
	return out
}

// GroupSummary holds summary statistics for one voter-ID policy group.
type GroupSummary struct {
	Policy            model.PolicyLabel
	NStates           int
	AdultsScoreMean   float64
	AdultsScoreMedian float64
	AdultsScoreStd    float64
	AnyScoreMean      float64
	AnyScoreMedian    float64
	AnyScoreStd       float64
	BenefitSums       map[model.BenefitColumn]int
}

var summaryBenefits = []model.BenefitColumn{
	model.BenefitHealthChildren,
	model.BenefitHealthAdults,
	model.BenefitHealthSeniors,
	model.BenefitFood,
	model.BenefitCash,
	model.BenefitEITC,
}

// Summarize computes per-group summary statistics, No ID group first.
func Summarize(policies []model.StatePolicy) []GroupSummary {
	noID, idReq := Split(policies)
	return []GroupSummary{
		summarizeGroup(model.PolicyNoIDRequired, noID),
		summarizeGroup(model.PolicyIDRequired, idReq),
	}
}

func summarizeGroup(label model.PolicyLabel, group []model.StatePolicy) GroupSummary {
	adults := make([]float64, len(group))
	any := make([]float64, len(group))
	sums := make(map[model.BenefitColumn]int, len(summaryBenefits))
	for i, p := range group {
		adults[i] = float64(p.WelfareScoreAdults())
		any[i] = float64(p.WelfareScoreAny())
		for _, b := range summaryBenefits {
			sums[b] += b.Value(p)
		}
	}
	return GroupSummary{
		Policy:            label,
		NStates:           len(group),
		AdultsScoreMean:   stat.Mean(adults, nil),
		AdultsScoreMedian: median(adults),
		AdultsScoreStd:    stdDev(adults),
		AnyScoreMean:      stat.Mean(any, nil),
		AnyScoreMedian:    median(any),
		AnyScoreStd:       stdDev(any),
		BenefitSums:       sums,
	}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// JoinElectoral indexes electoral results by state abbreviation.
func JoinElectoral(results []model.ElectoralResult) map[string]model.ElectoralResult {
	out := make(map[string]model.ElectoralResult, len(results))
	for _, r := range results {
		out[r.StateAbbr] = r
	}
	return out
}

// IndexPolicies indexes policy rows by state abbreviation.
func IndexPolicies(policies []model.StatePolicy) map[string]model.StatePolicy {
	out := make(map[string]model.StatePolicy, len(policies))
	for _, p := range policies {
		out[p.Abbrev] = p
	}
	return out
}

// PolicyVoteGap contrasts mean Democratic vote share across one policy
// split.
type PolicyVoteGap struct {
	Split   string
	InMean  float64 // states where the split holds
	OutMean float64
	InN     int
	OutN    int
}

// VoteGapBySplit computes the Democratic-share contrast for the two
// headline policy splits. States missing a vote row are skipped.
func VoteGapBySplit(policies []model.StatePolicy, votes map[string]model.ElectoralResult) []PolicyVoteGap {
	splits := []struct {
		label string
		fn    func(model.StatePolicy) bool
	}{
		{"No Effective Voter ID", func(p model.StatePolicy) bool { return p.NoEffectiveID() }},
		{"Benefits Offered", func(p model.StatePolicy) bool { return p.HasAnyBenefit() == 1 }},
	}

	out := make([]PolicyVoteGap, 0, len(splits))
	for _, s := range splits {
		gap := PolicyVoteGap{Split: s.label}
		var inSum, outSum float64
		for _, p := range policies {
			v, ok := votes[p.Abbrev]
			if !ok {
				continue
			}
			if s.fn(p) {
				inSum += v.DemShare
				gap.InN++
			} else {
				outSum += v.DemShare
				gap.OutN++
			}
		}
		if gap.InN > 0 {
			gap.InMean = inSum / float64(gap.InN)
		}
		if gap.OutN > 0 {
			gap.OutMean = outSum / float64(gap.OutN)
		}
		out = append(out, gap)
	}
	return out
}

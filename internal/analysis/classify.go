package analysis

import "sort"

// Classifier assigns each state to one of two map classes.
type Classifier struct {
	Name      string
	TrueLabel string // label for states where Fn returns true
	FalseName string
	Fn        func(StateRow) bool
}

// StrictID classifies tiers 1-3 as requiring identification.
func StrictID() Classifier {
	return Classifier{
		Name:      "voter_id",
		TrueLabel: "ID Required to Vote",
		FalseName: "No ID Required",
		Fn:        func(r StateRow) bool { return r.Policy.HasStrictID() },
	}
}

// OffersBenefits classifies states extending any tracked benefit to
// undocumented immigrants.
func OffersBenefits() Classifier {
	return Classifier{
		Name:      "benefits",
		TrueLabel: "Benefits Offered",
		FalseName: "No Benefits",
		Fn:        func(r StateRow) bool { return r.Policy.HasAnyBenefit() == 1 },
	}
}

// DemCarried classifies states the Democratic candidate carried.
func DemCarried() Classifier {
	return Classifier{
		Name:      "election",
		TrueLabel: "Democratic",
		FalseName: "Republican",
		Fn:        func(r StateRow) bool { return r.HasElection && r.DemShare >= 50 },
	}
}

// HighUnauthorized classifies states with an unauthorized population
// share at or above the median across states that report one.
func HighUnauthorized(rows []StateRow) Classifier {
	var pcts []float64
	for _, r := range rows {
		if r.HasPopulation {
			pcts = append(pcts, r.UnauthorizedPct)
		}
	}
	med := medianOf(pcts)
	return Classifier{
		Name:      "unauthorized_pop",
		TrueLabel: "Above-Median Unauthorized Share",
		FalseName: "Below-Median",
		Fn:        func(r StateRow) bool { return r.HasPopulation && r.UnauthorizedPct >= med },
	}
}

// HighUnauthorizedCount is the absolute-number variant: it splits on the
// median unauthorized population count rather than the share. Small
// states with large shares and big states with large counts land on
// different sides of the two classifiers.
func HighUnauthorizedCount(rows []StateRow) Classifier {
	var counts []float64
	for _, r := range rows {
		if r.HasPopulation {
			counts = append(counts, r.UnauthorizedPop)
		}
	}
	med := medianOf(counts)
	return Classifier{
		Name:      "unauthorized_count",
		TrueLabel: "Above-Median Unauthorized Count",
		FalseName: "Below-Median",
		Fn:        func(r StateRow) bool { return r.HasPopulation && r.UnauthorizedPop >= med },
	}
}

func medianOf(xs []float64) float64 {
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

// Alignment is the per-state agreement between two classifiers.
type Alignment struct {
	Matches  map[string]bool // abbrev -> the two classifications agree
	MatchPct float64
}

// Align compares two classifiers across the frame. With invert set the
// second classification is negated first, which turns "ID required" vs
// "offers benefits" into the policy-consistency question: a state is
// consistent when it either requires ID and withholds benefits, or
// requires no ID and extends them.
func Align(rows []StateRow, a, b Classifier, invert bool) Alignment {
	out := Alignment{Matches: make(map[string]bool, len(rows))}
	if len(rows) == 0 {
		return out
	}
	matched := 0
	for _, r := range rows {
		bv := b.Fn(r)
		if invert {
			bv = !bv
		}
		m := a.Fn(r) == bv
		out.Matches[r.Abbrev] = m
		if m {
			matched++
		}
	}
	out.MatchPct = 100 * float64(matched) / float64(len(rows))
	return out
}

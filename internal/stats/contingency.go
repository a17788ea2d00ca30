package stats

import (
	"math"

	"github.com/civicdata/policy-atlas/internal/model"
)

// ContingencyTable is a 2x2 table for one benefit split by voter-ID group:
//
//	            has benefit | no benefit
//	No ID            A      |     B
//	ID required      C      |     D
type ContingencyTable struct {
	A, B, C, D int
}

// Total returns the table sum.
func (t ContingencyTable) Total() int { return t.A + t.B + t.C + t.D }

// BuildTable tallies the 2x2 contingency table for a benefit column.
func BuildTable(policies []model.StatePolicy, benefit model.BenefitColumn) ContingencyTable {
	var t ContingencyTable
	for _, p := range policies {
		has := benefit.Value(p) == 1
		if p.NoEffectiveID() {
			if has {
				t.A++
			} else {
				t.B++
			}
		} else {
			if has {
				t.C++
			} else {
				t.D++
			}
		}
	}
	return t
}

// OddsRatio computes (A*D)/(B*C). When any of B, C, D is zero the
// Haldane-Anscombe correction adds 0.5 to every cell.
func (t ContingencyTable) OddsRatio() float64 {
	if t.B == 0 || t.C == 0 || t.D == 0 {
		a, b, c, d := float64(t.A)+0.5, float64(t.B)+0.5, float64(t.C)+0.5, float64(t.D)+0.5
		return (a * d) / (b * c)
	}
	return (float64(t.A) * float64(t.D)) / (float64(t.B) * float64(t.C))
}

// FisherExact returns the two-sided p-value of Fisher's exact test,
// summing hypergeometric probabilities of all tables at most as likely as
// the observed one (the method scipy uses for 2x2 tables).
func (t ContingencyTable) FisherExact() float64 {
	n := t.Total()
	if n == 0 {
		return 1
	}
	rowTotal := t.A + t.B // No ID group size
	colTotal := t.A + t.C // states with the benefit

	observed := hypergeomPMF(t.A, rowTotal, colTotal, n)

	lo := max(0, rowTotal+colTotal-n)
	hi := min(rowTotal, colTotal)

	// Small tolerance absorbs floating-point noise when comparing
	// probabilities of equally extreme tables.
	const relEps = 1 + 1e-7
	p := 0.0
	for a := lo; a <= hi; a++ {
		if pm := hypergeomPMF(a, rowTotal, colTotal, n); pm <= observed*relEps {
			p += pm
		}
	}
	if p > 1 {
		p = 1
	}
	return p
}

// hypergeomPMF is P(X = a) drawing colTotal successes into a sample of
// rowTotal from a population of n.
func hypergeomPMF(a, rowTotal, colTotal, n int) float64 {
	return math.Exp(
		logChoose(colTotal, a) +
			logChoose(n-colTotal, rowTotal-a) -
			logChoose(n, rowTotal),
	)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln1, _ := math.Lgamma(float64(n + 1))
	ln2, _ := math.Lgamma(float64(k + 1))
	ln3, _ := math.Lgamma(float64(n - k + 1))
	return ln1 - ln2 - ln3
}

// BenefitComparison is the per-benefit group comparison feeding charts,
// tables, and the narrative.
type BenefitComparison struct {
	Benefit   model.BenefitColumn
	Table     ContingencyTable
	NoIDPct   float64
	IDReqPct  float64
	OddsRatio float64
	PValue    float64
}

// CompareBenefits runs the 2x2 analysis for each benefit column.
func CompareBenefits(policies []model.StatePolicy, benefits []model.BenefitColumn) []BenefitComparison {
	out := make([]BenefitComparison, 0, len(benefits))
	for _, b := range benefits {
		t := BuildTable(policies, b)
		cmp := BenefitComparison{
			Benefit:   b,
			Table:     t,
			OddsRatio: t.OddsRatio(),
			PValue:    t.FisherExact(),
		}
		if nNoID := t.A + t.B; nNoID > 0 {
			cmp.NoIDPct = 100 * float64(t.A) / float64(nNoID)
		}
		if nIDReq := t.C + t.D; nIDReq > 0 {
			cmp.IDReqPct = 100 * float64(t.C) / float64(nIDReq)
		}
		out = append(out, cmp)
	}
	return out
}

// SignificanceStars maps a p-value to the conventional star markers.
func SignificanceStars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	}
	return ""
}

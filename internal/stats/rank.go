package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MannWhitneyResult holds the one-sided Mann-Whitney U comparison of
// welfare scores between the two policy groups.
type MannWhitneyResult struct {
	U          float64
	PValue     float64 // one-sided: first sample stochastically greater
	EffectSize float64 // rank-biserial correlation
}

// MannWhitneyU performs the Mann-Whitney U test with the alternative that
// x tends to be greater than y, using the tie-corrected normal
// approximation with continuity correction.
func MannWhitneyU(x, y []float64) MannWhitneyResult {
	n1, n2 := float64(len(x)), float64(len(y))
	if n1 == 0 || n2 == 0 {
		return MannWhitneyResult{PValue: 1}
	}

	combined := append(append([]float64(nil), x...), y...)
	ranks, tieTerm := rankWithTies(combined)

	var r1 float64
	for i := range x {
		r1 += ranks[i]
	}
	u := r1 - n1*(n1+1)/2

	mean := n1 * n2 / 2
	n := n1 + n2
	variance := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))

	var p float64
	if variance <= 0 {
		p = 1
	} else {
		z := (u - mean - 0.5) / math.Sqrt(variance)
		p = 1 - distuv.UnitNormal.CDF(z)
	}

	return MannWhitneyResult{
		U:          u,
		PValue:     p,
		EffectSize: 1 - 2*u/(n1*n2),
	}
}

// rankWithTies assigns average ranks (1-based) and returns the tie
// correction term sum(t^3 - t).
func rankWithTies(xs []float64) (ranks []float64, tieTerm float64) {
	type indexed struct {
		v float64
		i int
	}
	s := make([]indexed, len(xs))
	for i, v := range xs {
		s[i] = indexed{v, i}
	}
	sort.Slice(s, func(a, b int) bool { return s[a].v < s[b].v })

	ranks = make([]float64, len(xs))
	for i := 0; i < len(s); {
		j := i
		for j < len(s) && s[j].v == s[i].v {
			j++
		}
		avg := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[s[k].i] = avg
		}
		if t := float64(j - i); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return ranks, tieTerm
}

// Ranks returns average ranks for a single sample.
func Ranks(xs []float64) []float64 {
	r, _ := rankWithTies(xs)
	return r
}

// Pearson returns the Pearson correlation coefficient.
func Pearson(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// Spearman returns the Spearman rank correlation and its two-sided
// p-value from the t approximation.
func Spearman(x, y []float64) (rho, p float64) {
	rho = stat.Correlation(Ranks(x), Ranks(y), nil)
	n := float64(len(x))
	if n < 3 || math.Abs(rho) >= 1 {
		if math.Abs(rho) >= 1 {
			return rho, 0
		}
		return rho, 1
	}
	t := rho * math.Sqrt((n-2)/(1-rho*rho))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	p = 2 * dist.CDF(-math.Abs(t))
	return rho, p
}

package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/civicdata/policy-atlas/internal/model"
)

// TrendResult is the logistic-regression test for a monotone trend of one
// binary benefit across the 1-5 strictness tiers treated as a continuous
// predictor.
type TrendResult struct {
	Benefit   model.BenefitColumn
	Intercept float64
	Slope     float64
	StdErr    float64
	PTrend    float64 // Wald two-sided p-value for the slope
	Converged bool
}

const (
	logitMaxIter = 100
	logitTol     = 1e-8
)

// LogisticTrend fits logit(P(y=1)) = b0 + b1*tier by Newton-Raphson and
// returns the Wald p-value for b1. Non-convergence (including perfect
// separation) reports PTrend = 1 with Converged = false so downstream
// tables still render a row.
func LogisticTrend(benefit model.BenefitColumn, policies []model.StatePolicy) TrendResult {
	res := TrendResult{Benefit: benefit, PTrend: 1}
	n := len(policies)
	if n == 0 {
		return res
	}

	y := make([]float64, n)
	tier := make([]float64, n)
	for i, p := range policies {
		y[i] = float64(benefit.Value(p))
		tier[i] = float64(p.IDStrictness)
	}

	b0, b1 := 0.0, 0.0
	var info00, info01, info11 float64
	for iter := 0; iter < logitMaxIter; iter++ {
		var g0, g1 float64
		info00, info01, info11 = 0, 0, 0
		for i := 0; i < n; i++ {
			eta := b0 + b1*tier[i]
			mu := 1 / (1 + math.Exp(-eta))
			w := mu * (1 - mu)
			r := y[i] - mu
			g0 += r
			g1 += r * tier[i]
			info00 += w
			info01 += w * tier[i]
			info11 += w * tier[i] * tier[i]
		}

		info := mat.NewDense(2, 2, []float64{info00, info01, info01, info11})
		grad := mat.NewVecDense(2, []float64{g0, g1})
		var step mat.VecDense
		if err := step.SolveVec(info, grad); err != nil {
			return res
		}

		d0, d1 := step.AtVec(0), step.AtVec(1)
		b0 += d0
		b1 += d1

		// Diverging coefficients indicate separation.
		if math.Abs(b0) > 50 || math.Abs(b1) > 50 {
			return res
		}
		if math.Abs(d0) < logitTol && math.Abs(d1) < logitTol {
			res.Converged = true
			break
		}
	}
	if !res.Converged {
		return res
	}

	// Slope variance is the (1,1) entry of the inverse information matrix.
	det := info00*info11 - info01*info01
	if det <= 0 {
		res.Converged = false
		res.PTrend = 1
		return res
	}
	seSlope := math.Sqrt(info00 / det)

	res.Intercept = b0
	res.Slope = b1
	res.StdErr = seSlope
	if seSlope > 0 {
		z := b1 / seSlope
		res.PTrend = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	}
	return res
}

// TrendTests runs the trend test for each benefit column.
func TrendTests(policies []model.StatePolicy, benefits []model.BenefitColumn) []TrendResult {
	out := make([]TrendResult, 0, len(benefits))
	for _, b := range benefits {
		out = append(out, LogisticTrend(b, policies))
	}
	return out
}

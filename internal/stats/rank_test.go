package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankWithTies(t *testing.T) {
	ranks, tieTerm := rankWithTies([]float64{1, 2, 2, 3})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
	assert.Equal(t, 6.0, tieTerm) // one tie of size 2: 8 - 2

	ranks, tieTerm = rankWithTies([]float64{5, 1, 3})
	assert.Equal(t, []float64{3, 1, 2}, ranks)
	assert.Zero(t, tieTerm)
}

func TestMannWhitneyU_ClearSeparation(t *testing.T) {
	x := []float64{3, 3, 2, 2, 3}
	y := []float64{0, 0, 1, 0, 0, 1}

	res := MannWhitneyU(x, y)
	assert.Equal(t, 30.0, res.U) // every x beats every y
	assert.Less(t, res.PValue, 0.01)
	assert.InDelta(t, -1.0, res.EffectSize, 1e-9)
}

func TestMannWhitneyU_NoDifference(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{1, 2, 3}

	res := MannWhitneyU(x, y)
	assert.InDelta(t, 4.5, res.U, 1e-9)
	assert.Greater(t, res.PValue, 0.4)
}

func TestMannWhitneyU_Empty(t *testing.T) {
	res := MannWhitneyU(nil, []float64{1})
	assert.Equal(t, 1.0, res.PValue)
}

func TestMannWhitneyU_ConstantSamples(t *testing.T) {
	res := MannWhitneyU([]float64{2, 2}, []float64{2, 2, 2})
	assert.Equal(t, 1.0, res.PValue)
	assert.Zero(t, res.EffectSize)
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Pearson(x, x), 1e-9)

	y := []float64{5, 4, 3, 2, 1}
	assert.InDelta(t, -1.0, Pearson(x, y), 1e-9)
}

func TestSpearman(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2, 4, 8, 16, 32, 64} // monotone but nonlinear

	rho, p := Spearman(x, y)
	assert.InDelta(t, 1.0, rho, 1e-9)
	assert.Zero(t, p)
}

func TestSpearman_Moderate(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7}

	rho, p := Spearman(x, y)
	assert.Greater(t, rho, 0.8)
	assert.Less(t, rho, 1.0)
	assert.Less(t, p, 0.05)
}

func TestSpearman_TooFewPoints(t *testing.T) {
	rho, p := Spearman([]float64{1, 2}, []float64{2, 1})
	assert.InDelta(t, -1.0, rho, 1e-9)
	assert.Zero(t, p)
}

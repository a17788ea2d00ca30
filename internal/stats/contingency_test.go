package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/policy-atlas/internal/model"
)

func samplePolicies() []model.StatePolicy {
	// Four permissive states with broad benefits, six strict states with
	// almost none. One strict outlier keeps the table cells nonzero.
	return []model.StatePolicy{
		{Abbrev: "CA", IDStrictness: 5, HealthChildren: 1, HealthAdults: 1, HealthSeniors: 1, Food: 1, Cash: 1, EITC: 1},
		{Abbrev: "OR", IDStrictness: 5, HealthChildren: 1, HealthAdults: 1, Food: 1, EITC: 1},
		{Abbrev: "NY", IDStrictness: 5, HealthChildren: 1, HealthAdults: 1, EITC: 1},
		{Abbrev: "NV", IDStrictness: 4},
		{Abbrev: "TX", IDStrictness: 1},
		{Abbrev: "IN", IDStrictness: 1},
		{Abbrev: "GA", IDStrictness: 1},
		{Abbrev: "WI", IDStrictness: 2},
		{Abbrev: "MT", IDStrictness: 2},
		{Abbrev: "FL", IDStrictness: 3, HealthChildren: 1},
	}
}

func TestBuildTable(t *testing.T) {
	tab := BuildTable(samplePolicies(), model.BenefitAnyHealth)
	assert.Equal(t, 3, tab.A) // CA, OR, NY
	assert.Equal(t, 1, tab.B) // NV
	assert.Equal(t, 1, tab.C) // FL
	assert.Equal(t, 5, tab.D)
	assert.Equal(t, 10, tab.Total())
}

func TestOddsRatio(t *testing.T) {
	tab := ContingencyTable{A: 3, B: 1, C: 1, D: 5}
	assert.InDelta(t, 15.0, tab.OddsRatio(), 1e-9)
}

func TestOddsRatio_HaldaneCorrection(t *testing.T) {
	tab := ContingencyTable{A: 4, B: 0, C: 1, D: 5}
	// (4.5 * 5.5) / (0.5 * 1.5)
	assert.InDelta(t, 33.0, tab.OddsRatio(), 1e-9)
	assert.False(t, tab.OddsRatio() == 0)
}

func TestFisherExact_KnownTable(t *testing.T) {
	// Classic lady-tasting-tea table: two-sided p = 0.4857...
	tab := ContingencyTable{A: 3, B: 1, C: 1, D: 3}
	assert.InDelta(t, 0.485714, tab.FisherExact(), 1e-4)
}

func TestFisherExact_Extremes(t *testing.T) {
	assert.Equal(t, 1.0, ContingencyTable{}.FisherExact())

	// Perfect separation on 10 states is significant.
	tab := ContingencyTable{A: 5, B: 0, C: 0, D: 5}
	p := tab.FisherExact()
	assert.Less(t, p, 0.01)
	assert.Greater(t, p, 0.0)

	// A balanced table is not.
	flat := ContingencyTable{A: 3, B: 3, C: 3, D: 3}
	assert.InDelta(t, 1.0, flat.FisherExact(), 1e-9)
}

func TestFisherExact_SymmetricInGroups(t *testing.T) {
	a := ContingencyTable{A: 3, B: 1, C: 1, D: 5}
	b := ContingencyTable{A: 1, B: 5, C: 3, D: 1} // rows swapped
	assert.InDelta(t, a.FisherExact(), b.FisherExact(), 1e-9)
}

func TestCompareBenefits(t *testing.T) {
	cmps := CompareBenefits(samplePolicies(), ReportBenefits)
	require.Len(t, cmps, len(ReportBenefits))

	var anyHealth BenefitComparison
	for _, c := range cmps {
		if c.Benefit == model.BenefitAnyHealth {
			anyHealth = c
		}
	}
	assert.InDelta(t, 75.0, anyHealth.NoIDPct, 1e-9)
	assert.InDelta(t, 100.0/6, anyHealth.IDReqPct, 1e-9)
	assert.Greater(t, anyHealth.OddsRatio, 1.0)
	assert.Greater(t, anyHealth.PValue, 0.0)
	assert.LessOrEqual(t, anyHealth.PValue, 1.0)
}

func TestSignificanceStars(t *testing.T) {
	assert.Equal(t, "***", SignificanceStars(0.0005))
	assert.Equal(t, "**", SignificanceStars(0.005))
	assert.Equal(t, "*", SignificanceStars(0.04))
	assert.Equal(t, "", SignificanceStars(0.05))
	assert.Equal(t, "", SignificanceStars(0.9))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatePolicy_Derivations(t *testing.T) {
	p := StatePolicy{
		State:          "California",
		Abbrev:         "CA",
		IDStrictness:   5,
		HealthChildren: 1,
		HealthAdults:   1,
		HealthSeniors:  1,
		Food:           1,
		EITC:           1,
	}

	assert.Equal(t, 1, p.HasAnyHealth())
	assert.Equal(t, 3, p.WelfareScoreAdults())
	assert.Equal(t, 3, p.WelfareScoreAny())
	assert.Equal(t, 1, p.HasAnyBenefit())
	assert.True(t, p.NoEffectiveID())
	assert.Equal(t, PolicyNoIDRequired, p.Policy())
}

func TestStatePolicy_TwoTierBoundary(t *testing.T) {
	tests := []struct {
		tier     int
		noID     bool
		strictID bool
	}{
		{1, false, true},
		{2, false, true},
		{3, false, true},
		{4, true, false},
		{5, true, false},
	}
	for _, tt := range tests {
		p := StatePolicy{Abbrev: "XX", IDStrictness: tt.tier}
		assert.Equal(t, tt.noID, p.NoEffectiveID(), "tier %d", tt.tier)
		assert.Equal(t, tt.strictID, p.HasStrictID(), "tier %d", tt.tier)
	}
}

func TestStatePolicy_AnyHealthOnlyChildren(t *testing.T) {
	p := StatePolicy{Abbrev: "IL", IDStrictness: 4, HealthChildren: 1}
	assert.Equal(t, 1, p.HasAnyHealth())
	assert.Equal(t, 0, p.WelfareScoreAdults())
	assert.Equal(t, 1, p.WelfareScoreAny())
	assert.Equal(t, 1, p.HasAnyBenefit())
}

func TestStatePolicy_Validate(t *testing.T) {
	valid := StatePolicy{State: "Texas", Abbrev: "TX", IDStrictness: 1}
	require.NoError(t, valid.Validate())

	badTier := StatePolicy{Abbrev: "TX", IDStrictness: 6}
	require.Error(t, badTier.Validate())

	badAbbrev := StatePolicy{Abbrev: "tx", IDStrictness: 1}
	require.Error(t, badAbbrev.Validate())

	badFlag := StatePolicy{Abbrev: "TX", IDStrictness: 1, Food: 2}
	require.Error(t, badFlag.Validate())
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "Strict Photo ID", TierLabel(1))
	assert.Equal(t, "No Document Required", TierLabel(5))
	assert.Equal(t, "Tier 7", TierLabel(7))
}

func TestBenefitColumn_Value(t *testing.T) {
	p := StatePolicy{Abbrev: "WA", IDStrictness: 4, HealthSeniors: 1, Food: 1}
	assert.Equal(t, 0, BenefitHealthAdults.Value(p))
	assert.Equal(t, 1, BenefitHealthSeniors.Value(p))
	assert.Equal(t, 1, BenefitAnyHealth.Value(p))
	assert.Equal(t, 1, BenefitFood.Value(p))
	assert.Equal(t, 0, BenefitEITC.Value(p))
	assert.Equal(t, 1, BenefitAny.Value(p))
}

func TestCandidateLabels(t *testing.T) {
	dem, rep := CandidateLabels(2024)
	assert.Equal(t, "Harris", dem)
	assert.Equal(t, "Trump", rep)

	dem, rep = CandidateLabels(2020)
	assert.Equal(t, "Biden", dem)
	assert.Equal(t, "Trump", rep)

	dem, rep = CandidateLabels(2012)
	assert.Equal(t, "Dem", dem)
	assert.Equal(t, "Rep", rep)
}

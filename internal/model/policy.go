package model

import (
	"fmt"
	"strings"
)

// Voter-ID strictness tiers per the NCSL classification.
const (
	TierStrictPhoto = iota + 1
	TierStrictNonPhoto
	TierNonStrictPhoto
	TierNonStrictNonPhoto
	TierNoDocument
)

// PolicyLabel is the human-readable 2-tier voter-ID group.
type PolicyLabel string

const (
	PolicyNoIDRequired PolicyLabel = "No ID Required"
	PolicyIDRequired   PolicyLabel = "ID Required"
)

// StatePolicy is one row of the curated state policy dataset: the NCSL
// voter-ID strictness tier plus per-benefit availability flags for
// undocumented immigrants. Benefit flags are 0/1 ints so they can be
// summed directly into welfare scores.
type StatePolicy struct {
	State          string `csv:"state" json:"state"`
	Abbrev         string `csv:"abbrev" json:"abbrev"`
	IDStrictness   int    `csv:"id_strictness" json:"id_strictness"`
	HealthChildren int    `csv:"health_children" json:"health_children"`
	HealthAdults   int    `csv:"health_adults" json:"health_adults"`
	HealthSeniors  int    `csv:"health_seniors" json:"health_seniors"`
	Food           int    `csv:"food" json:"food"`
	Cash           int    `csv:"cash" json:"cash"`
	EITC           int    `csv:"eitc" json:"eitc"`
}

// Validate checks row-level invariants of the curated dataset.
func (p StatePolicy) Validate() error {
	if len(p.Abbrev) != 2 || p.Abbrev != strings.ToUpper(p.Abbrev) {
		return fmt.Errorf("state abbreviation %q must be a two-letter upper-case code", p.Abbrev)
	}
	if p.IDStrictness < TierStrictPhoto || p.IDStrictness > TierNoDocument {
		return fmt.Errorf("state %s: id_strictness %d outside 1..5", p.Abbrev, p.IDStrictness)
	}
	for _, f := range []struct {
		name string
		val  int
	}{
		{"health_children", p.HealthChildren},
		{"health_adults", p.HealthAdults},
		{"health_seniors", p.HealthSeniors},
		{"food", p.Food},
		{"cash", p.Cash},
		{"eitc", p.EITC},
	} {
		if f.val != 0 && f.val != 1 {
			return fmt.Errorf("state %s: %s must be 0 or 1, got %d", p.Abbrev, f.name, f.val)
		}
	}
	return nil
}

// HasAnyHealth reports whether any health coverage (children, adults, or
// seniors) is extended.
func (p StatePolicy) HasAnyHealth() int {
	if p.HealthChildren == 1 || p.HealthAdults == 1 || p.HealthSeniors == 1 {
		return 1
	}
	return 0
}

// WelfareScoreAdults counts benefits available to undocumented adults:
// adult health coverage + food assistance + EITC (0-3).
func (p StatePolicy) WelfareScoreAdults() int {
	return p.HealthAdults + p.Food + p.EITC
}

// WelfareScoreAny counts benefits where any health coverage qualifies (0-3).
func (p StatePolicy) WelfareScoreAny() int {
	return p.HasAnyHealth() + p.Food + p.EITC
}

// HasAnyBenefit reports whether the state extends any of the tracked
// benefit categories.
func (p StatePolicy) HasAnyBenefit() int {
	if p.HasAnyHealth() == 1 || p.Food == 1 || p.Cash == 1 || p.EITC == 1 {
		return 1
	}
	return 0
}

// NoEffectiveID reports the 2-tier functional classification: tiers 4-5
// (affidavit option or no document) count as no effective ID requirement.
func (p StatePolicy) NoEffectiveID() bool {
	return p.IDStrictness >= TierNonStrictNonPhoto
}

// HasStrictID is the complement used by the map classifiers: tiers 1-3.
func (p StatePolicy) HasStrictID() bool {
	return !p.NoEffectiveID()
}

// Policy returns the human-readable 2-tier group label.
func (p StatePolicy) Policy() PolicyLabel {
	if p.NoEffectiveID() {
		return PolicyNoIDRequired
	}
	return PolicyIDRequired
}

var tierLabels = map[int]string{
	TierStrictPhoto:       "Strict Photo ID",
	TierStrictNonPhoto:    "Strict Non-Photo ID",
	TierNonStrictPhoto:    "Non-Strict Photo ID",
	TierNonStrictNonPhoto: "Non-Strict Non-Photo ID",
	TierNoDocument:        "No Document Required",
}

// TierLabel returns the NCSL tier name, or "Tier N" for unknown values.
func TierLabel(tier int) string {
	if l, ok := tierLabels[tier]; ok {
		return l
	}
	return fmt.Sprintf("Tier %d", tier)
}

// BenefitColumn identifies one benefit indicator for statistics and tables.
type BenefitColumn string

const (
	BenefitHealthAdults   BenefitColumn = "health_adults"
	BenefitHealthChildren BenefitColumn = "health_children"
	BenefitHealthSeniors  BenefitColumn = "health_seniors"
	BenefitAnyHealth      BenefitColumn = "any_health"
	BenefitFood           BenefitColumn = "food"
	BenefitCash           BenefitColumn = "cash"
	BenefitEITC           BenefitColumn = "eitc"
	BenefitAny            BenefitColumn = "any_benefit"
)

// Value extracts the named indicator from a policy row.
func (b BenefitColumn) Value(p StatePolicy) int {
	switch b {
	case BenefitHealthAdults:
		return p.HealthAdults
	case BenefitHealthChildren:
		return p.HealthChildren
	case BenefitHealthSeniors:
		return p.HealthSeniors
	case BenefitAnyHealth:
		return p.HasAnyHealth()
	case BenefitFood:
		return p.Food
	case BenefitCash:
		return p.Cash
	case BenefitEITC:
		return p.EITC
	case BenefitAny:
		return p.HasAnyBenefit()
	}
	return 0
}

// Label returns the display name used in tables and the narrative.
func (b BenefitColumn) Label() string {
	switch b {
	case BenefitHealthAdults:
		return "Health (Adults)"
	case BenefitHealthChildren:
		return "Health (Children)"
	case BenefitHealthSeniors:
		return "Health (Seniors)"
	case BenefitAnyHealth:
		return "Healthcare"
	case BenefitFood:
		return "Food Assistance"
	case BenefitCash:
		return "Cash Assistance"
	case BenefitEITC:
		return "EITC (ITIN filers)"
	case BenefitAny:
		return "ANY Benefit"
	}
	return string(b)
}

// Package analysis joins boundary geometry with the policy, electoral,
// and population datasets and classifies states for the map layers.
package analysis

import (
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
)

// StateRow is one jurisdiction with everything the maps need: projected
// geometry plus the joined indicator columns.
type StateRow struct {
	Abbrev string
	FIPS   string
	Shape  geodata.ProjectedShape

	Policy    model.StatePolicy
	HasPolicy bool

	DemShare    float64
	HasElection bool

	UnauthorizedPct float64
	UnauthorizedPop float64
	HasPopulation   bool
}

// FrameInputs carries the joined datasets keyed by state abbreviation.
type FrameInputs struct {
	Policies  map[string]model.StatePolicy
	Electoral map[string]model.ElectoralResult
	Pops      map[string]model.UnauthorizedPop
}

// BuildFrame joins projected state shapes against the datasets. A state
// with no policy row falls back to the middle strictness tier and no
// benefits so it still renders rather than dropping off the map.
func BuildFrame(shapes []geodata.ProjectedShape, in FrameInputs) []StateRow {
	rows := make([]StateRow, 0, len(shapes))
	for _, s := range shapes {
		row := StateRow{Abbrev: s.Key, FIPS: s.FIPS, Shape: s}

		if p, ok := in.Policies[s.Key]; ok {
			row.Policy = p
			row.HasPolicy = true
		} else {
			zap.L().Warn("analysis: state missing from policy dataset, using neutral defaults",
				zap.String("state", s.Key))
			row.Policy = model.StatePolicy{
				Abbrev:       s.Key,
				IDStrictness: model.TierNonStrictPhoto,
			}
		}

		if e, ok := in.Electoral[s.Key]; ok {
			row.DemShare = e.DemShare
			row.HasElection = true
		}
		if p, ok := in.Pops[s.Key]; ok {
			row.UnauthorizedPct = p.PctOfPop
			row.UnauthorizedPop = p.Population
			row.HasPopulation = true
		}

		rows = append(rows, row)
	}
	return rows
}

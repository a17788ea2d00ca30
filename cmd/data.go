package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
)

func newBoundarySource() *geodata.Source {
	src := geodata.NewSource(cfg.Census.CacheDir, cfg.Census.FallbackGeoJSON)
	src.HTTPBase = cfg.Census.HTTPBase
	src.FTPBase = cfg.Census.FTPBase
	return src
}

// loadPolicies reads the state policy table.
func loadPolicies() ([]model.StatePolicy, error) {
	policies, err := dataset.LoadPolicies(cfg.Data.Policies)
	if err != nil {
		return nil, eris.Wrap(err, "load policies")
	}
	return policies, nil
}

// loadFrame joins boundary geometry with every dataset the maps use.
// The returned year is the electoral year actually available, which may
// be earlier than the requested one.
func loadFrame(ctx context.Context, year int) ([]analysis.StateRow, []model.StatePolicy, int, error) {
	policies, err := loadPolicies()
	if err != nil {
		return nil, nil, 0, err
	}

	states, err := newBoundarySource().States(ctx)
	if err != nil {
		return nil, nil, 0, eris.Wrap(err, "load state boundaries")
	}
	shapes := geodata.ProjectStates(states)

	inputs := analysis.FrameInputs{
		Policies: dataset.IndexPolicies(policies),
	}

	electoral, usedYear, err := dataset.LoadElectoralPanel(cfg.Data.Electoral, year)
	if err != nil {
		zap.L().Warn("electoral panel unavailable, maps omit the vote layer", zap.Error(err))
		usedYear = year
	} else {
		inputs.Electoral = dataset.JoinElectoral(electoral)
	}

	pops, err := dataset.LoadUnauthorizedPop(cfg.Data.UnauthorizedPop)
	if err != nil {
		zap.L().Warn("unauthorized population table unavailable", zap.Error(err))
	} else {
		byState := make(map[string]model.UnauthorizedPop, len(pops))
		for _, p := range pops {
			byState[p.StateAbbr] = p
		}
		inputs.Pops = byState
	}

	return analysis.BuildFrame(shapes, inputs), policies, usedYear, nil
}

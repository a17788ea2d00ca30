package dataset

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civicdata/policy-atlas/internal/model"
)

// countyVoteRow tolerates the column variants seen across vintages of the
// county presidential file: fips vs county_fips, dem_two_party (fraction)
// vs per_dem (fraction) vs dem_share (percent).
type countyVoteRow struct {
	FIPS        string  `csv:"fips"`
	CountyFIPS  string  `csv:"county_fips"`
	StatePo     string  `csv:"state_po"`
	Year        int     `csv:"year"`
	DemTwoParty float64 `csv:"dem_two_party"`
	PerDem      float64 `csv:"per_dem"`
	DemShare    float64 `csv:"dem_share"`
}

// ZeroPadFIPS normalizes a county FIPS code to five digits.
func ZeroPadFIPS(fips string) string {
	fips = strings.TrimSpace(fips)
	for len(fips) < 5 {
		fips = "0" + fips
	}
	return fips
}

// LoadCountyVotes reads county presidential results, normalizing FIPS
// codes and Democratic share to percentage points.
func LoadCountyVotes(path string) ([]model.CountyVote, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.CountyVote
	for {
		var r countyVoteRow
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "dataset: decode county vote row")
		}

		fips := r.FIPS
		if fips == "" {
			fips = r.CountyFIPS
		}
		if fips == "" {
			continue
		}

		share := r.DemShare
		if share == 0 {
			switch {
			case r.DemTwoParty != 0:
				share = r.DemTwoParty * 100
			case r.PerDem != 0:
				share = r.PerDem * 100
			}
		}

		out = append(out, model.CountyVote{
			FIPS:      ZeroPadFIPS(fips),
			StateAbbr: strings.ToUpper(r.StatePo),
			Year:      r.Year,
			DemShare:  share,
		})
	}
	return out, nil
}

// LatestCountyYear picks the requested year when present, otherwise the
// maximum year in the data.
func LatestCountyYear(votes []model.CountyVote, year int) int {
	maxYear := 0
	found := false
	for _, v := range votes {
		if v.Year == year {
			found = true
		}
		if v.Year > maxYear {
			maxYear = v.Year
		}
	}
	if found {
		return year
	}
	return maxYear
}

// LoadAdjacency reads the Census county adjacency file with FIPS
// normalization.
func LoadAdjacency(path string) ([]model.CountyAdjacency, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.CountyAdjacency
	for {
		var r model.CountyAdjacency
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "dataset: decode adjacency row")
		}
		r.CountyFIPS = ZeroPadFIPS(r.CountyFIPS)
		r.NeighborFIPS = ZeroPadFIPS(r.NeighborFIPS)
		out = append(out, r)
	}
	return out, nil
}

// LoadBorderLinks reads the curated welfare border county pairs.
func LoadBorderLinks(path string) ([]model.BorderLink, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.BorderLink
	for {
		var r model.BorderLink
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "dataset: decode border link row")
		}
		r.BenefitFIPS = ZeroPadFIPS(r.BenefitFIPS)
		r.NonBenefitFIPS = ZeroPadFIPS(r.NonBenefitFIPS)
		out = append(out, r)
	}
	return out, nil
}

package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civicdata/policy-atlas/internal/model"
)

// openDecoder opens a CSV file and returns a csvutil decoder over it.
// Unknown columns are ignored so curated files can carry extra notes.
func openDecoder(path string) (*csvutil.Decoder, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		f.Close()
		return nil, nil, eris.Wrapf(err, "dataset: read header %s", path)
	}
	return dec, f, nil
}

// LoadPolicies reads state_policies.csv and validates the one-row-per-
// jurisdiction invariant.
func LoadPolicies(path string) ([]model.StatePolicy, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var out []model.StatePolicy
	for {
		var p model.StatePolicy
		if err := dec.Decode(&p); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "dataset: decode policy row %d", len(out)+1)
		}
		p.Abbrev = strings.ToUpper(strings.TrimSpace(p.Abbrev))
		if err := p.Validate(); err != nil {
			return nil, eris.Wrap(err, "dataset: invalid policy row")
		}
		if seen[p.Abbrev] {
			return nil, eris.Errorf("dataset: duplicate state code %s in %s", p.Abbrev, path)
		}
		seen[p.Abbrev] = true
		out = append(out, p)
	}

	zap.L().Debug("loaded state policies",
		zap.String("path", path),
		zap.Int("jurisdictions", len(out)),
	)
	return out, nil
}

// panelRow tolerates both "state" and "state_po" header spellings in the
// presidential panel.
type panelRow struct {
	State    string  `csv:"state"`
	StatePo  string  `csv:"state_po"`
	Year     int     `csv:"year"`
	DemShare float64 `csv:"dem_share"`
}

func (r panelRow) abbrev() string {
	if r.StatePo != "" {
		return strings.ToUpper(r.StatePo)
	}
	return strings.ToUpper(r.State)
}

// LoadElectoralPanel reads the presidential panel and returns the mean
// Democratic share per state for the requested year. A zero year selects
// the latest year present; a year absent from the panel falls back to the
// latest available year. The resolved year is returned.
func LoadElectoralPanel(path string, year int) ([]model.ElectoralResult, int, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var rows []panelRow
	maxYear := 0
	years := make(map[int]bool)
	for {
		var r panelRow
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, eris.Wrap(err, "dataset: decode panel row")
		}
		rows = append(rows, r)
		years[r.Year] = true
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	if len(rows) == 0 {
		return nil, 0, eris.Errorf("dataset: empty electoral panel %s", path)
	}

	if year == 0 || !years[year] {
		if year != 0 {
			zap.L().Warn("requested election year not in panel, using latest",
				zap.Int("requested", year),
				zap.Int("latest", maxYear),
			)
		}
		year = maxYear
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		ab := r.abbrev()
		sums[ab] += r.DemShare
		counts[ab]++
	}

	out := make([]model.ElectoralResult, 0, len(sums))
	for ab, sum := range sums {
		out = append(out, model.ElectoralResult{
			StateAbbr: ab,
			Year:      year,
			DemShare:  sum / float64(counts[ab]),
		})
	}
	return out, year, nil
}

type houseRow struct {
	State            string  `csv:"state"`
	Year             int     `csv:"year"`
	DemTwoPartyShare float64 `csv:"dem_two_party_share"`
}

// LoadHouseElections reads house_elections.csv and returns per-state
// Democratic two-party House shares for the requested year (latest
// available when the requested year is absent or zero).
func LoadHouseElections(path string, year int) ([]model.ElectoralResult, int, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var rows []houseRow
	maxYear := 0
	years := make(map[int]bool)
	for {
		var r houseRow
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, eris.Wrap(err, "dataset: decode house row")
		}
		rows = append(rows, r)
		years[r.Year] = true
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	if len(rows) == 0 {
		return nil, 0, eris.Errorf("dataset: empty house elections file %s", path)
	}
	if year == 0 || !years[year] {
		year = maxYear
	}

	var out []model.ElectoralResult
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		out = append(out, model.ElectoralResult{
			StateAbbr: strings.ToUpper(r.State),
			Year:      year,
			DemShare:  r.DemTwoPartyShare,
		})
	}
	return out, year, nil
}

// LoadUnauthorizedPop reads the unauthorized immigrant population
// estimates, dropping the national "US" aggregate row.
func LoadUnauthorizedPop(path string) ([]model.UnauthorizedPop, error) {
	dec, f, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.UnauthorizedPop
	for {
		var r model.UnauthorizedPop
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "dataset: decode population row")
		}
		r.StateAbbr = strings.ToUpper(strings.TrimSpace(r.StateAbbr))
		if r.StateAbbr == "US" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

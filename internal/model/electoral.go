package model

// ElectoralResult is one state-year observation of the presidential (or
// House) Democratic two-party vote share, in percentage points.
type ElectoralResult struct {
	StateAbbr string  `csv:"state" json:"state"`
	Year      int     `csv:"year" json:"year"`
	DemShare  float64 `csv:"dem_share" json:"dem_share"`
}

// DemWon reports whether the Democratic candidate carried the state.
func (e ElectoralResult) DemWon() bool {
	return e.DemShare >= 50
}

// CandidateLabels returns the display names for the major-party candidates
// in a given presidential election year.
func CandidateLabels(year int) (dem, rep string) {
	switch {
	case year == 2024:
		dem = "Harris"
	case year == 2020:
		dem = "Biden"
	case year == 2016:
		dem = "Clinton"
	default:
		dem = "Dem"
	}
	if year >= 2016 {
		rep = "Trump"
	} else {
		rep = "Rep"
	}
	return dem, rep
}

// UnauthorizedPop holds the estimated unauthorized immigrant population of
// a state, absolute and as a share of total state population.
type UnauthorizedPop struct {
	StateAbbr  string  `csv:"state_abbrev" json:"state_abbrev"`
	Population float64 `csv:"unauthorized_pop" json:"unauthorized_pop"`
	PctOfPop   float64 `csv:"unauthorized_pct" json:"unauthorized_pct"`
}

// CountyVote is one county-year observation of presidential results.
type CountyVote struct {
	FIPS      string  `json:"fips"`
	StateAbbr string  `json:"state"`
	Year      int     `json:"year"`
	DemShare  float64 `json:"dem_share"`
}

// CountyAdjacency is one directed county adjacency edge from the Census
// county adjacency file.
type CountyAdjacency struct {
	CountyFIPS   string `csv:"county_fips" json:"county_fips"`
	NeighborFIPS string `csv:"neighbor_fips" json:"neighbor_fips"`
}

// BorderLink pairs a county in a benefit-offering state with an adjacent
// county across the border in a non-benefit state.
type BorderLink struct {
	BenefitFIPS    string `csv:"benefit_county_fips" json:"benefit_county_fips"`
	NonBenefitFIPS string `csv:"nonbenefit_county_fips" json:"nonbenefit_county_fips"`
}

package analysis

import (
	"sort"

	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
)

// BorderStudy is the set of county pairs straddling a benefit-policy
// state line, plus the counties involved for rendering.
type BorderStudy struct {
	Links    []model.BorderLink
	Counties map[string]bool // county FIPS on either side
}

// stateOfCounty resolves the parent state abbreviation from a 5-digit
// county FIPS.
func stateOfCounty(fips string) string {
	if len(fips) < 2 {
		return ""
	}
	return geodata.AbbrevForFIPS(fips[:2])
}

// BorderSplit names the policy question a border study asks and decides
// which side of the line each state falls on.
type BorderSplit struct {
	Name string
	Fn   func(model.StatePolicy) bool
}

// WelfareBorderSplit divides states by whether they extend any tracked
// benefit to undocumented immigrants.
func WelfareBorderSplit() BorderSplit {
	return BorderSplit{
		Name: "welfare",
		Fn:   func(p model.StatePolicy) bool { return p.HasAnyBenefit() == 1 },
	}
}

// VoterIDBorderSplit divides states by whether voting effectively
// requires identification.
func VoterIDBorderSplit() BorderSplit {
	return BorderSplit{
		Name: "voter_id",
		Fn:   func(p model.StatePolicy) bool { return p.NoEffectiveID() },
	}
}

// FindBorderPairs walks the county adjacency list and keeps the pairs
// whose parent states land on opposite sides of the split. Each
// undirected pair appears once, oriented split-true side first.
func FindBorderPairs(adjacency []model.CountyAdjacency, policies map[string]model.StatePolicy, split BorderSplit) BorderStudy {
	study := BorderStudy{Counties: make(map[string]bool)}
	seen := make(map[string]bool)

	for _, edge := range adjacency {
		a, b := edge.CountyFIPS, edge.NeighborFIPS
		if a == b {
			continue
		}
		sa, sb := stateOfCounty(a), stateOfCounty(b)
		if sa == "" || sb == "" || sa == sb {
			continue
		}
		pa, okA := policies[sa]
		pb, okB := policies[sb]
		if !okA || !okB {
			continue
		}
		inA := split.Fn(pa)
		inB := split.Fn(pb)
		if inA == inB {
			continue
		}

		// Orient the split-true side first and dedupe the reverse edge.
		benefitFIPS, otherFIPS := a, b
		if inB {
			benefitFIPS, otherFIPS = b, a
		}
		key := benefitFIPS + "|" + otherFIPS
		if seen[key] {
			continue
		}
		seen[key] = true

		study.Links = append(study.Links, model.BorderLink{
			BenefitFIPS:    benefitFIPS,
			NonBenefitFIPS: otherFIPS,
		})
		study.Counties[benefitFIPS] = true
		study.Counties[otherFIPS] = true
	}

	sortLinks(study.Links)
	return study
}

// StudyFromLinks builds a border study from curated county pairs, used
// when a hand-checked pair file beats deriving pairs from adjacency.
func StudyFromLinks(links []model.BorderLink) BorderStudy {
	study := BorderStudy{
		Links:    append([]model.BorderLink(nil), links...),
		Counties: make(map[string]bool, 2*len(links)),
	}
	for _, l := range links {
		study.Counties[l.BenefitFIPS] = true
		study.Counties[l.NonBenefitFIPS] = true
	}
	sortLinks(study.Links)
	return study
}

func sortLinks(links []model.BorderLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].BenefitFIPS != links[j].BenefitFIPS {
			return links[i].BenefitFIPS < links[j].BenefitFIPS
		}
		return links[i].NonBenefitFIPS < links[j].NonBenefitFIPS
	})
}

// BorderVoteGap summarizes the Democratic share difference across the
// policy border.
type BorderVoteGap struct {
	Pairs          int
	BenefitMean    float64
	NonBenefitMean float64
	Gap            float64
}

// VoteGap averages county Democratic shares on each side of the border
// pairs. Pairs missing vote data on either side are skipped.
func VoteGap(study BorderStudy, votes map[string]model.CountyVote) BorderVoteGap {
	var gap BorderVoteGap
	var sumBen, sumNon float64
	for _, l := range study.Links {
		vb, okB := votes[l.BenefitFIPS]
		vn, okN := votes[l.NonBenefitFIPS]
		if !okB || !okN {
			continue
		}
		sumBen += vb.DemShare
		sumNon += vn.DemShare
		gap.Pairs++
	}
	if gap.Pairs > 0 {
		gap.BenefitMean = sumBen / float64(gap.Pairs)
		gap.NonBenefitMean = sumNon / float64(gap.Pairs)
		gap.Gap = gap.BenefitMean - gap.NonBenefitMean
	}
	return gap
}

// IndexCountyVotes keys county votes by FIPS, keeping the given year
// when present.
func IndexCountyVotes(votes []model.CountyVote, year int) map[string]model.CountyVote {
	out := make(map[string]model.CountyVote)
	for _, v := range votes {
		if v.Year != year {
			continue
		}
		out[v.FIPS] = v
	}
	return out
}

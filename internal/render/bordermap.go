package render

import (
	"fmt"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
)

func electionTitle(year int) string {
	dem, rep := model.CandidateLabels(year)
	return fmt.Sprintf("%d Presidential Result (%s vs %s)", year, dem, rep)
}

func alignSubtitle(al analysis.Alignment) string {
	return fmt.Sprintf("%.0f%% of jurisdictions aligned", al.MatchPct)
}

// BorderCountyMap draws the counties straddling a policy border, filled
// by their Democratic vote share, over the gray state frame. The title
// names which policy line the study follows.
func BorderCountyMap(
	stateRows []analysis.StateRow,
	counties []geodata.ProjectedShape,
	study analysis.BorderStudy,
	votes map[string]model.CountyVote,
	year int,
	title string,
	path string,
) error {
	p := plot.New()
	gap := analysis.VoteGap(study, votes)
	p.Title.Text = fmt.Sprintf(
		"%s\n%d pairs with %d vote data, Democratic share gap: %+.1f pts",
		title, gap.Pairs, year, gap.Gap,
	)
	p.Title.TextStyle.Font.Size = vg.Points(titleSize)
	p.HideAxes()

	// Gray state background first so border counties draw on top.
	for _, r := range stateRows {
		for _, ring := range r.Shape.Rings {
			poly, err := plotter.NewPolygon(ringXYs(ring))
			if err != nil {
				return eris.Wrapf(err, "render: state backdrop %s", r.Abbrev)
			}
			poly.Color = FillGray
			poly.LineStyle.Color = BorderGray
			poly.LineStyle.Width = vg.Points(stateLineW)
			p.Add(poly)
		}
	}

	legendDem, legendRep := false, false
	for _, c := range counties {
		if !study.Counties[c.Key] {
			continue
		}
		vote, ok := votes[c.Key]
		if !ok {
			continue
		}
		for _, ring := range c.Rings {
			poly, err := plotter.NewPolygon(ringXYs(ring))
			if err != nil {
				return eris.Wrapf(err, "render: county %s", c.Key)
			}
			poly.Color = DemShareColor(vote.DemShare)
			poly.LineStyle.Color = BorderGray
			poly.LineStyle.Width = vg.Points(0.3)
			p.Add(poly)

			if vote.DemShare >= 50 && !legendDem {
				legendDem = true
				p.Legend.Add("Democratic county", poly)
			}
			if vote.DemShare < 50 && !legendRep {
				legendRep = true
				p.Legend.Add("Republican county", poly)
			}
		}
	}
	p.Legend.Left = true

	frameBounds(p, stateRows)
	if err := p.Save(mapWidth, MapHeight(stateRows, mapWidth), path); err != nil {
		return eris.Wrapf(err, "render: save border map %s", path)
	}
	return nil
}

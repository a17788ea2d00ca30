package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/civicdata/policy-atlas/internal/analysis"
)

// PanelSpec is one tile in a composite figure.
type PanelSpec struct {
	Fill     FillFunc
	Title    string
	Subtitle string
}

// SavePanels lays out map panels in a grid and writes one PNG. The
// three-panel policy figure uses a single row; the combined figure with
// the election layer uses a 2x2 grid.
func SavePanels(rows []analysis.StateRow, specs []PanelSpec, cols int, path string) error {
	if len(specs) == 0 {
		return eris.New("render: no panels to draw")
	}
	if cols <= 0 {
		cols = len(specs)
	}
	nrows := (len(specs) + cols - 1) / cols

	plots := make([][]*plot.Plot, nrows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}
	for i, spec := range specs {
		p, err := StateMap(rows, spec.Fill, spec.Title, spec.Subtitle)
		if err != nil {
			return err
		}
		plots[i/cols][i%cols] = p
	}

	panelW := 8 * vg.Inch
	panelH := MapHeight(rows, panelW)
	img := vgimg.New(panelW*vg.Length(cols), panelH*vg.Length(nrows))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: nrows,
		Cols: cols,
		PadX: vg.Points(8),
		PadY: vg.Points(8),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	return nil
}

// PolicyPanels is the headline three-panel figure: voter-ID policy,
// benefit policy, and their alignment.
func PolicyPanels(rows []analysis.StateRow, path string) error {
	al := analysis.Align(rows, analysis.StrictID(), analysis.OffersBenefits(), true)
	specs := []PanelSpec{
		{
			Fill:  TwoClassFill(analysis.StrictID(), RedVivid, BlueVivid),
			Title: "Voter ID Requirement",
		},
		{
			Fill:  TwoClassFill(analysis.OffersBenefits(), BlueVivid, RedVivid),
			Title: "Benefits for Undocumented Immigrants",
		},
		{
			Fill:     MatchFill(al),
			Title:    "Policy Alignment",
			Subtitle: alignSubtitle(al),
		},
	}
	return SavePanels(rows, specs, 3, path)
}

// HighContrastPanels pairs one policy layer with the election result:
// the indicator map, the vote map, and their alignment. invert negates
// the vote side of the match, for indicators that align with Republican
// rather than Democratic wins.
func HighContrastPanels(rows []analysis.StateRow, c analysis.Classifier, trueColor, falseColor color.Color, year int, invert bool, title, path string) error {
	al := analysis.Align(rows, c, analysis.DemCarried(), invert)
	specs := []PanelSpec{
		{
			Fill:  TwoClassFill(c, trueColor, falseColor),
			Title: title,
		},
		{
			Fill:  DemShareFill(),
			Title: electionTitle(year),
		},
		{
			Fill:     MatchFill(al),
			Title:    fmt.Sprintf("Alignment with the %d Result", year),
			Subtitle: alignSubtitle(al),
		},
	}
	return SavePanels(rows, specs, 3, path)
}

// CombinedPanels adds the presidential-result layer as a fourth panel.
func CombinedPanels(rows []analysis.StateRow, year int, path string) error {
	al := analysis.Align(rows, analysis.StrictID(), analysis.OffersBenefits(), true)
	specs := []PanelSpec{
		{
			Fill:  TwoClassFill(analysis.StrictID(), RedVivid, BlueVivid),
			Title: "Voter ID Requirement",
		},
		{
			Fill:  TwoClassFill(analysis.OffersBenefits(), BlueVivid, RedVivid),
			Title: "Benefits for Undocumented Immigrants",
		},
		{
			Fill:  DemShareFill(),
			Title: electionTitle(year),
		},
		{
			Fill:     MatchFill(al),
			Title:    "Policy Alignment",
			Subtitle: alignSubtitle(al),
		},
	}
	return SavePanels(rows, specs, 2, path)
}

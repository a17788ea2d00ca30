package render

import (
	"fmt"
	"image/color"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
)

// mapAspect keeps saved maps at the projected frame's width:height ratio.
const (
	mapWidth   = 12 * vg.Inch
	boundsPad  = 0.03
	stateLineW = 0.6
	labelSize  = 9
	titleSize  = 15
)

// FillFunc chooses a fill color and legend class for one state.
type FillFunc func(r analysis.StateRow) (color.Color, string)

// TwoClassFill builds a FillFunc from a classifier and two colors.
func TwoClassFill(c analysis.Classifier, trueColor, falseColor color.Color) FillFunc {
	return func(r analysis.StateRow) (color.Color, string) {
		if c.Fn(r) {
			return trueColor, c.TrueLabel
		}
		return falseColor, c.FalseName
	}
}

// MatchFill colors states by agreement between two policy dimensions.
func MatchFill(al analysis.Alignment) FillFunc {
	return func(r analysis.StateRow) (color.Color, string) {
		if al.Matches[r.Abbrev] {
			return GreenMatch, "Aligned"
		}
		return OrangeMismatch, "Not Aligned"
	}
}

// TierFill colors states by the five-tier strictness gradient.
func TierFill() FillFunc {
	return func(r analysis.StateRow) (color.Color, string) {
		tier := r.Policy.IDStrictness
		if tier < model.TierStrictPhoto || tier > model.TierNoDocument {
			return FillGray, "No Data"
		}
		return TierBlues[tier-1], model.TierLabel(tier)
	}
}

// DemShareFill colors states on the diverging partisan ramp; states
// without election data render gray.
func DemShareFill() FillFunc {
	return func(r analysis.StateRow) (color.Color, string) {
		if !r.HasElection {
			return FillGray, "No Data"
		}
		if r.DemShare >= 50 {
			return DemShareColor(r.DemShare), "Democratic"
		}
		return DemShareColor(r.DemShare), "Republican"
	}
}

// StateMap draws one choropleth layer over the full state frame.
func StateMap(rows []analysis.StateRow, fill FillFunc, title, subtitle string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	if subtitle != "" {
		p.Title.Text = title + "\n" + subtitle
	}
	p.Title.TextStyle.Font.Size = vg.Points(titleSize)
	p.HideAxes()

	legendSeen := make(map[string]bool)
	var labelXYs plotter.XYs
	var labelTexts []string

	for _, r := range rows {
		fillColor, class := fill(r)
		for _, ring := range r.Shape.Rings {
			poly, err := plotter.NewPolygon(ringXYs(ring))
			if err != nil {
				return nil, eris.Wrapf(err, "render: polygon for %s", r.Abbrev)
			}
			poly.Color = fillColor
			poly.LineStyle.Color = BorderGray
			poly.LineStyle.Width = vg.Points(stateLineW)
			p.Add(poly)

			if !legendSeen[class] {
				legendSeen[class] = true
				p.Legend.Add(class, poly)
			}
		}

		cx, cy := r.Shape.Centroid()
		labelXYs = append(labelXYs, plotter.XY{X: cx, Y: cy})
		labelTexts = append(labelTexts, r.Abbrev)
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelTexts})
	if err != nil {
		return nil, eris.Wrap(err, "render: state labels")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(labelSize)
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	p.Legend.Top = false
	p.Legend.Left = true

	frameBounds(p, rows)
	return p, nil
}

// MatchMap is the agreement layer with the match share in the subtitle.
func MatchMap(rows []analysis.StateRow, al analysis.Alignment, title string) (*plot.Plot, error) {
	sub := fmt.Sprintf("%.0f%% of jurisdictions aligned", al.MatchPct)
	return StateMap(rows, MatchFill(al), title, sub)
}

func ringXYs(r geodata.Ring) plotter.XYs {
	xys := make(plotter.XYs, len(r.X))
	for i := range r.X {
		xys[i].X = r.X[i]
		xys[i].Y = r.Y[i]
	}
	return xys
}

func frameBounds(p *plot.Plot, rows []analysis.StateRow) {
	shapes := make([]geodata.ProjectedShape, len(rows))
	for i, r := range rows {
		shapes[i] = r.Shape
	}
	minX, minY, maxX, maxY := geodata.Bounds(shapes)
	padX := (maxX - minX) * boundsPad
	padY := (maxY - minY) * boundsPad
	p.X.Min, p.X.Max = minX-padX, maxX+padX
	p.Y.Min, p.Y.Max = minY-padY, maxY+padY
}

// MapHeight returns the save height preserving the frame's aspect ratio.
func MapHeight(rows []analysis.StateRow, width vg.Length) vg.Length {
	shapes := make([]geodata.ProjectedShape, len(rows))
	for i, r := range rows {
		shapes[i] = r.Shape
	}
	minX, minY, maxX, maxY := geodata.Bounds(shapes)
	if maxX <= minX {
		return width
	}
	h := width * vg.Length((maxY-minY)/(maxX-minX))
	// Leave room for title and legend.
	return h + 1*vg.Inch
}

// SaveMatchMap writes the standalone alignment figure.
func SaveMatchMap(rows []analysis.StateRow, al analysis.Alignment, title, path string) error {
	p, err := MatchMap(rows, al, title)
	if err != nil {
		return err
	}
	if err := p.Save(mapWidth, MapHeight(rows, mapWidth), path); err != nil {
		return eris.Wrapf(err, "render: save map %s", path)
	}
	return nil
}

// SaveMap writes a single map figure to a PNG.
func SaveMap(rows []analysis.StateRow, fill FillFunc, title, subtitle, path string) error {
	p, err := StateMap(rows, fill, title, subtitle)
	if err != nil {
		return err
	}
	if err := p.Save(mapWidth, MapHeight(rows, mapWidth), path); err != nil {
		return eris.Wrapf(err, "render: save map %s", path)
	}
	return nil
}

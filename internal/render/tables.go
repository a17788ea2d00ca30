package render

import (
	"fmt"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/stats"
)

// tableImage renders a header row plus data rows as a PNG figure. Cells
// are laid out on a unit grid with the header shaded.
func tableImage(title string, headers []string, rows [][]string, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()

	ncols := len(headers)
	nrows := len(rows) + 1 // header
	if ncols == 0 || len(rows) == 0 {
		return eris.New("render: empty table")
	}

	// Header band.
	band, err := plotter.NewPolygon(plotter.XYs{
		{X: 0, Y: float64(nrows - 1)},
		{X: float64(ncols), Y: float64(nrows - 1)},
		{X: float64(ncols), Y: float64(nrows)},
		{X: 0, Y: float64(nrows)},
	})
	if err != nil {
		return eris.Wrap(err, "render: table header band")
	}
	band.Color = BlueLight
	band.LineStyle.Color = BorderGray
	band.LineStyle.Width = vg.Points(0.5)
	p.Add(band)

	// Grid lines.
	for i := 0; i <= nrows; i++ {
		line, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: float64(i)},
			{X: float64(ncols), Y: float64(i)},
		})
		if err != nil {
			return eris.Wrap(err, "render: table rule")
		}
		line.Color = BorderGray
		line.Width = vg.Points(0.5)
		p.Add(line)
	}
	for j := 0; j <= ncols; j++ {
		line, err := plotter.NewLine(plotter.XYs{
			{X: float64(j), Y: 0},
			{X: float64(j), Y: float64(nrows)},
		})
		if err != nil {
			return eris.Wrap(err, "render: table rule")
		}
		line.Color = BorderGray
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	var xys plotter.XYs
	var texts []string
	var headerIdx []int
	cell := func(col, rowFromTop int, text string, header bool) {
		xys = append(xys, plotter.XY{
			X: float64(col) + 0.5,
			Y: float64(nrows-rowFromTop) - 0.5,
		})
		texts = append(texts, text)
		if header {
			headerIdx = append(headerIdx, len(texts)-1)
		}
	}

	for j, h := range headers {
		cell(j, 0, h, true)
	}
	for i, row := range rows {
		for j := 0; j < ncols && j < len(row); j++ {
			cell(j, i+1, row[j], false)
		}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return eris.Wrap(err, "render: table cells")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(10)
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	for _, i := range headerIdx {
		labels.TextStyle[i].Font.Size = vg.Points(11)
		labels.TextStyle[i].Color = BlueDark
	}
	p.Add(labels)

	p.X.Min, p.X.Max = -0.1, float64(ncols)+0.1
	p.Y.Min, p.Y.Max = -0.1, float64(nrows)+0.1

	width := vg.Length(ncols) * 1.8 * vg.Inch
	height := vg.Length(nrows)*0.4*vg.Inch + 0.8*vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return eris.Wrapf(err, "render: save table %s", path)
	}
	return nil
}

// GroupSummaryTable renders the two-group summary statistics.
func GroupSummaryTable(groups []dataset.GroupSummary, path string) error {
	headers := []string{"Group", "States", "Mean", "Median", "Std Dev"}
	var rows [][]string
	for _, g := range groups {
		rows = append(rows, []string{
			string(g.Policy),
			fmt.Sprintf("%d", g.NStates),
			fmt.Sprintf("%.2f", g.AdultsScoreMean),
			fmt.Sprintf("%.1f", g.AdultsScoreMedian),
			fmt.Sprintf("%.2f", g.AdultsScoreStd),
		})
	}
	return tableImage("Welfare-Benefit Score by Voter-ID Group", headers, rows, path)
}

// BenefitComparisonTable renders the per-benefit odds ratios and
// Fisher exact p-values.
func BenefitComparisonTable(comparisons []stats.BenefitComparison, path string) error {
	headers := []string{"Benefit", "No ID (%)", "ID Req (%)", "Odds Ratio", "Fisher p", "Sig"}
	var rows [][]string
	for _, c := range comparisons {
		rows = append(rows, []string{
			c.Benefit.Label(),
			fmt.Sprintf("%.1f", c.NoIDPct),
			fmt.Sprintf("%.1f", c.IDReqPct),
			fmt.Sprintf("%.2f", c.OddsRatio),
			fmt.Sprintf("%.4f", c.PValue),
			stats.SignificanceStars(c.PValue),
		})
	}
	return tableImage("Benefit Availability by Voter-ID Group", headers, rows, path)
}

// TierGradientTable renders the five-tier gradient.
func TierGradientTable(gradient []stats.TierRow, path string) error {
	headers := []string{"Tier", "Classification", "States", "Mean Score", "Any Health (%)"}
	var rows [][]string
	for _, r := range gradient {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Tier),
			r.Label,
			fmt.Sprintf("%d", r.NStates),
			fmt.Sprintf("%.2f", r.AvgWelfare),
			fmt.Sprintf("%.0f", r.BenefitPct[model.BenefitAnyHealth]),
		})
	}
	return tableImage("Benefit Gradient Across Strictness Tiers", headers, rows, path)
}

// TrendTable renders the logistic trend tests.
func TrendTable(trends []stats.TrendResult, path string) error {
	headers := []string{"Benefit", "Slope", "Std Err", "p (trend)", "Sig"}
	var rows [][]string
	for _, t := range trends {
		if !t.Converged {
			rows = append(rows, []string{t.Benefit.Label(), "-", "-", "n/a", ""})
			continue
		}
		rows = append(rows, []string{
			t.Benefit.Label(),
			fmt.Sprintf("%+.3f", t.Slope),
			fmt.Sprintf("%.3f", t.StdErr),
			fmt.Sprintf("%.4f", t.PTrend),
			stats.SignificanceStars(t.PTrend),
		})
	}
	return tableImage("Trend Tests Across Strictness Tiers", headers, rows, path)
}

// StateDetailTable renders the full per-state dataset.
func StateDetailTable(policies []model.StatePolicy, path string) error {
	headers := []string{"State", "Tier", "Group", "Health", "Food", "Cash", "EITC", "Score"}
	yn := func(v int) string {
		if v == 1 {
			return "Yes"
		}
		return "-"
	}
	var rows [][]string
	for _, p := range policies {
		rows = append(rows, []string{
			p.Abbrev,
			fmt.Sprintf("%d", p.IDStrictness),
			string(p.Policy()),
			yn(p.HasAnyHealth()),
			yn(p.Food),
			yn(p.Cash),
			yn(p.EITC),
			fmt.Sprintf("%d", p.WelfareScoreAdults()),
		})
	}
	return tableImage("State Policy Detail", headers, rows, path)
}

// ContingencyTableImage renders one 2x2 table.
func ContingencyTableImage(benefit model.BenefitColumn, t stats.ContingencyTable, path string) error {
	headers := []string{"", "Has " + benefit.Label(), "No " + benefit.Label()}
	rows := [][]string{
		{string(model.PolicyNoIDRequired), fmt.Sprintf("%d", t.A), fmt.Sprintf("%d", t.B)},
		{string(model.PolicyIDRequired), fmt.Sprintf("%d", t.C), fmt.Sprintf("%d", t.D)},
	}
	title := fmt.Sprintf("%s: OR %.2f, Fisher p %.4f", benefit.Label(), t.OddsRatio(), t.FisherExact())
	return tableImage(title, headers, rows, path)
}

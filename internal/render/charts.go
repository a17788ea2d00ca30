package render

import (
	"fmt"
	"image/color"
	"os"

	"github.com/rotisserie/eris"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/stats"
)

func drawingColor(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func barStyle(c color.RGBA) chart.Style {
	return chart.Style{
		FillColor:   drawingColor(c),
		StrokeColor: drawingColor(c),
		StrokeWidth: 0,
	}
}

func renderBarChart(bc chart.BarChart, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := bc.Render(chart.PNG, f); err != nil {
		return eris.Wrapf(err, "render: chart %s", path)
	}
	return nil
}

// BenefitComparisonChart draws paired bars per benefit: the share of
// states offering it in each voter-ID group, with significance stars.
func BenefitComparisonChart(comparisons []stats.BenefitComparison, path string) error {
	var bars []chart.Value
	for _, c := range comparisons {
		label := c.Benefit.Label()
		if stars := stats.SignificanceStars(c.PValue); stars != "" {
			label += " " + stars
		}
		bars = append(bars,
			chart.Value{
				Label: label,
				Value: c.NoIDPct,
				Style: barStyle(ChartBlue),
			},
			chart.Value{
				Label: "",
				Value: c.IDReqPct,
				Style: barStyle(ChartMagenta),
			},
			// Spacer separating benefit groups.
			chart.Value{Label: "", Value: 0, Style: chart.Style{Hidden: true}},
		)
	}

	bc := chart.BarChart{
		Title:    "Benefit Availability by Voter-ID Group (blue: no ID, magenta: ID required)",
		Width:    1400,
		Height:   700,
		BarWidth: 34,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name:  "Share of states (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}
	return renderBarChart(bc, path)
}

// WelfareScoreChart draws the mean adult welfare score of the two groups.
func WelfareScoreChart(groups []dataset.GroupSummary, path string) error {
	var bars []chart.Value
	for _, g := range groups {
		style := barStyle(ChartMagenta)
		if g.Policy == model.PolicyNoIDRequired {
			style = barStyle(ChartBlue)
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (n=%d)", g.Policy, g.NStates),
			Value: g.AdultsScoreMean,
			Style: style,
		})
	}

	bc := chart.BarChart{
		Title:    "Mean Welfare-Benefit Score for Undocumented Adults (0-3)",
		Width:    900,
		Height:   600,
		BarWidth: 120,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name:  "Mean score",
			Range: &chart.ContinuousRange{Min: 0, Max: 3},
		},
		Bars: bars,
	}
	return renderBarChart(bc, path)
}

// TierGradientChart draws mean welfare score across the five strictness
// tiers on the sequential blue ramp.
func TierGradientChart(gradient []stats.TierRow, path string) error {
	var bars []chart.Value
	for _, row := range gradient {
		c := ChartBlue
		if row.Tier >= model.TierStrictPhoto && row.Tier <= model.TierNoDocument {
			c = TierBlues[row.Tier-1]
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("Tier %d (n=%d)", row.Tier, row.NStates),
			Value: row.AvgWelfare,
			Style: barStyle(c),
		})
	}

	bc := chart.BarChart{
		Title:    "Welfare-Benefit Score by Voter-ID Strictness Tier",
		Width:    1000,
		Height:   600,
		BarWidth: 90,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name:  "Mean score (0-3)",
			Range: &chart.ContinuousRange{Min: 0, Max: 3},
		},
		Bars: bars,
	}
	return renderBarChart(bc, path)
}

// PolicyGapChart draws paired mean Democratic-share bars for each policy
// split. source labels the vote series, e.g. "2024 Presidential".
func PolicyGapChart(gaps []dataset.PolicyVoteGap, source, path string) error {
	var bars []chart.Value
	for _, g := range gaps {
		bars = append(bars,
			chart.Value{
				Label: fmt.Sprintf("%s (gap %+.1f)", g.Split, g.InMean-g.OutMean),
				Value: g.InMean,
				Style: barStyle(ChartBlue),
			},
			chart.Value{
				Label: "",
				Value: g.OutMean,
				Style: barStyle(ChartMagenta),
			},
			chart.Value{Label: "", Value: 0, Style: chart.Style{Hidden: true}},
		)
	}

	bc := chart.BarChart{
		Title:    fmt.Sprintf("Mean %s Democratic Share by Policy (blue: policy present, magenta: absent)", source),
		Width:    1100,
		Height:   600,
		BarWidth: 70,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name:  "Mean Democratic share (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}
	return renderBarChart(bc, path)
}

package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/policy-atlas/internal/analysis"
	"github.com/civicdata/policy-atlas/internal/dataset"
	"github.com/civicdata/policy-atlas/internal/geodata"
	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/stats"
)

func square(x, y, size float64) geodata.Ring {
	return geodata.Ring{
		X: []float64{x, x + size, x + size, x},
		Y: []float64{y, y, y + size, y + size},
	}
}

func testRows() []analysis.StateRow {
	mk := func(abbrev, fips string, x float64, p model.StatePolicy, dem float64) analysis.StateRow {
		return analysis.StateRow{
			Abbrev:      abbrev,
			FIPS:        fips,
			Shape:       geodata.ProjectedShape{Key: abbrev, FIPS: fips, Rings: []geodata.Ring{square(x, 0, 100)}},
			Policy:      p,
			HasPolicy:   true,
			DemShare:    dem,
			HasElection: true,
		}
	}
	return []analysis.StateRow{
		mk("CA", "06", 0, model.StatePolicy{Abbrev: "CA", IDStrictness: 5, HealthAdults: 1, Food: 1, EITC: 1}, 58.5),
		mk("TX", "48", 150, model.StatePolicy{Abbrev: "TX", IDStrictness: 1}, 42.4),
		mk("WA", "53", 300, model.StatePolicy{Abbrev: "WA", IDStrictness: 2, HealthAdults: 1}, 57.2),
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestLerp(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}

	assert.Equal(t, white, Lerp(white, black, 0))
	assert.Equal(t, black, Lerp(white, black, 1))

	mid := Lerp(white, black, 0.5)
	assert.InDelta(t, 127, int(mid.R), 1)

	// Out-of-range t clamps.
	assert.Equal(t, black, Lerp(white, black, 2))
}

func TestDemShareColor(t *testing.T) {
	blue := DemShareColor(75)
	assert.Equal(t, BlueVivid, blue)

	red := DemShareColor(25)
	assert.Equal(t, RedVivid, red)

	center := DemShareColor(50)
	assert.Greater(t, int(center.R), 0xe0)
}

func TestStateMap(t *testing.T) {
	rows := testRows()
	p, err := StateMap(rows, TwoClassFill(analysis.StrictID(), RedVivid, BlueVivid), "Voter ID", "")
	require.NoError(t, err)
	assert.Equal(t, "Voter ID", p.Title.Text)

	path := filepath.Join(t.TempDir(), "map.png")
	require.NoError(t, p.Save(mapWidth, MapHeight(rows, mapWidth), path))
	assertPNG(t, path)
}

func TestSaveMap_TierFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.png")
	require.NoError(t, SaveMap(testRows(), TierFill(), "Strictness Tiers", "", path))
	assertPNG(t, path)
}

func TestPolicyPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panels.png")
	require.NoError(t, PolicyPanels(testRows(), path))
	assertPNG(t, path)
}

func TestCombinedPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.png")
	require.NoError(t, CombinedPanels(testRows(), 2024, path))
	assertPNG(t, path)
}

func TestHighContrastPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highcontrast.png")
	err := HighContrastPanels(testRows(), analysis.StrictID(),
		RedVivid, BlueVivid, 2024, true, "Voter ID Requirement", path)
	require.NoError(t, err)
	assertPNG(t, path)
}

func TestSaveMatchMap(t *testing.T) {
	rows := testRows()
	al := analysis.Align(rows, analysis.StrictID(), analysis.OffersBenefits(), true)
	path := filepath.Join(t.TempDir(), "alignment.png")
	require.NoError(t, SaveMatchMap(rows, al, "Policy Alignment", path))
	assertPNG(t, path)
}

func TestBorderCountyMap(t *testing.T) {
	counties := []geodata.ProjectedShape{
		{Key: "06035", FIPS: "06", Rings: []geodata.Ring{square(90, 40, 20)}},
		{Key: "32031", FIPS: "32", Rings: []geodata.Ring{square(115, 40, 20)}},
	}
	study := analysis.BorderStudy{
		Links:    []model.BorderLink{{BenefitFIPS: "06035", NonBenefitFIPS: "32031"}},
		Counties: map[string]bool{"06035": true, "32031": true},
	}
	votes := map[string]model.CountyVote{
		"06035": {FIPS: "06035", DemShare: 41},
		"32031": {FIPS: "32031", DemShare: 52},
	}

	path := filepath.Join(t.TempDir(), "border.png")
	require.NoError(t, BorderCountyMap(testRows(), counties, study, votes, 2024, "Counties Along Welfare-Benefit Borders", path))
	assertPNG(t, path)
}

func TestBenefitComparisonChart(t *testing.T) {
	comparisons := []stats.BenefitComparison{
		{Benefit: model.BenefitAnyHealth, NoIDPct: 70, IDReqPct: 15, OddsRatio: 13.2, PValue: 0.0002},
		{Benefit: model.BenefitFood, NoIDPct: 40, IDReqPct: 5, OddsRatio: 12.7, PValue: 0.01},
	}
	path := filepath.Join(t.TempDir(), "benefits.png")
	require.NoError(t, BenefitComparisonChart(comparisons, path))
	assertPNG(t, path)
}

func TestWelfareScoreChart(t *testing.T) {
	groups := []dataset.GroupSummary{
		{Policy: model.PolicyNoIDRequired, NStates: 15, AdultsScoreMean: 1.6},
		{Policy: model.PolicyIDRequired, NStates: 36, AdultsScoreMean: 0.3},
	}
	path := filepath.Join(t.TempDir(), "scores.png")
	require.NoError(t, WelfareScoreChart(groups, path))
	assertPNG(t, path)
}

func TestTierGradientChart(t *testing.T) {
	gradient := []stats.TierRow{
		{Tier: 1, NStates: 9, AvgWelfare: 0.2},
		{Tier: 3, NStates: 12, AvgWelfare: 0.6},
		{Tier: 5, NStates: 14, AvgWelfare: 1.8},
	}
	path := filepath.Join(t.TempDir(), "gradient.png")
	require.NoError(t, TierGradientChart(gradient, path))
	assertPNG(t, path)
}

func TestTables(t *testing.T) {
	dir := t.TempDir()

	groups := []dataset.GroupSummary{
		{Policy: model.PolicyNoIDRequired, NStates: 15, AdultsScoreMean: 1.6, AdultsScoreMedian: 2, AdultsScoreStd: 1.1},
		{Policy: model.PolicyIDRequired, NStates: 36, AdultsScoreMean: 0.3, AdultsScoreMedian: 0, AdultsScoreStd: 0.6},
	}
	summaryPath := filepath.Join(dir, "summary.png")
	require.NoError(t, GroupSummaryTable(groups, summaryPath))
	assertPNG(t, summaryPath)

	comparisons := []stats.BenefitComparison{
		{Benefit: model.BenefitFood, NoIDPct: 40, IDReqPct: 5, OddsRatio: 12.7, PValue: 0.004},
	}
	cmpPath := filepath.Join(dir, "comparison.png")
	require.NoError(t, BenefitComparisonTable(comparisons, cmpPath))
	assertPNG(t, cmpPath)

	trends := []stats.TrendResult{
		{Benefit: model.BenefitFood, Slope: 0.9, StdErr: 0.3, PTrend: 0.004, Converged: true},
		{Benefit: model.BenefitCash, Converged: false, PTrend: 1},
	}
	trendPath := filepath.Join(dir, "trend.png")
	require.NoError(t, TrendTable(trends, trendPath))
	assertPNG(t, trendPath)

	detailPath := filepath.Join(dir, "detail.png")
	policies := []model.StatePolicy{
		{State: "California", Abbrev: "CA", IDStrictness: 5, HealthAdults: 1, Food: 1, EITC: 1},
		{State: "Texas", Abbrev: "TX", IDStrictness: 1},
	}
	require.NoError(t, StateDetailTable(policies, detailPath))
	assertPNG(t, detailPath)

	ctPath := filepath.Join(dir, "contingency.png")
	require.NoError(t, ContingencyTableImage(model.BenefitFood, stats.ContingencyTable{A: 6, B: 9, C: 1, D: 35}, ctPath))
	assertPNG(t, ctPath)
}

func TestTableImage_Empty(t *testing.T) {
	err := tableImage("Empty", nil, nil, filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
}

func TestManifestRoundTrip(t *testing.T) {
	m := &Manifest{RunID: "run-1", Year: 2024}
	m.Add("policy_panels", "figures/policy_panels.png", "map", "Three-panel policy maps")
	m.Add("key_findings", "figures/key_findings.txt", "narrative", "")

	path := filepath.Join(t.TempDir(), "figures.yaml")
	require.NoError(t, m.Write(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	require.Len(t, loaded.Figures, 2)
	assert.Equal(t, "map", loaded.Figures[0].Kind)
}

func TestNewManifest_Stamped(t *testing.T) {
	m := NewManifest("run-3", 2024)
	assert.Equal(t, "run-3", m.RunID)
	assert.False(t, m.GeneratedAt.IsZero())
}

func TestManifestDisabled(t *testing.T) {
	m := &Manifest{RunID: "run-2", Year: 2020}
	m.Add("policy_panels", "figures/policy_panels.png", "map", "")
	m.Add("workbook", "figures/report.xlsx", "export", "")
	m.Figures[1].Disabled = true

	path := filepath.Join(t.TempDir(), "figures.yaml")
	require.NoError(t, m.Write(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2020, loaded.Year)
	assert.False(t, loaded.Disabled("policy_panels"))
	assert.True(t, loaded.Disabled("workbook"))
	assert.False(t, loaded.Disabled("never_heard_of_it"))
}

func TestPolicyGapChart(t *testing.T) {
	gaps := []dataset.PolicyVoteGap{
		{Split: "No Effective Voter ID", InMean: 57.2, OutMean: 41.8, InN: 29, OutN: 22},
		{Split: "Benefits Offered", InMean: 58.9, OutMean: 43.1, InN: 17, OutN: 34},
	}
	path := filepath.Join(t.TempDir(), "gap.png")
	require.NoError(t, PolicyGapChart(gaps, "2024 Presidential", path))
	assertPNG(t, path)
}

package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/civicdata/policy-atlas/internal/model"
	"github.com/civicdata/policy-atlas/internal/stats"
)

func fixturePolicies() []model.StatePolicy {
	return []model.StatePolicy{
		{State: "California", Abbrev: "CA", IDStrictness: 5, HealthAdults: 1, HealthChildren: 1, Food: 1, EITC: 1},
		{State: "Oregon", Abbrev: "OR", IDStrictness: 5, HealthAdults: 1, Food: 1, EITC: 1},
		{State: "Nevada", Abbrev: "NV", IDStrictness: 4, HealthChildren: 1},
		{State: "New York", Abbrev: "NY", IDStrictness: 5, HealthAdults: 1, EITC: 1},
		{State: "Texas", Abbrev: "TX", IDStrictness: 1},
		{State: "Georgia", Abbrev: "GA", IDStrictness: 1},
		{State: "Indiana", Abbrev: "IN", IDStrictness: 1},
		{State: "Wisconsin", Abbrev: "WI", IDStrictness: 2},
		{State: "Montana", Abbrev: "MT", IDStrictness: 2},
		{State: "Florida", Abbrev: "FL", IDStrictness: 3, HealthChildren: 1},
	}
}

func TestWorkbook(t *testing.T) {
	policies := fixturePolicies()
	report := stats.BuildReport(policies)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Workbook(report, policies, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	for _, name := range []string{"Group Summary", "Benefit Comparison", "Tier Gradient", "Trend Tests", "State Detail"} {
		_, ok := f.Sheet[name]
		assert.True(t, ok, "missing sheet %s", name)
	}

	detail := f.Sheet["State Detail"]
	// Header plus one row per state.
	require.Len(t, detail.Rows, len(policies)+1)
	assert.Equal(t, "State", detail.Rows[0].Cells[0].String())
	assert.Equal(t, "California", detail.Rows[1].Cells[0].String())

	cmp := f.Sheet["Benefit Comparison"]
	require.Greater(t, len(cmp.Rows), 1)
	assert.Equal(t, "Benefit", cmp.Rows[0].Cells[0].String())
}

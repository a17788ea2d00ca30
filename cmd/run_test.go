package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdata/policy-atlas/internal/render"
)

func TestFilterJobs(t *testing.T) {
	jobs := []figureJob{
		{name: "policy_panels", file: "policy_panels.png", kind: "map"},
		{name: "workbook", file: "report.xlsx", kind: "export"},
		{name: "key_findings", file: "key_findings.txt", kind: "narrative"},
	}
	prior := &render.Manifest{Year: 2020, Figures: []render.Figure{
		{Name: "policy_panels", Path: "figures/policy_panels.png", Kind: "map"},
		{Name: "workbook", Path: "figures/report.xlsx", Kind: "export", Disabled: true},
	}}

	kept, disabled := filterJobs(jobs, prior)
	require.Len(t, kept, 2)
	assert.Equal(t, "policy_panels", kept[0].name)
	assert.Equal(t, "key_findings", kept[1].name)

	// The disabled entry survives so the next manifest keeps the switch.
	require.Len(t, disabled, 1)
	assert.Equal(t, "workbook", disabled[0].Name)
	assert.True(t, disabled[0].Disabled)
}

func TestFilterJobs_NoManifest(t *testing.T) {
	jobs := []figureJob{{name: "policy_panels"}}

	kept, disabled := filterJobs(jobs, nil)
	assert.Len(t, kept, 1)
	assert.Empty(t, disabled)
}

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/civicdata/policy-atlas/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abcdef"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "aaaabbbb-cccc-dddd-eeee-ffffffffffff",
			Year:      2024,
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{Jurisdictions: 51},
			CreatedAt: created,
			UpdatedAt: created.Add(42 * time.Second),
		},
		{
			ID:        "11112222-3333-4444-5555-666677778888",
			Year:      2020,
			Status:    model.RunStatusFailed,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "aaaabbbb")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "51")
	assert.Contains(t, out, "2026-08-01 09:30")
	assert.Contains(t, out, "42s")
	assert.Contains(t, out, "failed")
	// Full UUIDs are truncated for display.
	assert.NotContains(t, out, "ffffffffffff")
}

func TestFormatArtifactsList(t *testing.T) {
	artifacts := []model.Artifact{
		{Name: "policy_panels", Kind: "map", Path: "figures/policy_panels.png"},
		{Name: "key_findings", Kind: "narrative", Path: "figures/key_findings.txt"},
	}

	var buf bytes.Buffer
	formatArtifactsList(&buf, artifacts)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "policy_panels")
	assert.Contains(t, lines[2], "narrative")
}

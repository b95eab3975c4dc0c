// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package auditor

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregateRules() []RuleDefinition {
	return []RuleDefinition{
		{ID: "first", Category: CategoryTokens, Summary: "first summary", Hint: "first hint",
			Scope: ScopeLine, Mode: ModeForbid, Pattern: regexp.MustCompile(`x`)},
		{ID: "second", Category: CategoryCopy, Summary: "second summary",
			Scope: ScopeLine, Mode: ModeForbid, Pattern: regexp.MustCompile(`y`)},
	}
}

func TestAggregate_GroupsByRuleInRegistryOrder(t *testing.T) {
	matches := []Match{
		{RuleID: "second", Category: CategoryCopy, FilePath: "b.tsx", Line: 1},
		{RuleID: "first", Category: CategoryTokens, FilePath: "a.tsx", Line: 3},
		{RuleID: "first", Category: CategoryTokens, FilePath: "a.tsx", Line: 1},
	}

	reports := aggregate(aggregateRules(), matches)
	require.Len(t, reports, 2)
	assert.Equal(t, "first", reports[0].RuleID)
	assert.Equal(t, "second", reports[1].RuleID)
	assert.Len(t, reports[0].Matches, 2)
}

// Matches sort by (path, line) inside each report.
func TestAggregate_SortsMatches(t *testing.T) {
	matches := []Match{
		{RuleID: "first", FilePath: "z.tsx", Line: 2},
		{RuleID: "first", FilePath: "a.tsx", Line: 9},
		{RuleID: "first", FilePath: "a.tsx", Line: 2},
		{RuleID: "first", FilePath: "m.tsx", Line: 1},
	}

	reports := aggregate(aggregateRules(), matches)
	require.Len(t, reports, 1)

	got := reports[0].Matches
	assert.Equal(t, "a.tsx", got[0].FilePath)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, "a.tsx", got[1].FilePath)
	assert.Equal(t, 9, got[1].Line)
	assert.Equal(t, "m.tsx", got[2].FilePath)
	assert.Equal(t, "z.tsx", got[3].FilePath)
}

func TestAggregate_NoMatchesNoReports(t *testing.T) {
	assert.Empty(t, aggregate(aggregateRules(), nil))
}

// Failure renders header, match lines, and hint.
func TestViolationReport_Failure(t *testing.T) {
	report := ViolationReport{
		RuleID:   "no-raw-color",
		Category: CategoryTokens,
		Summary:  "raw color literal outside the token sources",
		Hint:     "Use a semantic design token instead of a raw color literal.",
		Matches: []Match{
			{FilePath: "src/App.tsx", Line: 12, Excerpt: "color: #ff0000"},
			{FilePath: "src/Card.tsx", Line: 3, Excerpt: "background: #00ff00"},
		},
	}

	out := report.Failure()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Convention violated: raw color literal outside the token sources (no-raw-color)", lines[0])
	assert.Equal(t, "  src/App.tsx:12 — color: #ff0000", lines[1])
	assert.Equal(t, "  src/Card.tsx:3 — background: #00ff00", lines[2])
	assert.Equal(t, "  hint: Use a semantic design token instead of a raw color literal.", lines[3])
}

func TestViolationReport_Failure_NoHint(t *testing.T) {
	report := ViolationReport{
		RuleID:  "r",
		Summary: "s",
		Matches: []Match{{FilePath: "a.tsx", Line: 1, Excerpt: "e"}},
	}
	assert.NotContains(t, report.Failure(), "hint:")
}

func TestCountByCategory(t *testing.T) {
	reports := []ViolationReport{
		{Category: CategoryTokens, Matches: []Match{{}, {}}},
		{Category: CategoryCopy, Matches: []Match{{}}},
		{Category: CategoryTokens, Matches: []Match{{}}},
	}

	total, byCategory := countByCategory(reports)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, byCategory[CategoryTokens])
	assert.Equal(t, 1, byCategory[CategoryCopy])
}

func TestCountByCategory_Empty(t *testing.T) {
	total, byCategory := countByCategory(nil)
	assert.Zero(t, total)
	assert.Nil(t, byCategory)
}

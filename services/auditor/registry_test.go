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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func findRule(t *testing.T, rules []RuleDefinition, id string) *RuleDefinition {
	t.Helper()
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i]
		}
	}
	t.Fatalf("rule %s not built", id)
	return nil
}

func hasRule(rules []RuleDefinition, id string) bool {
	for i := range rules {
		if rules[i].ID == id {
			return true
		}
	}
	return false
}

// The color rule applies everywhere except the token sources.
func TestBuild_TokenRuleExcludesDefinitionFiles(t *testing.T) {
	cfg := testConfig(t, "tokens:\n  definition_files:\n    - src/styles/tokens.css\n")

	registry := NewRegistry()
	require.NoError(t, registry.Build(cfg, nil))

	rule := findRule(t, registry.Rules(), "no-raw-color")
	assert.Equal(t, ScopeLine, rule.Scope)
	assert.False(t, rule.AppliesTo("src/styles/tokens.css"))
	assert.True(t, rule.AppliesTo("src/App.tsx"))
}

func TestRawColorPattern(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"hex6", "color: #1a2b3c;", true},
		{"hex3", "color: #abc;", true},
		{"hex8", "color: #1a2b3c80;", true},
		{"rgb", "color: rgb(10, 20, 30);", true},
		{"rgba", "background: rgba(0,0,0,.5);", true},
		{"hsl", "color: hsl(120, 50%, 50%);", true},
		{"semantic token", "color: var(--color-primary);", false},
		{"plain text", "const title = 'Dashboard'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rawColorRe.MatchString(tt.line))
		})
	}
}

func TestAdhocUtilityPattern(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"width bracket", `<div className="w-[342px]" />`, true},
		{"text color bracket", `<p className="text-[#1a2b3c]" />`, true},
		{"margin bracket", `<div className="mt-[7px]" />`, true},
		{"scale value", `<div className="w-4 text-primary" />`, false},
		{"array index", "const x = rows[0]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adhocUtilityRe.MatchString(tt.line))
		})
	}
}

// One terminology rule per configured term, with path carve-outs.
func TestBuild_TerminologyRules(t *testing.T) {
	cfg := testConfig(t, `
copy:
  ui_paths:
    - ^src/
  terminology:
    - avoid: Account
      prefer: Organization
      except_paths:
        - ^src/features/auth/
`)

	registry := NewRegistry()
	require.NoError(t, registry.Build(cfg, nil))

	rule := findRule(t, registry.Rules(), "terminology-account")
	assert.Contains(t, rule.Hint, "Organization")
	assert.True(t, rule.AppliesTo("src/features/crm/Tile.tsx"))
	assert.False(t, rule.AppliesTo("src/features/auth/Login.tsx"))
	assert.True(t, rule.Pattern.MatchString("Your Account settings"))
	assert.False(t, rule.Pattern.MatchString("Accountability matters"))
}

func TestBuild_BannedPhraseRule(t *testing.T) {
	cfg := testConfig(t, `
copy:
  ui_paths:
    - ^src/
  exclude_paths:
    - ^src/types/
  banned_phrases:
    - "Create New"
`)

	registry := NewRegistry()
	require.NoError(t, registry.Build(cfg, nil))

	rule := findRule(t, registry.Rules(), "banned-phrase")
	assert.True(t, rule.Pattern.MatchString(`<Button>Create New</Button>`))
	assert.False(t, rule.AppliesTo("src/types/api.ts"))
}

// The duplication prepass only targets candidates that are referenced
// by some other file.
func TestBuild_DuplicationReferencedOnly(t *testing.T) {
	cfgYAML := `
duplication:
  pairs:
    - name: data-table
      canonical: src/ui/DataTable.tsx
      candidates:
        - (?i)table\.tsx$
`

	canonical := NewSourceFile("src/ui/DataTable.tsx", "export const DataTable = () => null\n")
	independent := NewSourceFile("src/legacy/OldTable.tsx", "export const OldTable = () => null\n")
	consumer := NewSourceFile("src/pages/List.tsx", "import { OldTable } from '../legacy/OldTable'\n")
	orphan := NewSourceFile("src/scratch/TmpTable.tsx", "export const TmpTable = () => null\n")

	t.Run("referenced candidate targeted", func(t *testing.T) {
		registry := NewRegistry()
		cfg := testConfig(t, cfgYAML)
		require.NoError(t, registry.Build(cfg, []SourceFile{canonical, independent, consumer, orphan}))

		rule := findRule(t, registry.Rules(), "duplicate-data-table")
		assert.True(t, rule.AppliesTo("src/legacy/OldTable.tsx"))
		assert.False(t, rule.AppliesTo("src/scratch/TmpTable.tsx"), "unreferenced copy is dead code, not a duplicate")
		assert.False(t, rule.AppliesTo("src/ui/DataTable.tsx"), "canonical is never its own duplicate")
	})

	t.Run("no referenced candidates means no rule", func(t *testing.T) {
		registry := NewRegistry()
		cfg := testConfig(t, cfgYAML)
		require.NoError(t, registry.Build(cfg, []SourceFile{canonical, orphan}))
		assert.False(t, hasRule(registry.Rules(), "duplicate-data-table"))
	})
}

// A required canonical file missing from the tree is a configuration
// error.
func TestBuild_DuplicationRequiredCanonicalMissing(t *testing.T) {
	cfg := testConfig(t, `
duplication:
  pairs:
    - name: data-table
      canonical: src/ui/DataTable.tsx
      required: true
      candidates:
        - table\.tsx$
`)

	registry := NewRegistry()
	err := registry.Build(cfg, []SourceFile{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCanonical)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBuild_ContainerRequiredMissing(t *testing.T) {
	cfg := testConfig(t, `
layering:
  page_paths:
    - ^src/pages/
  container:
    component: PageContainer
    file: src/layout/PageContainer.tsx
    required: true
`)

	registry := NewRegistry()
	err := registry.Build(cfg, []SourceFile{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCanonical)
}

// Layout components that render the container satisfy the page rule
// on a page's behalf.
func TestContainerWrapperPattern_IncludesLayouts(t *testing.T) {
	cfg := testConfig(t, `
layering:
  page_paths:
    - ^src/pages/
  container:
    component: PageContainer
    file: src/layout/PageContainer.tsx
    layout_paths:
      - ^src/layout/
`)

	corpus := []SourceFile{
		NewSourceFile("src/layout/PageContainer.tsx", "export const PageContainer = () => null\n"),
		NewSourceFile("src/layout/AppShell.tsx", "export const AppShell = () => <PageContainer>x</PageContainer>\n"),
		NewSourceFile("src/layout/Plain.tsx", "export const Plain = () => <div>x</div>\n"),
	}

	re, err := containerWrapperPattern(cfg, corpus)
	require.NoError(t, err)

	assert.True(t, re.MatchString("<PageContainer>direct</PageContainer>"))
	assert.True(t, re.MatchString("<AppShell>via layout</AppShell>"))
	assert.True(t, re.MatchString("import { AppShell } from '../layout/AppShell'"))
	assert.False(t, re.MatchString("<Plain>not a wrapper</Plain>"))
	assert.False(t, re.MatchString("<div>bare</div>"))
}

// Registry order is stable so reports are stable.
func TestBuild_DeterministicOrder(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	first := NewRegistry()
	require.NoError(t, first.Build(cfg, nil))
	second := NewRegistry()
	require.NoError(t, second.Build(cfg, nil))

	firstIDs := make([]string, 0)
	for _, r := range first.Rules() {
		firstIDs = append(firstIDs, r.ID)
	}
	secondIDs := make([]string, 0)
	for _, r := range second.Rules() {
		secondIDs = append(secondIDs, r.ID)
	}
	assert.Equal(t, firstIDs, secondIDs)
}

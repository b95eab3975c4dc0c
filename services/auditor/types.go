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
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// CORE TYPES
// =============================================================================

// Category classifies a rule by the convention it enforces.
type Category string

const (
	CategoryTokens        Category = "tokens"
	CategoryUtility       Category = "utility"
	CategoryDuplication   Category = "duplication"
	CategoryCopy          Category = "copy"
	CategoryAccessibility Category = "accessibility"
	CategoryLayering      Category = "layering"
)

// Scope selects what a rule's pattern is tested against.
type Scope string

const (
	// ScopeLine tests each physical line of the raw file.
	ScopeLine Scope = "line"
	// ScopeDocument searches the whole normalized document.
	ScopeDocument Scope = "document"
)

// Mode inverts the sense of a rule's pattern.
type Mode string

const (
	// ModeForbid reports every pattern match as a violation.
	ModeForbid Mode = "forbid"
	// ModeRequire reports one violation per file where the pattern
	// never matches.
	ModeRequire Mode = "require"
)

// SuppressionMarker drops a match when it appears on the exact raw
// line the match originates from. It has no effect on adjacent lines.
const SuppressionMarker = "audit-ignore"

// SourceFile is one collected file with both content bases.
//
// NormalizedContent is derived from RawContent and never mutates it.
// Normalization blanks lines instead of deleting them, so a line
// number is valid against either basis.
type SourceFile struct {
	Path              string
	RawContent        string
	NormalizedContent string

	// strippedContent is RawContent with comments removed but
	// declaration lines intact. Require-mode rules test this basis so
	// an import statement can satisfy them while a commented-out
	// occurrence cannot.
	strippedContent string
	rawLines        []string
}

// NewSourceFile builds a SourceFile, deriving the normalized content.
func NewSourceFile(filePath, raw string) SourceFile {
	stripped := stripComments(raw)
	return SourceFile{
		Path:              filePath,
		RawContent:        raw,
		NormalizedContent: blankDeclarationLines(stripped),
		strippedContent:   stripped,
		rawLines:          strings.Split(raw, "\n"),
	}
}

// RawLine returns the 1-based physical line, or "" when out of range.
func (f *SourceFile) RawLine(n int) string {
	if n < 1 || n > len(f.rawLines) {
		return ""
	}
	return f.rawLines[n-1]
}

// RawLines returns the physical lines of the file.
func (f *SourceFile) RawLines() []string {
	return f.rawLines
}

// Match is a single located rule hit after exemption and suppression
// filtering. Excerpt is whitespace-collapsed and capped for reports.
type Match struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	FilePath string   `json:"file_path"`
	Line     int      `json:"line"`
	Excerpt  string   `json:"excerpt"`
}

// RuleDefinition is one convention check. Every category is evaluated
// by the same uniform evaluator; category-specific behavior lives in
// the rule data, not in control flow.
type RuleDefinition struct {
	ID       string
	Category Category
	Summary  string
	Hint     string
	Scope    Scope
	Mode     Mode

	// Pattern is what the rule searches for (ModeForbid) or demands
	// at least once per file (ModeRequire).
	Pattern *regexp.Regexp

	// Unless discards a pattern match whose matched text also matches
	// it. Used where a negative condition cannot be expressed in a
	// single RE2 pattern (no lookahead).
	Unless *regexp.Regexp

	// Extensions limits the rule to files with one of these extensions
	// (including the dot). Empty means every collected file.
	Extensions []string

	// IncludePaths, when non-empty, limits the rule to paths matching
	// at least one entry. ExcludePaths removes paths matching any
	// entry and wins over IncludePaths.
	IncludePaths []*regexp.Regexp
	ExcludePaths []*regexp.Regexp

	// ExemptWhenOnly skips the whole file when every non-blank
	// normalized line matches it. Used for thin re-export modules.
	ExemptWhenOnly *regexp.Regexp

	// Allow holds rule-scoped allow entries, checked in addition to
	// the global allowlist.
	Allow Allowlist
}

// AppliesTo reports whether the rule evaluates the given path.
func (r *RuleDefinition) AppliesTo(filePath string) bool {
	if len(r.Extensions) > 0 {
		ext := path.Ext(filePath)
		found := false
		for _, want := range r.Extensions {
			if strings.EqualFold(ext, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, re := range r.ExcludePaths {
		if re.MatchString(filePath) {
			return false
		}
	}
	if len(r.IncludePaths) == 0 {
		return true
	}
	for _, re := range r.IncludePaths {
		if re.MatchString(filePath) {
			return true
		}
	}
	return false
}

// ViolationReport groups every surviving match for one rule.
type ViolationReport struct {
	RuleID   string   `json:"rule_id"`
	Category Category `json:"category"`
	Summary  string   `json:"summary"`
	Hint     string   `json:"hint,omitempty"`
	Matches  []Match  `json:"matches"`
}

// AuditResult is the verdict for one audit run.
type AuditResult struct {
	RunID             string            `json:"run_id"`
	Passed            bool              `json:"passed"`
	Reports           []ViolationReport `json:"reports"`
	FilesScanned      int               `json:"files_scanned"`
	FilesSkipped      int               `json:"files_skipped"`
	TotalMatches      int               `json:"total_matches"`
	MatchesByCategory map[Category]int  `json:"matches_by_category,omitempty"`
	Warnings          []string          `json:"warnings,omitempty"`
	DurationMs        int64             `json:"duration_ms"`
}

// excerptLimit caps excerpt length for readable reports.
const excerptLimit = 240

// makeExcerpt collapses runs of whitespace and caps the result,
// truncating on a rune boundary so reports stay valid UTF-8.
func makeExcerpt(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if len(collapsed) > excerptLimit {
		cut := excerptLimit
		for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
			cut--
		}
		collapsed = collapsed[:cut]
	}
	return collapsed
}

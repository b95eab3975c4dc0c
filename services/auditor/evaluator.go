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
)

// =============================================================================
// RULE EVALUATOR
// =============================================================================

// evaluateRule runs one rule over one file and returns the surviving
// matches.
//
// Description:
//
//	Every rule category flows through this single evaluator; the
//	differences live in the rule data. Line-scope rules test each
//	physical line of the raw file and know their line number directly.
//	Document-scope rules search the normalized text and recover line
//	numbers by counting preceding newlines; because normalization
//	blanks lines instead of removing them, those numbers are valid
//	against the raw file too.
//
//	Rule-scoped allow entries are tested against the matched text
//	itself, never the surrounding line, so one sanctioned value on a
//	line cannot exempt a second unsanctioned one. A surviving match is
//	then dropped when the raw line it originates from carries the
//	suppression marker, or when a global allow entry exempts its
//	(path, excerpt) pair.
func evaluateRule(rule *RuleDefinition, file *SourceFile, global Allowlist) []Match {
	if !rule.AppliesTo(file.Path) {
		return nil
	}
	if rule.ExemptWhenOnly != nil && allLinesMatch(rule.ExemptWhenOnly, file.NormalizedContent) {
		return nil
	}

	var matches []Match
	if rule.Mode == ModeRequire {
		matches = evaluateRequire(rule, file)
	} else {
		switch rule.Scope {
		case ScopeLine:
			matches = evaluateLines(rule, file)
		case ScopeDocument:
			matches = evaluateDocument(rule, file)
		}
	}

	kept := matches[:0]
	for _, m := range matches {
		if strings.Contains(file.RawLine(m.Line), SuppressionMarker) {
			continue
		}
		if global.Exempts(m.FilePath, m.Excerpt) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// evaluateLines tests the rule against every physical line. At most
// one match per line is reported; the excerpt is the whole line. The
// Unless and rule-scoped allow checks run per occurrence, so a line
// is reported as long as any single occurrence survives them.
func evaluateLines(rule *RuleDefinition, file *SourceFile) []Match {
	var matches []Match
	for i, line := range file.RawLines() {
		for _, loc := range rule.Pattern.FindAllStringIndex(line, -1) {
			text := line[loc[0]:loc[1]]
			if rule.Unless != nil && rule.Unless.MatchString(text) {
				continue
			}
			if rule.Allow.Exempts(file.Path, text) {
				continue
			}
			matches = append(matches, Match{
				RuleID:   rule.ID,
				Category: rule.Category,
				FilePath: file.Path,
				Line:     i + 1,
				Excerpt:  makeExcerpt(line),
			})
			break
		}
	}
	return matches
}

// evaluateDocument searches the normalized document. The excerpt is
// the matched text itself, which for multi-line matches reads better
// than any single line.
func evaluateDocument(rule *RuleDefinition, file *SourceFile) []Match {
	var matches []Match
	for _, loc := range rule.Pattern.FindAllStringIndex(file.NormalizedContent, -1) {
		text := file.NormalizedContent[loc[0]:loc[1]]
		if rule.Unless != nil && rule.Unless.MatchString(text) {
			continue
		}
		if rule.Allow.Exempts(file.Path, text) {
			continue
		}
		matches = append(matches, Match{
			RuleID:   rule.ID,
			Category: rule.Category,
			FilePath: file.Path,
			Line:     lineAt(file.NormalizedContent, loc[0]),
			Excerpt:  makeExcerpt(text),
		})
	}
	return matches
}

// evaluateRequire reports one match when the pattern never occurs in
// the file. The pattern is tested against the comment-stripped content
// with declaration lines intact: a commented-out occurrence cannot
// satisfy a requirement, but an import statement can. The match
// anchors to the first non-blank line so reports and allow entries
// have real content to work with.
func evaluateRequire(rule *RuleDefinition, file *SourceFile) []Match {
	if rule.Pattern.MatchString(file.strippedContent) {
		return nil
	}
	line, excerpt := firstContentLine(file)
	return []Match{{
		RuleID:   rule.ID,
		Category: rule.Category,
		FilePath: file.Path,
		Line:     line,
		Excerpt:  excerpt,
	}}
}

func firstContentLine(file *SourceFile) (int, string) {
	for i, line := range file.RawLines() {
		if strings.TrimSpace(line) != "" {
			return i + 1, makeExcerpt(line)
		}
	}
	return 1, ""
}

// allLinesMatch reports whether every non-blank line of content
// matches re. An empty document trivially matches.
func allLinesMatch(re *regexp.Regexp, content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !re.MatchString(line) {
			return false
		}
	}
	return true
}

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
// CONTENT NORMALIZER
// =============================================================================

// Normalize derives the document-scan basis from raw file text.
//
// Description:
//
//	Strips line and block comments with an explicit state machine that
//	tracks string and template literals, then blanks declaration-only
//	lines (imports, type/interface headers, pure destructuring
//	assignments without markup). Newlines are always preserved and
//	filtered lines are blanked in place rather than removed, so line
//	numbers computed against the normalized text equal the raw ones.
//
//	String literal contents survive normalization: user-facing copy
//	lives in strings and JSX text and must remain scannable.
//
// Inputs:
//
//	raw - The file text as read from disk
//
// Outputs:
//
//	string - The normalized text, same line count as raw
func Normalize(raw string) string {
	return blankDeclarationLines(stripComments(raw))
}

type normalizerState int

const (
	stateCode normalizerState = iota
	stateLineComment
	stateBlockComment
	stateSingleQuote
	stateDoubleQuote
	stateTemplate
)

// stripComments removes // and /* */ comments, preserving newlines so
// line numbering is unaffected. Comment openers inside string or
// template literals are left alone. A division slash followed by
// another slash is indistinguishable from a comment opener without a
// parser; the comment reading wins.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	state := stateCode

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateCode:
			switch {
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = stateLineComment
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = stateBlockComment
				i++
			case c == '\'':
				state = stateSingleQuote
				b.WriteByte(c)
			case c == '"':
				state = stateDoubleQuote
				b.WriteByte(c)
			case c == '`':
				state = stateTemplate
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
				b.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = stateCode
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			}
		case stateSingleQuote:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(src[i+1])
				i++
			} else if c == '\'' || c == '\n' {
				state = stateCode
			}
		case stateDoubleQuote:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(src[i+1])
				i++
			} else if c == '"' || c == '\n' {
				state = stateCode
			}
		case stateTemplate:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(src[i+1])
				i++
			} else if c == '`' {
				state = stateCode
			}
		}
	}
	return b.String()
}

// Declaration-only line heuristics. A line carrying markup is never
// blanked, whatever else it contains.
var (
	importLineRe  = regexp.MustCompile(`^\s*import\b`)
	typeHeaderRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:type|interface)\s+[A-Za-z_$]`)
	destructureRe = regexp.MustCompile(`^\s*(?:const|let|var)\s*\{[^}]*\}\s*=\s*[\w$.()\[\]]+;?\s*$`)
	markupLineRe  = regexp.MustCompile(`<[A-Za-z/>!]`)
)

// blankDeclarationLines blanks lines matching the declaration-only
// heuristics. Re-export lines (export { X } from '...') are kept so a
// whole-file re-export check still sees them.
func blankDeclarationLines(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if markupLineRe.MatchString(line) {
			continue
		}
		if importLineRe.MatchString(line) ||
			typeHeaderRe.MatchString(line) ||
			destructureRe.MatchString(line) {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// lineAt maps a character offset in content to a 1-based line number.
func lineAt(content string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}

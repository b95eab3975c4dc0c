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

import "regexp"

// =============================================================================
// ALLOWLIST RESOLVER
// =============================================================================

// AllowEntry exempts a match when its path pattern matches the file
// path AND its content pattern matches the excerpt. A nil content
// pattern matches any excerpt.
//
// Entries carry a tier so broad directory exemptions and narrow,
// reviewed content exemptions stay distinct mechanisms instead of
// collapsing into one.
type AllowEntry struct {
	Tier        AllowTier
	Description string

	pathRe    *regexp.Regexp
	contentRe *regexp.Regexp
}

// AllowTier names the granularity of an allow entry.
type AllowTier string

const (
	// TierDirectory exempts every excerpt under matching paths.
	// Reserved for high-churn, visually complex areas.
	TierDirectory AllowTier = "directory"
	// TierContent exempts only excerpts matching a content pattern
	// within matching paths. The reviewed, narrow escape hatch.
	TierContent AllowTier = "content"
)

// NewDirectoryExemption builds a broad entry whose content pattern
// matches everything.
func NewDirectoryExemption(description string, pathRe *regexp.Regexp) AllowEntry {
	return AllowEntry{
		Tier:        TierDirectory,
		Description: description,
		pathRe:      pathRe,
	}
}

// NewContentExemption builds a narrow entry requiring both patterns.
func NewContentExemption(description string, pathRe, contentRe *regexp.Regexp) AllowEntry {
	return AllowEntry{
		Tier:        TierContent,
		Description: description,
		pathRe:      pathRe,
		contentRe:   contentRe,
	}
}

// Exempts applies the entry conjunctively.
func (e AllowEntry) Exempts(filePath, excerpt string) bool {
	if e.pathRe == nil || !e.pathRe.MatchString(filePath) {
		return false
	}
	if e.contentRe == nil {
		return true
	}
	return e.contentRe.MatchString(excerpt)
}

// Allowlist is an ordered set of entries, disjunctive across entries.
type Allowlist []AllowEntry

// Exempts reports whether any entry exempts the (path, excerpt) pair.
func (a Allowlist) Exempts(filePath, excerpt string) bool {
	for _, e := range a {
		if e.Exempts(filePath, excerpt) {
			return true
		}
	}
	return false
}

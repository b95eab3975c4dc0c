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
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// VIOLATION AGGREGATOR
// =============================================================================

// aggregate groups surviving matches by rule. Matches are sorted by
// (file path, line) inside each report and reports follow registry
// order, so two runs over an unchanged tree produce byte-identical
// output regardless of evaluation parallelism.
func aggregate(rules []RuleDefinition, matches []Match) []ViolationReport {
	byRule := make(map[string][]Match, len(rules))
	for _, m := range matches {
		byRule[m.RuleID] = append(byRule[m.RuleID], m)
	}

	var reports []ViolationReport
	for _, r := range rules {
		group := byRule[r.ID]
		if len(group) == 0 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].FilePath != group[j].FilePath {
				return group[i].FilePath < group[j].FilePath
			}
			return group[i].Line < group[j].Line
		})
		reports = append(reports, ViolationReport{
			RuleID:   r.ID,
			Category: r.Category,
			Summary:  r.Summary,
			Hint:     r.Hint,
			Matches:  group,
		})
	}
	return reports
}

// Failure renders the report as a failing-assertion message: a header
// naming the violated convention, one line per match, and the
// remediation hint when the rule carries one.
func (r *ViolationReport) Failure() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Convention violated: %s (%s)\n", r.Summary, r.RuleID)
	for _, m := range r.Matches {
		fmt.Fprintf(&b, "  %s:%d — %s\n", m.FilePath, m.Line, m.Excerpt)
	}
	if r.Hint != "" {
		fmt.Fprintf(&b, "  hint: %s\n", r.Hint)
	}
	return b.String()
}

// countByCategory tallies matches per category for the result summary.
func countByCategory(reports []ViolationReport) (int, map[Category]int) {
	total := 0
	byCategory := make(map[Category]int)
	for _, r := range reports {
		total += len(r.Matches)
		byCategory[r.Category] += len(r.Matches)
	}
	if total == 0 {
		return 0, nil
	}
	return total, byCategory
}

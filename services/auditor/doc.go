// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package auditor implements a rule-driven source-tree compliance auditor.
//
// Description:
//
//	The auditor scans a project's source files against a set of named
//	convention rules (design-token usage, ad hoc utility values, duplicate
//	component implementations, banned copy and terminology, accessibility
//	attributes, page layering) and produces a single pass/fail AuditResult
//	with line-accurate matches grouped per rule.
//
//	The pipeline is strictly one-directional:
//
//	  Collector -> Normalizer -> Registry evaluation (+ allowlist and
//	  inline suppression filtering) -> Aggregator -> AuditResult
//
//	Line-scope rules test each physical line of the raw file. Document-scope
//	rules search the normalized text (comments stripped, declaration-only
//	lines blanked) and recover line numbers by counting preceding newlines.
//	Require-mode rules test the comment-stripped text with declaration lines
//	intact, so an import statement can satisfy them. Normalization blanks
//	lines in place rather than deleting them, so all bases agree on line
//	numbers.
//
// Usage:
//
//	cfg, err := auditor.LoadConfig("audit.yaml")
//	if err != nil { ... }
//	a, err := auditor.New(os.DirFS(root), cfg)
//	if err != nil { ... }
//	result, err := a.Run(ctx)
//
// Thread Safety: an Auditor is safe for concurrent use; each Run owns its
// own accumulator state.
package auditor

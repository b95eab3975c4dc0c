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
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

// =============================================================================
// FILE COLLECTOR
// =============================================================================

// Collector walks one or more roots of a file tree and gathers the
// source files the audit evaluates.
//
// Description:
//
//	Directories in the exclusion list are pruned. Declaration files
//	(*.d.ts), test files, and binary files are skipped. Unreadable
//	files are recorded as warnings and skipped; a read failure never
//	aborts the walk. Files are returned sorted by path so downstream
//	reports are deterministic.
//
// Thread Safety: Safe for concurrent use; Collect holds no state.
type Collector struct {
	fsys        fs.FS
	roots       []string
	extensions  []string
	excludeDirs map[string]bool
	log         *slog.Logger
}

// CollectResult carries the gathered files plus skip accounting.
type CollectResult struct {
	Files    []SourceFile
	Skipped  int
	Warnings []string
}

// NewCollector creates a collector over fsys.
func NewCollector(fsys fs.FS, cfg *Config, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	excluded := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excluded[d] = true
	}
	return &Collector{
		fsys:        fsys,
		roots:       cfg.Roots,
		extensions:  cfg.Extensions,
		excludeDirs: excluded,
		log:         log,
	}
}

// Collect walks the configured roots and reads every auditable file.
//
// Inputs:
//
//	ctx - Context for cancellation
//
// Outputs:
//
//	*CollectResult - Files sorted by path, plus warnings for skips
//	error          - ErrInvalidInput on nil context, or ctx.Err()
func (c *Collector) Collect(ctx context.Context) (*CollectResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidInput)
	}

	result := &CollectResult{}
	for _, root := range c.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.collectRoot(ctx, root, result); err != nil {
			return nil, err
		}
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	return result, nil
}

func (c *Collector) collectRoot(ctx context.Context, root string, result *CollectResult) error {
	return fs.WalkDir(c.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// A missing root or unreadable directory is a warning,
			// not a fatal error.
			result.Warnings = append(result.Warnings, fmt.Sprintf("walk %s: %v", p, err))
			c.log.Warn("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if c.excludeDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !c.auditable(p) {
			return nil
		}

		data, readErr := fs.ReadFile(c.fsys, p)
		if readErr != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("read %s: %v", p, readErr))
			c.log.Warn("skipping unreadable file", "path", p, "error", readErr)
			return nil
		}
		if isBinary(data) {
			result.Skipped++
			return nil
		}

		result.Files = append(result.Files, NewSourceFile(p, string(data)))
		return nil
	})
}

// auditable filters by extension and skips declaration and test files.
func (c *Collector) auditable(p string) bool {
	base := path.Base(p)
	if strings.Contains(base, ".d.") {
		return false
	}
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.Contains(base, ".stories.") {
		return false
	}
	if len(c.extensions) == 0 {
		return true
	}
	ext := path.Ext(base)
	for _, want := range c.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// isBinary sniffs the first 512 bytes for a NUL byte.
func isBinary(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Auditor runs the full rule set over a file tree and returns one
// verdict.
//
// Description:
//
//	Collection, rule building, evaluation, and aggregation run in
//	sequence. Evaluation is parallel across files; every rule category
//	runs to completion so one invocation surfaces every violation
//	class at once. The fs.FS boundary keeps the orchestrator testable
//	against synthetic in-memory trees.
//
// Thread Safety: Safe for concurrent use; Run shares no mutable state
// between invocations.
type Auditor struct {
	fsys    fs.FS
	cfg     *Config
	log     *slog.Logger
	workers int
}

// Option configures the Auditor.
type Option func(*Auditor)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Auditor) {
		a.log = log
	}
}

// WithWorkers overrides the configured evaluation parallelism.
func WithWorkers(n int) Option {
	return func(a *Auditor) {
		a.workers = n
	}
}

// New creates an Auditor over fsys with the given configuration.
//
// Inputs:
//
//	fsys - The file tree to audit, typically os.DirFS of the project
//	cfg  - Audit configuration; validated here
//	opts - Optional configuration options
//
// Outputs:
//
//	*Auditor - The configured auditor
//	error    - ErrInvalidInput on nil arguments, ErrConfig on an
//	           invalid configuration
func New(fsys fs.FS, cfg *Config, opts ...Option) (*Auditor, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: nil filesystem", ErrInvalidInput)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Auditor{
		fsys: fsys,
		cfg:  cfg,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run executes one audit over the configured tree.
//
// Description:
//
//	Collects files, builds the rule set against the collected corpus,
//	evaluates every rule over every file via a bounded worker pool,
//	and aggregates surviving matches into a deterministic AuditResult.
//	A failing verdict is a result, not an error; Run returns an error
//	only for invalid input, configuration problems, or cancellation.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing
//
// Outputs:
//
//	*AuditResult - The verdict with per-rule reports and run stats
//	error        - ErrInvalidInput, ErrConfig, ErrMissingCanonical,
//	               or ctx.Err()
func (a *Auditor) Run(ctx context.Context) (*AuditResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidInput)
	}
	start := time.Now()

	collected, err := NewCollector(a.fsys, a.cfg, a.log).Collect(ctx)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	if err := registry.Build(a.cfg, collected.Files); err != nil {
		return nil, err
	}
	rules := registry.Rules()

	ctx, span := startAuditSpan(ctx, len(rules))
	defer span.End()

	matches, err := a.evaluateAll(ctx, rules, collected.Files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reports := aggregate(rules, matches)
	total, byCategory := countByCategory(reports)
	elapsed := time.Since(start)

	result := &AuditResult{
		RunID:             uuid.NewString(),
		Passed:            total == 0,
		Reports:           reports,
		FilesScanned:      len(collected.Files),
		FilesSkipped:      collected.Skipped,
		TotalMatches:      total,
		MatchesByCategory: byCategory,
		Warnings:          collected.Warnings,
		DurationMs:        elapsed.Milliseconds(),
	}

	span.SetAttributes(
		attribute.Bool("audit.passed", result.Passed),
		attribute.Int("audit.matches", result.TotalMatches),
		attribute.Int("audit.files_scanned", result.FilesScanned),
	)
	recordAuditMetrics(ctx, result, elapsed)

	a.log.Info("audit complete",
		"run_id", result.RunID,
		"passed", result.Passed,
		"matches", result.TotalMatches,
		"files_scanned", result.FilesScanned,
		"files_skipped", result.FilesSkipped,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// evaluateAll fans evaluation out across files. The accumulator is
// append-under-lock; ordering is restored later by the aggregator.
func (a *Auditor) evaluateAll(ctx context.Context, rules []RuleDefinition, files []SourceFile) ([]Match, error) {
	var (
		mu      sync.Mutex
		matches []Match
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workerCount())
	for i := range files {
		file := &files[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var local []Match
			for r := range rules {
				local = append(local, evaluateRule(&rules[r], file, a.cfg.Allowlist())...)
			}
			if len(local) > 0 {
				mu.Lock()
				matches = append(matches, local...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (a *Auditor) workerCount() int {
	if a.workers > 0 {
		return a.workers
	}
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

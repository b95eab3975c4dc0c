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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for audit operations.
var (
	tracer = otel.Tracer("crmaudit.auditor")
	meter  = otel.Meter("crmaudit.auditor")
)

// Metrics for audit operations.
var (
	auditLatency  metric.Float64Histogram
	auditTotal    metric.Int64Counter
	matchesFound  metric.Int64Histogram
	filesScanned  metric.Int64Histogram
	filesSkippedC metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		auditLatency, err = meter.Float64Histogram(
			"audit_duration_seconds",
			metric.WithDescription("Duration of audit runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		auditTotal, err = meter.Int64Counter(
			"audit_total",
			metric.WithDescription("Total number of audit runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		matchesFound, err = meter.Int64Histogram(
			"audit_matches",
			metric.WithDescription("Violations found per audit run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesScanned, err = meter.Int64Histogram(
			"audit_files_scanned",
			metric.WithDescription("Files scanned per audit run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesSkippedC, err = meter.Int64Counter(
			"audit_files_skipped_total",
			metric.WithDescription("Files skipped across audit runs"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// startAuditSpan begins a span for one audit run.
func startAuditSpan(ctx context.Context, ruleCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "auditor.Run",
		trace.WithAttributes(
			attribute.Int("audit.rules", ruleCount),
		),
	)
}

// recordAuditMetrics records metrics for a completed run. Metric
// initialization failure degrades to a no-op rather than failing the
// audit.
func recordAuditMetrics(ctx context.Context, result *AuditResult, elapsed time.Duration) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Bool("audit.passed", result.Passed),
	)
	auditLatency.Record(ctx, elapsed.Seconds(), attrs)
	auditTotal.Add(ctx, 1, attrs)
	matchesFound.Record(ctx, int64(result.TotalMatches), attrs)
	filesScanned.Record(ctx, int64(result.FilesScanned), attrs)
	filesSkippedC.Add(ctx, int64(result.FilesSkipped), attrs)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/crmaudit/services/auditor"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Exit codes for the check command.
const (
	CheckExitSuccess   = 0
	CheckExitViolation = 1
	CheckExitError     = 2
)

// checkTimeout bounds one audit run.
const checkTimeout = 5 * time.Minute

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	checkJSON    bool
	checkQuiet   bool
	checkWorkers int
	checkExclude []string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Audit a source tree for convention violations",
	Long: `Audit a source tree against the configured conventions and
report every violation class in one run.

Examples:
  crmaudit check
  crmaudit check ./frontend
  crmaudit check --config audit.yaml --json
  crmaudit check --exclude generated --exclude vendor

Exit Codes:
  0 = All conventions pass
  1 = One or more violations found
  2 = Error (invalid path, malformed pattern, missing canonical file)`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output the full AuditResult as JSON")
	checkCmd.Flags().BoolVar(&checkQuiet, "quiet", false,
		"Suppress output; exit code only")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0,
		"Evaluation parallelism (0 = GOMAXPROCS)")
	checkCmd.Flags().StringSliceVar(&checkExclude, "exclude", nil,
		"Additional directory basenames to skip")

	rootCmd.AddCommand(checkCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runCheck(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	info, err := os.Stat(target)
	if err != nil {
		outputCheckError("Path not found", err)
		os.Exit(CheckExitError)
	}
	if !info.IsDir() {
		outputCheckError("Path is not a directory", fmt.Errorf("%s", target))
		os.Exit(CheckExitError)
	}

	cfg, err := auditor.LoadConfig(rootConfigPath)
	if err != nil {
		outputCheckError("Invalid configuration", err)
		os.Exit(CheckExitError)
	}
	cfg.ExcludeDirs = append(cfg.ExcludeDirs, checkExclude...)

	a, err := auditor.New(os.DirFS(target), cfg,
		auditor.WithLogger(log.Slog()),
		auditor.WithWorkers(checkWorkers),
	)
	if err != nil {
		outputCheckError("Cannot initialize auditor", err)
		os.Exit(CheckExitError)
	}

	result, err := a.Run(ctx)
	if err != nil {
		outputCheckError("Audit failed", err)
		os.Exit(CheckExitError)
	}

	if !checkQuiet {
		if checkJSON {
			outputCheckJSON(result)
		} else {
			outputCheckText(result)
		}
	}
	if !result.Passed {
		os.Exit(CheckExitViolation)
	}
	os.Exit(CheckExitSuccess)
}

// =============================================================================
// OUTPUT
// =============================================================================

func outputCheckText(result *auditor.AuditResult) {
	for _, report := range result.Reports {
		fmt.Println(report.Failure())
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Printf("%s: %d violation(s) across %d file(s) scanned (%d skipped) in %dms\n",
		status, result.TotalMatches, result.FilesScanned, result.FilesSkipped, result.DurationMs)

	categories := make([]string, 0, len(result.MatchesByCategory))
	for category := range result.MatchesByCategory {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Printf("  %s: %d\n", category, result.MatchesByCategory[auditor.Category(category)])
	}
}

func outputCheckJSON(result *auditor.AuditResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		outputCheckError("Cannot encode result", err)
		os.Exit(CheckExitError)
	}
	fmt.Println(string(data))
}

func outputCheckError(msg string, err error) {
	if checkJSON {
		out := map[string]string{"error": msg, "detail": err.Error()}
		data, _ := json.Marshal(out)
		fmt.Println(string(data))
		return
	}
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}

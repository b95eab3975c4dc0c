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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/crmaudit/services/auditor"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var rulesJSON bool

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var rulesCmd = &cobra.Command{
	Use:   "rules [path]",
	Short: "List the rules the current configuration produces",
	Long: `List every rule the configuration compiles to.

Duplication and layering rules resolve against the actual tree (which
layout components wrap the shared container, which duplicate
candidates are referenced), so passing the project path yields the
exact rule set a check run would evaluate. Without a path those rules
are built against an empty tree and may be absent.

Examples:
  crmaudit rules
  crmaudit rules ./frontend --config audit.yaml
  crmaudit rules --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRules,
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false,
		"Output the rule list as JSON")

	rootCmd.AddCommand(rulesCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// ruleInfo is the exported view of one rule.
type ruleInfo struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Scope    string `json:"scope"`
	Mode     string `json:"mode"`
	Summary  string `json:"summary"`
	Hint     string `json:"hint,omitempty"`
}

func runRules(cmd *cobra.Command, args []string) {
	cfg, err := auditor.LoadConfig(rootConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(CheckExitError)
	}

	var corpus []auditor.SourceFile
	if len(args) > 0 {
		ctx := context.Background()
		collected, err := auditor.NewCollector(os.DirFS(args[0]), cfg, log.Slog()).Collect(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot collect %s: %v\n", args[0], err)
			os.Exit(CheckExitError)
		}
		corpus = collected.Files
	}

	registry := auditor.NewRegistry()
	if err := registry.Build(cfg, corpus); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot build rules: %v\n", err)
		os.Exit(CheckExitError)
	}

	infos := make([]ruleInfo, 0)
	for _, r := range registry.Rules() {
		infos = append(infos, ruleInfo{
			ID:       r.ID,
			Category: string(r.Category),
			Scope:    string(r.Scope),
			Mode:     string(r.Mode),
			Summary:  r.Summary,
			Hint:     r.Hint,
		})
	}

	if rulesJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot encode rules: %v\n", err)
			os.Exit(CheckExitError)
		}
		fmt.Println(string(data))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tSCOPE\tMODE\tSUMMARY")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			info.ID, info.Category, info.Scope, info.Mode, info.Summary)
	}
	_ = w.Flush()
}

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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/crmaudit/pkg/logging"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var (
	rootConfigPath string
	rootVerbose    bool
	rootLogJSON    bool

	log *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crmaudit",
	Short: "Source-tree convention auditor",
	Long: `crmaudit scans a project's source tree against design and
architecture conventions: design-token usage, ad hoc utility values,
duplicate component implementations, banned copy and terminology,
accessibility attributes, and page layering.

Configuration is YAML; without --config the embedded defaults apply.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "",
		"Path to audit config YAML (embedded defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootLogJSON, "log-json", false,
		"Emit logs as JSON")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if rootVerbose {
			level = logging.LevelDebug
		}
		log = logging.New(logging.Config{
			Level:   level,
			Service: "crmaudit",
			JSON:    rootLogJSON,
		})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Close()
		}
	}
}

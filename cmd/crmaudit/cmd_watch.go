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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/crmaudit/services/auditor"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var watchDebounce time.Duration

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-audit the tree whenever source files change",
	Long: `Watch a source tree and re-run the audit after changes settle.

Each run prints the same report a check run would. The process keeps
running until interrupted; the exit code reflects the last run.

Examples:
  crmaudit watch
  crmaudit watch ./frontend --config audit.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond,
		"Quiet period after a change before re-auditing")

	rootCmd.AddCommand(watchCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runWatch(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "error: %s is not a watchable directory\n", target)
		os.Exit(CheckExitError)
	}

	cfg, err := auditor.LoadConfig(rootConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(CheckExitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot create watcher: %v\n", err)
		os.Exit(CheckExitError)
	}
	defer watcher.Close()

	excluded := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excluded[d] = true
	}
	if err := watchTree(watcher, target, excluded); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot watch %s: %v\n", target, err)
		os.Exit(CheckExitError)
	}

	failed := runWatchAudit(ctx, cfg, target)

	var debounce *time.Timer
	var fired <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if failed {
				os.Exit(CheckExitViolation)
			}
			os.Exit(CheckExitSuccess)

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name, excluded)
				}
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fired = debounce.C

		case <-fired:
			fired = nil
			failed = runWatchAudit(ctx, cfg, target)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

// watchTree registers root and every non-excluded subdirectory.
func watchTree(watcher *fsnotify.Watcher, root string, excluded map[string]bool) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if excluded[d.Name()] {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

func runWatchAudit(ctx context.Context, cfg *auditor.Config, target string) bool {
	a, err := auditor.New(os.DirFS(target), cfg, auditor.WithLogger(log.Slog()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return true
	}
	result, err := a.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: audit failed: %v\n", err)
		return true
	}

	fmt.Printf("\n[%s] ", time.Now().Format("15:04:05"))
	outputCheckText(result)
	return !result.Passed
}

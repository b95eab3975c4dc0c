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
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// AUDIT CONFIGURATION
// =============================================================================

// Config is the explicit audit configuration. It is constructed by the
// caller (from YAML or programmatically) and passed into New; nothing
// in this package reads global state.
type Config struct {
	// Roots are the tree roots to walk, relative to the audited fs.FS.
	Roots []string `yaml:"roots"`
	// Extensions are the file extensions collected, dot included.
	Extensions []string `yaml:"extensions"`
	// ExcludeDirs are directory basenames pruned during the walk.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// Workers bounds evaluation parallelism. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Tokens        TokenConfig         `yaml:"tokens"`
	Utility       UtilityConfig       `yaml:"utility"`
	Copy          CopyConfig          `yaml:"copy"`
	Accessibility AccessibilityConfig `yaml:"accessibility"`
	Layering      LayeringConfig      `yaml:"layering"`
	Duplication   DuplicationConfig   `yaml:"duplication"`
	Allow         AllowConfig         `yaml:"allowlist"`

	allow Allowlist
}

// TokenConfig configures the raw color-literal rule.
type TokenConfig struct {
	// DefinitionFiles are the token sources where raw literals are
	// legitimate. They are excluded from the rule, not from the walk.
	DefinitionFiles []string `yaml:"definition_files"`
}

// UtilityConfig configures the ad hoc utility-value rule.
type UtilityConfig struct {
	// AllowedValues are content patterns for bracket values that are
	// sanctioned extensions of the design scale.
	AllowedValues []string `yaml:"allowed_values"`
}

// CopyConfig configures banned phrases and preferred terminology.
type CopyConfig struct {
	// UIPaths limits copy rules to user-facing directories.
	UIPaths []string `yaml:"ui_paths"`
	// ExcludePaths removes non-rendered areas such as type
	// definition directories.
	ExcludePaths  []string   `yaml:"exclude_paths"`
	BannedPhrases []string   `yaml:"banned_phrases"`
	Terminology   []TermRule `yaml:"terminology"`
}

// TermRule maps a discouraged term to its preferred replacement.
// ExceptPaths carve out areas where the term is legitimate domain
// vocabulary.
type TermRule struct {
	Avoid       string   `yaml:"avoid"`
	Prefer      string   `yaml:"prefer"`
	ExceptPaths []string `yaml:"except_paths"`
}

// AccessibilityConfig configures the accessible-name rules.
type AccessibilityConfig struct {
	// Controls are the form control tag names that must carry an
	// accessible name.
	Controls []string `yaml:"controls"`
	// NameAttributes are the attributes accepted as an accessible
	// name on a control.
	NameAttributes []string `yaml:"name_attributes"`
}

// LayeringConfig configures the page layering rules.
type LayeringConfig struct {
	// PagePaths identify top-level page files.
	PagePaths []string `yaml:"page_paths"`
	// Container designates the shared container component pages must
	// wrap content in, directly or through a layout component.
	Container ContainerConfig `yaml:"container"`
	// PrimitiveImports are import patterns pages must not use.
	PrimitiveImports []string `yaml:"primitive_imports"`
	// FormMarkers are form-orchestration patterns banned from pages.
	FormMarkers []string `yaml:"form_markers"`
}

// ContainerConfig designates the canonical shared container.
type ContainerConfig struct {
	Component string `yaml:"component"`
	// File is the canonical container source. When Required is true
	// and the collected tree lacks it, the audit fails with a
	// configuration error.
	File     string `yaml:"file"`
	Required bool   `yaml:"required"`
	// LayoutPaths locate layout/template components that may wrap
	// the container on a page's behalf.
	LayoutPaths []string `yaml:"layout_paths"`
}

// DuplicationConfig configures duplicate-implementation detection.
type DuplicationConfig struct {
	Pairs []DuplicatePair `yaml:"pairs"`
}

// DuplicatePair names one canonical component and the path pattern
// that identifies would-be duplicates of it.
type DuplicatePair struct {
	Name      string `yaml:"name"`
	Canonical string `yaml:"canonical"`
	// Candidates are path patterns matching potential duplicates.
	Candidates []string `yaml:"candidates"`
	// Required fails the audit with a configuration error when the
	// canonical file is absent from the collected tree.
	Required bool `yaml:"required"`
}

// AllowConfig is the two-tier allowlist as written in YAML.
type AllowConfig struct {
	// Directories are broad path-only exemptions.
	Directories []string `yaml:"directories"`
	// Classes are narrow (path, content) exemptions.
	Classes []ClassExemption `yaml:"classes"`
}

// ClassExemption exempts specific content within a path.
type ClassExemption struct {
	Path        string `yaml:"path"`
	Content     string `yaml:"content"`
	Description string `yaml:"description"`
}

// LoadConfig reads and validates a YAML config file. An empty path
// yields the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates YAML config bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies defaults and compiles every configured pattern so
// malformed expressions surface before any file is scanned.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		c.Roots = []string{"."}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".tsx", ".ts", ".jsx", ".js", ".css"}
	}

	allow, err := c.Allow.compile()
	if err != nil {
		return err
	}
	c.allow = allow

	// Dry-compile the remaining pattern lists used by rule building.
	lists := [][]string{
		c.Utility.AllowedValues,
		c.Copy.UIPaths,
		c.Copy.ExcludePaths,
		c.Layering.PagePaths,
		c.Layering.Container.LayoutPaths,
		c.Layering.PrimitiveImports,
		c.Layering.FormMarkers,
	}
	for _, t := range c.Copy.Terminology {
		if t.Avoid == "" {
			return fmt.Errorf("%w: terminology entry missing avoid term", ErrConfig)
		}
		lists = append(lists, t.ExceptPaths)
	}
	for _, p := range c.Duplication.Pairs {
		if p.Canonical == "" {
			return fmt.Errorf("%w: duplicate pair %q missing canonical path", ErrConfig, p.Name)
		}
		lists = append(lists, p.Candidates)
	}
	for _, list := range lists {
		if _, err := compilePatterns(list); err != nil {
			return err
		}
	}
	return nil
}

// Allowlist returns the compiled global allowlist. Validate must have
// succeeded first.
func (c *Config) Allowlist() Allowlist {
	return c.allow
}

func (a AllowConfig) compile() (Allowlist, error) {
	var out Allowlist
	for _, dir := range a.Directories {
		re, err := regexp.Compile(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: allowlist directory pattern %q: %v", ErrConfig, dir, err)
		}
		out = append(out, NewDirectoryExemption(dir, re))
	}
	for _, cls := range a.Classes {
		pathRe, err := regexp.Compile(cls.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: allowlist class path %q: %v", ErrConfig, cls.Path, err)
		}
		contentRe, err := regexp.Compile(cls.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: allowlist class content %q: %v", ErrConfig, cls.Content, err)
		}
		desc := cls.Description
		if desc == "" {
			desc = cls.Content
		}
		out = append(out, NewContentExemption(desc, pathRe, contentRe))
	}
	return out, nil
}

// compilePatterns compiles a pattern list, wrapping failures in
// ErrConfig.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed pattern %q: %v", ErrConfig, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

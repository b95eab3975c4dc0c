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
	"path"
	"regexp"
	"strings"
	"sync"
)

// =============================================================================
// PATTERN REGISTRY
// =============================================================================

// Registry holds the ordered rule set for one audit configuration.
//
// Description:
//
//	Build compiles every configured convention into a RuleDefinition.
//	Rules that need cross-file knowledge (which layout components wrap
//	the shared container, which duplicate candidates are actually
//	referenced) fold that knowledge into rule data during a prepass
//	over the collected corpus, so evaluation stays a single uniform
//	pass with no per-category control flow.
//
// Thread Safety: Safe for concurrent use after Build.
type Registry struct {
	mu    sync.RWMutex
	rules []RuleDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Rules returns a copy of the built rule set.
func (r *Registry) Rules() []RuleDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RuleDefinition, len(r.rules))
	copy(out, r.rules)
	return out
}

// Build compiles the configuration into rules against the collected
// corpus.
//
// Inputs:
//
//	cfg    - Validated audit configuration
//	corpus - Collected files, used by prepass-dependent rules
//
// Outputs:
//
//	error - ErrConfig on malformed patterns, ErrMissingCanonical when
//	        a required canonical file is absent from the corpus
func (r *Registry) Build(cfg *Config, corpus []SourceFile) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidInput)
	}

	var rules []RuleDefinition
	builders := []func(*Config, []SourceFile) ([]RuleDefinition, error){
		buildTokenRules,
		buildUtilityRules,
		buildCopyRules,
		buildAccessibilityRules,
		buildLayeringRules,
		buildDuplicationRules,
	}
	for _, build := range builders {
		rs, err := build(cfg, corpus)
		if err != nil {
			return err
		}
		rules = append(rules, rs...)
	}

	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()
	return nil
}

// =============================================================================
// RULE BUILDERS
// =============================================================================

// rawColorRe matches hex colors and rgb()/hsl() function literals.
var rawColorRe = regexp.MustCompile(`(?i)#(?:[0-9a-f]{8}|[0-9a-f]{6}|[0-9a-f]{4}|[0-9a-f]{3})\b|\brgba?\s*\(|\bhsla?\s*\(`)

func buildTokenRules(cfg *Config, _ []SourceFile) ([]RuleDefinition, error) {
	exclude := exactPathPatterns(cfg.Tokens.DefinitionFiles)
	return []RuleDefinition{{
		ID:           "no-raw-color",
		Category:     CategoryTokens,
		Summary:      "raw color literal outside the token sources",
		Hint:         "Use a semantic design token instead of a raw color literal.",
		Scope:        ScopeLine,
		Mode:         ModeForbid,
		Pattern:      rawColorRe,
		ExcludePaths: exclude,
	}}, nil
}

// adhocUtilityRe matches utility classes carrying arbitrary bracket
// values, e.g. w-[342px] or text-[#1a2b3c].
var adhocUtilityRe = regexp.MustCompile(`\b[a-z]+(?:-[a-z]+)*-\[[^\[\]\s]+\]`)

func buildUtilityRules(cfg *Config, _ []SourceFile) ([]RuleDefinition, error) {
	exclude := exactPathPatterns(cfg.Tokens.DefinitionFiles)
	var allow Allowlist
	for _, v := range cfg.Utility.AllowedValues {
		contentRe, err := regexp.Compile(v)
		if err != nil {
			return nil, fmt.Errorf("%w: allowed utility value %q: %v", ErrConfig, v, err)
		}
		allow = append(allow, NewContentExemption(v, anyPathRe, contentRe))
	}
	return []RuleDefinition{{
		ID:           "no-adhoc-utility-value",
		Category:     CategoryUtility,
		Summary:      "ad hoc utility-class value outside the design scale",
		Hint:         "Extend the design scale instead of using a bracket value.",
		Scope:        ScopeLine,
		Mode:         ModeForbid,
		Pattern:      adhocUtilityRe,
		ExcludePaths: exclude,
		Allow:        allow,
	}}, nil
}

func buildCopyRules(cfg *Config, _ []SourceFile) ([]RuleDefinition, error) {
	include, err := compilePatterns(cfg.Copy.UIPaths)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(cfg.Copy.ExcludePaths)
	if err != nil {
		return nil, err
	}

	var rules []RuleDefinition
	if len(cfg.Copy.BannedPhrases) > 0 {
		quoted := make([]string, len(cfg.Copy.BannedPhrases))
		for i, p := range cfg.Copy.BannedPhrases {
			quoted[i] = regexp.QuoteMeta(p)
		}
		rules = append(rules, RuleDefinition{
			ID:           "banned-phrase",
			Category:     CategoryCopy,
			Summary:      "banned phrase in user-facing text",
			Hint:         "Reword the copy; these phrases are excluded from the product voice.",
			Scope:        ScopeLine,
			Mode:         ModeForbid,
			Pattern:      regexp.MustCompile(strings.Join(quoted, "|")),
			IncludePaths: include,
			ExcludePaths: exclude,
		})
	}

	for _, term := range cfg.Copy.Terminology {
		except, err := compilePatterns(term.ExceptPaths)
		if err != nil {
			return nil, err
		}
		pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(term.Avoid) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("%w: terminology term %q: %v", ErrConfig, term.Avoid, err)
		}
		hint := "Avoid this term in user-facing text."
		if term.Prefer != "" {
			hint = fmt.Sprintf("Use %q instead of %q.", term.Prefer, term.Avoid)
		}
		rules = append(rules, RuleDefinition{
			ID:           "terminology-" + slug(term.Avoid),
			Category:     CategoryCopy,
			Summary:      fmt.Sprintf("discouraged term %q in user-facing text", term.Avoid),
			Hint:         hint,
			Scope:        ScopeLine,
			Mode:         ModeForbid,
			Pattern:      pattern,
			IncludePaths: include,
			ExcludePaths: append(append([]*regexp.Regexp{}, exclude...), except...),
		})
	}
	return rules, nil
}

func buildAccessibilityRules(cfg *Config, _ []SourceFile) ([]RuleDefinition, error) {
	var rules []RuleDefinition

	if len(cfg.Accessibility.Controls) > 0 {
		controls := make([]string, len(cfg.Accessibility.Controls))
		for i, c := range cfg.Accessibility.Controls {
			controls[i] = regexp.QuoteMeta(c)
		}
		attrs := cfg.Accessibility.NameAttributes
		if len(attrs) == 0 {
			attrs = []string{"aria-label", "aria-labelledby", "title", "id"}
		}
		quotedAttrs := make([]string, len(attrs))
		for i, a := range attrs {
			quotedAttrs[i] = regexp.QuoteMeta(a)
		}

		// A control tag can span lines, so the whole open tag is
		// matched document-scope and discarded when it carries one
		// of the accepted name attributes.
		controlRe, err := regexp.Compile(`(?i)<(?:` + strings.Join(controls, "|") + `)\b[^>]*`)
		if err != nil {
			return nil, fmt.Errorf("%w: accessibility controls: %v", ErrConfig, err)
		}
		unlessRe, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quotedAttrs, "|") + `)\s*=`)
		if err != nil {
			return nil, fmt.Errorf("%w: accessibility name attributes: %v", ErrConfig, err)
		}
		rules = append(rules, RuleDefinition{
			ID:       "control-accessible-name",
			Category: CategoryAccessibility,
			Summary:  "form control without an accessible name",
			Hint:     "Give the control an aria-label, aria-labelledby, title, or a labelled id.",
			Scope:    ScopeDocument,
			Mode:     ModeForbid,
			Pattern:  controlRe,
			Unless:   unlessRe,
		})
	}

	rules = append(rules, RuleDefinition{
		ID:       "th-accessible-label",
		Category: CategoryAccessibility,
		Summary:  "empty table header cell without an accessible label",
		Hint:     "Add header text or an aria-label to the th element.",
		Scope:    ScopeDocument,
		Mode:     ModeForbid,
		Pattern:  regexp.MustCompile(`(?i)<th(?:\s[^>]*)?>\s*</th>`),
		Unless:   regexp.MustCompile(`(?i)aria-label`),
	})
	return rules, nil
}

func buildLayeringRules(cfg *Config, corpus []SourceFile) ([]RuleDefinition, error) {
	pages, err := compilePatterns(cfg.Layering.PagePaths)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}

	var rules []RuleDefinition
	if cfg.Layering.Container.Component != "" {
		wrapperRe, err := containerWrapperPattern(cfg, corpus)
		if err != nil {
			return nil, err
		}
		rules = append(rules, RuleDefinition{
			ID:           "page-shared-container",
			Category:     CategoryLayering,
			Summary:      "page does not wrap content in the shared container",
			Hint:         fmt.Sprintf("Wrap the page in %s, directly or through a layout component.", cfg.Layering.Container.Component),
			Scope:        ScopeDocument,
			Mode:         ModeRequire,
			Pattern:      wrapperRe,
			IncludePaths: pages,
		})
	}

	if len(cfg.Layering.PrimitiveImports) > 0 {
		primRe, err := alternation(cfg.Layering.PrimitiveImports)
		if err != nil {
			return nil, err
		}
		rules = append(rules, RuleDefinition{
			ID:           "page-no-primitive-import",
			Category:     CategoryLayering,
			Summary:      "page imports a low-level primitive directly",
			Hint:         "Compose primitives inside feature components; pages consume those.",
			Scope:        ScopeLine,
			Mode:         ModeForbid,
			Pattern:      primRe,
			IncludePaths: pages,
		})
	}

	if len(cfg.Layering.FormMarkers) > 0 {
		formRe, err := alternation(cfg.Layering.FormMarkers)
		if err != nil {
			return nil, err
		}
		rules = append(rules, RuleDefinition{
			ID:           "page-no-form-orchestration",
			Category:     CategoryLayering,
			Summary:      "page embeds form orchestration logic",
			Hint:         "Move form state and submission into a composed feature component.",
			Scope:        ScopeLine,
			Mode:         ModeForbid,
			Pattern:      formRe,
			IncludePaths: pages,
		})
	}
	return rules, nil
}

// containerWrapperPattern builds the pattern satisfied by a page that
// wraps content in the shared container. The prepass scans layout
// directories for components that render the container themselves;
// rendering or importing one of those also satisfies the rule.
func containerWrapperPattern(cfg *Config, corpus []SourceFile) (*regexp.Regexp, error) {
	container := cfg.Layering.Container
	if container.Required && container.File != "" && !corpusContains(corpus, container.File) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCanonical, container.File)
	}

	layoutPaths, err := compilePatterns(container.LayoutPaths)
	if err != nil {
		return nil, err
	}
	names := []string{regexp.QuoteMeta(container.Component)}
	renderRe := regexp.MustCompile(`<` + regexp.QuoteMeta(container.Component) + `\b`)
	for _, f := range corpus {
		if f.Path == container.File || !matchesAny(layoutPaths, f.Path) {
			continue
		}
		if renderRe.MatchString(f.RawContent) {
			names = append(names, regexp.QuoteMeta(componentName(f.Path)))
		}
	}

	name := `(?:` + strings.Join(names, "|") + `)`
	expr := `<` + name + `\b|from\s+['"][^'"]*/` + name + `(?:\.[jt]sx?)?['"]`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: container wrapper pattern: %v", ErrConfig, err)
	}
	return re, nil
}

// implementationRe matches lines that define a component rather than
// re-export one.
var implementationRe = regexp.MustCompile(`(?m)^\s*(?:export\s+(?:default\s+)?)?(?:function\s+[A-Z]\w*|class\s+[A-Z]\w*|const\s+[A-Z]\w*\s*[:=])`)

// reExportLineRe matches a thin re-export line. A file whose every
// non-blank normalized line matches it is a wrapper, not a duplicate.
var reExportLineRe = regexp.MustCompile(`^\s*export\s+(?:\*|\{[^}]*\})\s+from\s+['"][^'"]+['"];?\s*$`)

func buildDuplicationRules(cfg *Config, corpus []SourceFile) ([]RuleDefinition, error) {
	var rules []RuleDefinition
	for _, pair := range cfg.Duplication.Pairs {
		candidateRes, err := compilePatterns(pair.Candidates)
		if err != nil {
			return nil, err
		}
		if !corpusContains(corpus, pair.Canonical) {
			if pair.Required {
				return nil, fmt.Errorf("%w: %s", ErrMissingCanonical, pair.Canonical)
			}
			continue
		}

		// Only candidates some other file actually references are
		// duplicates worth reporting; an orphaned copy is dead code,
		// not a fork in active use.
		var include []*regexp.Regexp
		for _, f := range corpus {
			if f.Path == pair.Canonical || !matchesAny(candidateRes, f.Path) {
				continue
			}
			if referencedElsewhere(corpus, f.Path) {
				include = append(include, exactPathPattern(f.Path))
			}
		}
		if len(include) == 0 {
			continue
		}

		rules = append(rules, RuleDefinition{
			ID:             "duplicate-" + slug(pair.Name),
			Category:       CategoryDuplication,
			Summary:        fmt.Sprintf("independent implementation duplicating %s", pair.Canonical),
			Hint:           fmt.Sprintf("Re-export %s instead of maintaining a second implementation.", pair.Canonical),
			Scope:          ScopeDocument,
			Mode:           ModeForbid,
			Pattern:        implementationRe,
			IncludePaths:   include,
			ExemptWhenOnly: reExportLineRe,
		})
	}
	return rules, nil
}

// =============================================================================
// PREPASS HELPERS
// =============================================================================

var anyPathRe = regexp.MustCompile(``)

func corpusContains(corpus []SourceFile, filePath string) bool {
	for _, f := range corpus {
		if f.Path == filePath {
			return true
		}
	}
	return false
}

// referencedElsewhere reports whether any other corpus file imports
// the given file by basename.
func referencedElsewhere(corpus []SourceFile, filePath string) bool {
	importRe := regexp.MustCompile(`from\s+['"][^'"]*/` + regexp.QuoteMeta(componentName(filePath)) + `(?:\.[jt]sx?)?['"]`)
	for _, f := range corpus {
		if f.Path == filePath {
			continue
		}
		if importRe.MatchString(f.RawContent) {
			return true
		}
	}
	return false
}

func componentName(filePath string) string {
	base := path.Base(filePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func exactPathPattern(p string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(p) + `$`)
}

func exactPathPatterns(paths []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(paths))
	for _, p := range paths {
		out = append(out, exactPathPattern(p))
	}
	return out
}

// alternation joins already-valid patterns into one. Each part keeps
// its own grouping.
func alternation(patterns []string) (*regexp.Regexp, error) {
	parts := make([]string, len(patterns))
	for i, p := range patterns {
		parts[i] = `(?:` + p + `)`
	}
	re, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed pattern in %v: %v", ErrConfig, patterns, err)
	}
	return re, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

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
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectorConfig(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func paths(files []SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestCollect_WalksRootsSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"src/pages/Home.tsx":  &fstest.MapFile{Data: []byte("const a = 1\n")},
		"src/App.tsx":         &fstest.MapFile{Data: []byte("const b = 2\n")},
		"src/app.css":         &fstest.MapFile{Data: []byte("body {}\n")},
		"docs/readme.md":      &fstest.MapFile{Data: []byte("ignored extension\n")},
		"src/util/helpers.ts": &fstest.MapFile{Data: []byte("const c = 3\n")},
	}
	cfg := collectorConfig(t, "roots:\n  - src\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"src/App.tsx",
		"src/app.css",
		"src/pages/Home.tsx",
		"src/util/helpers.ts",
	}, paths(result.Files))
}

func TestCollect_ExcludesDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"src/App.tsx":                  &fstest.MapFile{Data: []byte("a\n")},
		"src/node_modules/pkg/x.ts":    &fstest.MapFile{Data: []byte("b\n")},
		"src/__tests__/App.helper.tsx": &fstest.MapFile{Data: []byte("c\n")},
	}
	cfg := collectorConfig(t, "roots:\n  - src\nexclude_dirs:\n  - node_modules\n  - __tests__\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App.tsx"}, paths(result.Files))
}

// Declaration, test, and story files never reach rule evaluation.
func TestCollect_SkipsGeneratedAndTestFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"src/App.tsx":             &fstest.MapFile{Data: []byte("a\n")},
		"src/api.d.ts":            &fstest.MapFile{Data: []byte("declare const x: 1\n")},
		"src/App.test.tsx":        &fstest.MapFile{Data: []byte("test\n")},
		"src/App.spec.ts":         &fstest.MapFile{Data: []byte("spec\n")},
		"src/Button.stories.tsx":  &fstest.MapFile{Data: []byte("story\n")},
	}
	cfg := collectorConfig(t, "roots:\n  - src\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App.tsx"}, paths(result.Files))
}

func TestCollect_SkipsBinary(t *testing.T) {
	fsys := fstest.MapFS{
		"src/App.tsx":  &fstest.MapFile{Data: []byte("text\n")},
		"src/blob.css": &fstest.MapFile{Data: []byte{0x00, 0x01, 0x02}},
	}
	cfg := collectorConfig(t, "roots:\n  - src\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App.tsx"}, paths(result.Files))
	assert.Equal(t, 1, result.Skipped)
}

// A missing root is a warning, not a failure; other roots still walk.
func TestCollect_MissingRootWarns(t *testing.T) {
	fsys := fstest.MapFS{
		"src/App.tsx": &fstest.MapFile{Data: []byte("a\n")},
	}
	cfg := collectorConfig(t, "roots:\n  - absent\n  - src\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/App.tsx"}, paths(result.Files))
	assert.NotEmpty(t, result.Warnings)
}

func TestCollect_NilContext(t *testing.T) {
	cfg := collectorConfig(t, "roots:\n  - src\n")
	//nolint:staticcheck // deliberately passing nil
	_, err := NewCollector(fstest.MapFS{}, cfg, nil).Collect(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCollect_DerivesNormalizedContent(t *testing.T) {
	fsys := fstest.MapFS{
		"src/App.tsx": &fstest.MapFile{Data: []byte("// comment\nconst a = 1\n")},
	}
	cfg := collectorConfig(t, "roots:\n  - src\n")

	result, err := NewCollector(fsys, cfg, nil).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)

	f := result.Files[0]
	assert.Equal(t, "// comment\nconst a = 1\n", f.RawContent)
	assert.Equal(t, "\nconst a = 1\n", f.NormalizedContent)
	assert.Equal(t, "const a = 1", f.RawLine(2))
}

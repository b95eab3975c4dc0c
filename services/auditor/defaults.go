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

import _ "embed"

// defaultConfigYAML is the built-in configuration used when the caller
// supplies no config file.
//
//go:embed audit_defaults.yaml
var defaultConfigYAML []byte

// DefaultConfig returns the embedded default configuration, validated.
func DefaultConfig() (*Config, error) {
	return ParseConfig(defaultConfigYAML)
}

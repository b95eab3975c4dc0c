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
	"errors"
	"fmt"
)

// Sentinel errors for the auditor package. Callers distinguish
// configuration failures (exit code 2) from violation verdicts
// (exit code 1) using errors.Is against ErrConfig.
var (
	// ErrInvalidInput indicates a nil context or invalid argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates the audit configuration is unusable:
	// a malformed pattern, an empty rule set, or inconsistent options.
	ErrConfig = errors.New("configuration error")

	// ErrMissingCanonical indicates a rule declared a canonical
	// reference file as required and the collected tree does not
	// contain it.
	ErrMissingCanonical = fmt.Errorf("%w: required canonical file missing", ErrConfig)
)

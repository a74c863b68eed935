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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Operation completed with findings (gap, non-compliance)
	CLIExitError    = 2 // Operation failed
)

// OutputJSON writes structured data as JSON to stdout.
//
// # Inputs
//
//   - data: The data to encode. Must be JSON-serializable.
//   - compact: If true, output without indentation.
//
// # Outputs
//
//   - error: Non-nil if encoding fails.
func OutputJSON(data interface{}, compact bool) error {
	encoder := json.NewEncoder(os.Stdout)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// OutputError writes an error in the appropriate format.
//
// # Inputs
//
//   - jsonMode: If true, output as JSON to stdout.
//   - msg: Human-readable error message.
//   - err: The underlying error.
func OutputError(jsonMode bool, msg string, err error) {
	if jsonMode {
		result := struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{
			Success: false,
			Error:   fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	}
}

// StandardsListResult holds standards list output.
type StandardsListResult struct {
	SchemaVersion string        `json:"schema_version"`
	Source        string        `json:"source"`
	Standards     []StandardRow `json:"standards"`
	Count         int           `json:"count"`
}

// StandardRow represents a standard in list output.
type StandardRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Authority   string `json:"authority"`
	ClauseCount int    `json:"clause_count"`
}

// StandardsVerifyResult holds standards verification output.
type StandardsVerifyResult struct {
	Valid    bool   `json:"valid"`
	Hash     string `json:"hash"`
	ByteSize int    `json:"byte_size"`
}

// parseBand converts a flag value into a risk band.
func parseBand(s string) (datatypes.RiskBand, error) {
	band := datatypes.RiskBand(strings.ToLower(strings.TrimSpace(s)))
	if !band.Valid() {
		return "", fmt.Errorf("band %q must be low, medium, or high", s)
	}
	return band, nil
}

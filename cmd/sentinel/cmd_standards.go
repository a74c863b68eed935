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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	standardsRegistry string
	standardsJSON     bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Regulatory standards registry commands",
}

var standardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the standards the engine can assess against",
	Long: `List every standard in the clause registry.

By default the compiled-in registry is shown (or the override named by
STANDARDS_REGISTRY_PATH when set). Pass --registry to inspect a
specific registry file instead.

Examples:
  sentinel standards list
  sentinel standards list --json
  sentinel standards list --registry ./standards.yaml

Exit Codes:
  0 = Registry listed
  2 = Error (registry failed to load)`,
	Run: runStandardsList,
}

var standardsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the checksum of the compiled-in clause registry",
	Long: `Verify which clause tables this binary ships with.

Prints the SHA-256 of the embedded registry definitions so operators
can compare binaries across environments before trusting their
compliance output.

Examples:
  sentinel standards verify
  sentinel standards verify --json

Exit Codes:
  0 = Checksum printed
  2 = Error`,
	Run: runStandardsVerify,
}

func init() {
	standardsListCmd.Flags().StringVar(&standardsRegistry, "registry", "",
		"Registry file to inspect instead of the compiled-in default")
	standardsListCmd.Flags().BoolVar(&standardsJSON, "json", false,
		"Output as JSON")
	standardsVerifyCmd.Flags().BoolVar(&standardsJSON, "json", false,
		"Output as JSON")

	standardsCmd.AddCommand(standardsListCmd)
	standardsCmd.AddCommand(standardsVerifyCmd)
	rootCmd.AddCommand(standardsCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runStandardsList(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	var reg *compliance.StandardsRegistry
	var err error
	if standardsRegistry != "" {
		reg, err = compliance.ReloadStandardsRegistry(ctx, standardsRegistry)
	} else {
		reg, err = compliance.GetStandardsRegistry(ctx)
	}
	if err != nil {
		OutputError(standardsJSON, "Failed to load standards registry", err)
		os.Exit(CLIExitError)
	}

	if standardsJSON {
		result := StandardsListResult{
			SchemaVersion: reg.SchemaVersion(),
			Source:        reg.Source(),
			Count:         reg.Count(),
		}
		for _, std := range reg.Standards() {
			result.Standards = append(result.Standards, StandardRow{
				ID:          std.ID,
				Name:        std.Name,
				Authority:   std.Authority,
				ClauseCount: std.ClauseCount(),
			})
		}
		if err := OutputJSON(result, false); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(CLIExitError)
		}
		return
	}

	ux.Title(fmt.Sprintf("Standards registry (%s, schema %s)", reg.Source(), reg.SchemaVersion()))
	for _, std := range reg.Standards() {
		fmt.Printf("  %-14s %s\n", std.ID, std.Name)
		fmt.Printf("  %-14s %s, %d clause(s)\n", "", std.Authority, std.ClauseCount())
	}
	fmt.Printf("\n%d standard(s)\n", reg.Count())
}

func runStandardsVerify(cmd *cobra.Command, args []string) {
	sum := sha256.Sum256(compliance.DefaultStandardsYAML)

	result := StandardsVerifyResult{
		Valid:    len(compliance.DefaultStandardsYAML) > 0,
		Hash:     hex.EncodeToString(sum[:]),
		ByteSize: len(compliance.DefaultStandardsYAML),
	}

	if standardsJSON {
		if err := OutputJSON(result, false); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(CLIExitError)
		}
		return
	}

	fmt.Printf("Embedded registry: %d bytes\n", result.ByteSize)
	fmt.Printf("SHA-256: %s\n", result.Hash)
	if !result.Valid {
		ux.Error("Embedded registry is empty")
		os.Exit(CLIExitError)
	}
}

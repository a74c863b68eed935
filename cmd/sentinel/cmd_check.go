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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/middleware"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/store"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	checkStandards []string
	checkExclude   []string
	checkRegistry  string
	checkStrict    bool
	checkJSON      bool
	checkQuiet     bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var checkCmd = &cobra.Command{
	Use:   "check [analysis-file]",
	Short: "Check an analysis export for regulatory compliance",
	Long: `Run the clause-by-clause compliance check over an analysis export.

The analysis file is YAML (or JSON) in the platform export format: the
analysis record with its risk entries and LOPA scenarios. Entries with
a zero stored score are scored on load, matching server-side seeding.

The check runs against every registry standard unless --standards
narrows the set. Clauses excluded by site scope configuration are
listed with --exclude as standard_id/clause_ref tokens and evaluate to
not applicable.

Intended for CI gates: the exit code reflects the overall status, so a
pipeline can fail a merge that would regress a unit's compliance
posture.

Examples:
  sentinel check analysis.yaml
  sentinel check analysis.yaml --standards iec_61511,osha_psm
  sentinel check analysis.yaml --exclude osha_psm/1910.119(j) --json
  sentinel check analysis.yaml --strict    # fail unless fully compliant

Exit Codes:
  0 = Compliant (with --strict: fully compliant)
  1 = Compliance findings (non-compliant; with --strict: anything less
      than compliant)
  2 = Error (unreadable file, invalid analysis, unknown standard)`,
	Args: cobra.ExactArgs(1),
	Run:  runCheckCommand,
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkStandards, "standards", nil,
		"Standards to check (default: every registry standard)")
	checkCmd.Flags().StringSliceVar(&checkExclude, "exclude", nil,
		"Clauses excluded by scope, as standard_id/clause_ref tokens")
	checkCmd.Flags().StringVar(&checkRegistry, "registry", "",
		"Registry file to check against instead of the compiled-in default")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false,
		"Fail unless the overall status is compliant")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output as JSON")
	checkCmd.Flags().BoolVar(&checkQuiet, "quiet", false,
		"Only exit code, no output")

	rootCmd.AddCommand(checkCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runCheckCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if checkRegistry != "" {
		if _, err := compliance.ReloadStandardsRegistry(ctx, checkRegistry); err != nil {
			OutputError(checkJSON, "Failed to load standards registry", err)
			os.Exit(CLIExitError)
		}
	}

	analysis, err := loadAnalysisFile(args[0])
	if err != nil {
		OutputError(checkJSON, "Failed to load analysis", err)
		os.Exit(CLIExitError)
	}

	doc, err := checkAnalysisCompliance(ctx, analysis, checkStandards, checkExclude)
	if err != nil {
		OutputError(checkJSON, "Compliance check failed", err)
		os.Exit(CLIExitError)
	}
	cliLogger.Debug("checked analysis",
		"file", args[0],
		"overall_status", string(doc.OverallStatus),
		"overall_percentage", doc.OverallPercentage,
	)

	if !checkQuiet {
		if checkJSON {
			if err := OutputJSON(doc, false); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
				os.Exit(CLIExitError)
			}
		} else {
			outputComplianceText(doc)
		}
	}

	switch {
	case checkStrict && doc.OverallStatus != datatypes.StatusCompliant:
		os.Exit(CLIExitFindings)
	case doc.OverallStatus == datatypes.StatusNonCompliant:
		os.Exit(CLIExitFindings)
	}
}

// loadAnalysisFile parses a YAML or JSON analysis export, fills missing
// identifiers, and scores entries the export left unscored.
func loadAnalysisFile(path string) (*datatypes.Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis file %s: %w", path, err)
	}

	var analysis datatypes.Analysis
	if err := yaml.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis file %s: %w", path, err)
	}

	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	if analysis.ProjectID == "" {
		analysis.ProjectID = uuid.NewString()
	}
	for i := range analysis.Entries {
		entry := &analysis.Entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.Score != 0 {
			continue
		}
		score, band, err := scoring.ScoreEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("score entry %s: %w", entry.ID, err)
		}
		entry.Score = score
		entry.Band = band
	}

	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("validate analysis %s: %w", analysis.ID, err)
	}
	return &analysis, nil
}

// checkAnalysisCompliance stages the analysis in an in-memory store and
// computes its compliance document, mirroring the server-side pipeline.
func checkAnalysisCompliance(ctx context.Context, analysis *datatypes.Analysis, standards, excluded []string) (*datatypes.AnalysisComplianceStatus, error) {
	mem := store.NewMemory()
	project := &datatypes.Project{
		ID:   analysis.ProjectID,
		Name: "Local check",
	}
	if err := mem.PutProject(ctx, project); err != nil {
		return nil, err
	}
	if err := mem.PutAnalysis(ctx, analysis); err != nil {
		return nil, err
	}

	ag, err := compliance.NewAggregator(compliance.AggregatorConfig{
		Store:           mem,
		Access:          store.AllowAll{},
		ExcludedClauses: excluded,
	})
	if err != nil {
		return nil, err
	}
	return ag.AnalysisCompliance(ctx, middleware.LocalPrincipal, analysis.ID, standards)
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func outputComplianceText(doc *datatypes.AnalysisComplianceStatus) {
	ux.Title(fmt.Sprintf("Compliance: %s", doc.AnalysisName))
	fmt.Printf("  Entries: %d  Scenarios: %d\n\n", doc.EntryCount, doc.ScenarioCount)

	for _, std := range doc.Standards {
		fmt.Printf("%s (%s): %d%% %s\n",
			std.StandardName, std.StandardID,
			std.CompliancePercentage, statusIndicator(std.OverallStatus))
		fmt.Printf("  compliant %d | partial %d | non-compliant %d | n/a %d | not assessed %d\n",
			std.CompliantCount, std.PartiallyCompliantCount,
			std.NonCompliantCount, std.NotApplicableCount, std.NotAssessedCount)

		for _, clause := range std.Clauses {
			if clause.Status != datatypes.ClauseNonCompliant {
				continue
			}
			fmt.Printf("  [X] %s %s\n", clause.Ref, clause.Title)
		}
		fmt.Println()
	}

	fmt.Printf("Overall: %d%% %s (%s)\n",
		doc.OverallPercentage, statusIndicator(doc.OverallStatus), doc.OverallStatus)
}

func statusIndicator(status datatypes.ComplianceStatus) string {
	switch status {
	case datatypes.StatusCompliant:
		return "[ok]"
	case datatypes.StatusPartial:
		return "[!]"
	case datatypes.StatusNonCompliant:
		return "[!!]"
	default:
		return "[-]"
	}
}

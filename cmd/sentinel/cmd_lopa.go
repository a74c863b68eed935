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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	lopaAdequate float64
	lopaMarginal float64
	lopaJSON     bool
	lopaQuiet    bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var lopaCmd = &cobra.Command{
	Use:   "lopa",
	Short: "Layer of protection analysis commands",
}

var lopaAnalyzeCmd = &cobra.Command{
	Use:   "analyze [scenario-file]",
	Short: "Gap-check a hazard scenario against its protection layers",
	Long: `Run a layer-of-protection gap analysis over a scenario file.

The scenario file is YAML (or JSON) in the platform export format:
initiating event frequency, tolerable target frequency, and the list of
claimed protection layers. Layers failing either independence judgement
stay on record but are never credited.

Examples:
  sentinel lopa analyze scenario.yaml
  sentinel lopa analyze scenario.yaml --json
  sentinel lopa analyze scenario.yaml --adequate 2.0   # demand 2x margin
  sentinel lopa analyze scenario.yaml --quiet          # exit code only

Exit Codes:
  0 = Credited protection is adequate
  1 = Gap found (marginal or inadequate protection)
  2 = Error (unreadable file, invalid scenario)`,
	Args: cobra.ExactArgs(1),
	Run:  runLopaAnalyze,
}

func init() {
	defaults := lopa.DefaultThresholds()
	lopaAnalyzeCmd.Flags().Float64Var(&lopaAdequate, "adequate", defaults.Adequate,
		"Gap ratio at or above which protection is adequate")
	lopaAnalyzeCmd.Flags().Float64Var(&lopaMarginal, "marginal", defaults.Marginal,
		"Gap ratio at or above which the gap is marginal rather than inadequate")
	lopaAnalyzeCmd.Flags().BoolVar(&lopaJSON, "json", false,
		"Output as JSON")
	lopaAnalyzeCmd.Flags().BoolVar(&lopaQuiet, "quiet", false,
		"Only exit code, no output")

	lopaCmd.AddCommand(lopaAnalyzeCmd)
	rootCmd.AddCommand(lopaCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runLopaAnalyze(cmd *cobra.Command, args []string) {
	scenario, err := loadScenarioFile(args[0])
	if err != nil {
		OutputError(lopaJSON, "Failed to load scenario", err)
		os.Exit(CLIExitError)
	}

	analyzer := lopa.NewAnalyzer(lopa.Thresholds{
		Adequate: lopaAdequate,
		Marginal: lopaMarginal,
	})

	result, err := analyzer.Analyze(scenario)
	if err != nil {
		OutputError(lopaJSON, "Gap analysis failed", err)
		os.Exit(CLIExitError)
	}
	cliLogger.Debug("analyzed scenario",
		"file", args[0],
		"gap_status", string(result.GapStatus),
		"credited_ipls", result.CreditedIPLCount,
	)

	if !lopaQuiet {
		if lopaJSON {
			if err := OutputJSON(result, false); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
				os.Exit(CLIExitError)
			}
		} else {
			outputGapText(result)
		}
	}

	if result.GapStatus != datatypes.GapAdequate {
		os.Exit(CLIExitFindings)
	}
}

// loadScenarioFile parses a YAML or JSON scenario export.
func loadScenarioFile(path string) (*datatypes.LopaScenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}

	var scenario datatypes.LopaScenario
	if err := yaml.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return &scenario, nil
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func outputGapText(result *datatypes.GapAnalysis) {
	fmt.Printf("Gap Status: %s %s\n",
		ux.RenderGapStatus(string(result.GapStatus)), gapIndicator(result.GapStatus))
	fmt.Println()

	fmt.Printf("  Initiating frequency: %.3g /yr\n", result.Scenario.InitiatingEventFrequency)
	fmt.Printf("  Target frequency:     %.3g /yr\n", result.Scenario.TargetFrequency)
	fmt.Printf("  Required RRF:         %.4g\n", result.RequiredRRF)
	fmt.Printf("  Achieved RRF:         %.4g (%d credited layer(s))\n",
		result.TotalRRF, result.CreditedIPLCount)
	fmt.Printf("  Gap ratio:            %.3g\n", result.GapRatio)
	fmt.Printf("  Mitigated likelihood: %.3g /yr\n", result.MitigatedEventLikelihood)
	fmt.Println()

	if len(result.ExcludedIPLs) > 0 {
		ux.Warning("Layers excluded from credit (independence failed):")
		for _, name := range result.ExcludedIPLs {
			fmt.Printf("  - %s\n", name)
		}
		fmt.Println()
	}

	if result.RequiredSIL > 0 {
		fmt.Printf("Required SIL for a new instrumented function: SIL %d\n", result.RequiredSIL)
		fmt.Println()
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	} else {
		ux.Success("Credited protection meets the target frequency")
	}
}

func gapIndicator(status datatypes.GapStatus) string {
	switch status {
	case datatypes.GapInadequate:
		return "[!!]"
	case datatypes.GapMarginal:
		return "[!]"
	default:
		return "[ok]"
	}
}

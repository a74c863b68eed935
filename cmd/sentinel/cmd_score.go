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

	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	scoreSeverity      int
	scoreLikelihood    int
	scoreDetectability int
	scoreThreshold     string
	scoreJSON          bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single risk entry",
	Long: `Compute the risk score and band for one severity/likelihood pair.

The score is the product of the three ordinal ratings. Detectability is
optional; when omitted the product uses a neutral factor of 1, matching
how review teams defer detection assessment.

Bands:
  low     1-20
  medium  21-60
  high    61-125

Examples:
  sentinel score --severity 4 --likelihood 3
  sentinel score --severity 4 --likelihood 3 --detectability 2
  sentinel score --severity 5 --likelihood 5 --threshold medium
  sentinel score --severity 4 --likelihood 3 --json

Exit Codes:
  0 = Band at or below threshold
  1 = Band above threshold (requires review)
  2 = Error (invalid ratings)`,
	Run: runScoreCommand,
}

func init() {
	scoreCmd.Flags().IntVarP(&scoreSeverity, "severity", "s", 0,
		"Consequence rating, 1-5 (required)")
	scoreCmd.Flags().IntVarP(&scoreLikelihood, "likelihood", "l", 0,
		"Frequency rating, 1-5 (required)")
	scoreCmd.Flags().IntVarP(&scoreDetectability, "detectability", "d", 0,
		"Detection rating, 1-5 (optional)")
	scoreCmd.Flags().StringVar(&scoreThreshold, "threshold", "high",
		"Exit 0 if band at/below: low, medium, high")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(scoreCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runScoreCommand(cmd *cobra.Command, args []string) {
	threshold, err := parseBand(scoreThreshold)
	if err != nil {
		OutputError(scoreJSON, "Invalid threshold", err)
		os.Exit(CLIExitError)
	}

	score, err := scoring.Score(scoring.Input{
		Severity:      scoreSeverity,
		Likelihood:    scoreLikelihood,
		Detectability: scoreDetectability,
	})
	if err != nil {
		OutputError(scoreJSON, "Invalid ratings", err)
		os.Exit(CLIExitError)
	}
	band := scoring.Band(score)

	detectability := scoreDetectability
	if detectability == 0 {
		detectability = 1
	}
	cliLogger.Debug("scored entry",
		"severity", scoreSeverity,
		"likelihood", scoreLikelihood,
		"detectability", detectability,
		"score", score,
	)

	if scoreJSON {
		result := datatypes.ScoreResponse{
			Score:         score,
			Band:          band,
			Severity:      scoreSeverity,
			Likelihood:    scoreLikelihood,
			Detectability: detectability,
		}
		if err := OutputJSON(result, false); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			os.Exit(CLIExitError)
		}
	} else {
		outputScoreText(score, band, detectability)
	}

	if band.Exceeds(threshold) {
		os.Exit(CLIExitFindings)
	}
}

func outputScoreText(score int, band datatypes.RiskBand, detectability int) {
	fmt.Printf("Score: %d  %s\n", score, ux.RenderBand(string(band)))
	fmt.Printf("  Severity:      %d (%s)\n", scoreSeverity, datatypes.SeverityNames[scoreSeverity])
	fmt.Printf("  Likelihood:    %d (%s)\n", scoreLikelihood, datatypes.LikelihoodNames[scoreLikelihood])
	fmt.Printf("  Detectability: %d\n", detectability)
}

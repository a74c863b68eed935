// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command sentinel is the ProcessSentinel operator CLI.
//
// It runs the risk-scoring, protection-layer, compliance, and matrix
// rendering engines locally, without a running assessment server. This
// makes it suitable for hazard-review prep work, CI gating on exported
// analysis records, and generating matrix artwork for reports.
//
// # Usage
//
//	# Score a single HazOp finding
//	sentinel score --severity 4 --likelihood 3 --detectability 2
//
//	# Gap-check a LOPA scenario export
//	sentinel lopa analyze scenario.yaml
//
//	# Gate CI on an exported analysis record
//	sentinel check analysis.yaml --strict
//
//	# Render a poster matrix for the control room
//	sentinel matrix --size large --labels --legend --title "Unit 300"
package main

import (
	"os"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(CLIExitError)
	}
}

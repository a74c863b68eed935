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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ProcessSentinel/pkg/logging"
	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
)

// --- Global Command Variables ---
var (
	personalityLevel string // UX personality level (full/standard/minimal/machine)
	verboseLogging   bool
	logDir           string

	// cliLogger is the process-wide structured logger. Individual commands
	// use it for diagnostics; user-facing results go through pkg/ux.
	cliLogger = logging.Default()

	rootCmd = &cobra.Command{
		Use:   "sentinel",
		Short: "A cli for the ProcessSentinel risk and compliance engine",
		Long: `Sentinel runs the ProcessSentinel assessment engines locally:
				risk scoring, LOPA gap analysis, regulatory compliance checks,
				and risk-matrix rendering, all without a running server.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}

			level := logging.LevelWarn
			if verboseLogging {
				level = logging.LevelDebug
			}
			cliLogger = logging.New(logging.Config{
				Level:   level,
				LogDir:  logDir,
				Service: "sentinel",
			})
		},
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich theming), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false,
		"Enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Also write JSON logs into this directory")
}

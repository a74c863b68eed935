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
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ProcessSentinel/pkg/ux"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/matrix"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	matrixSize       string
	matrixTitle      string
	matrixLabels     bool
	matrixLegend     bool
	matrixScores     bool
	matrixHighlight  string
	matrixBackground string
	matrixFormat     string
	matrixOutput     string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Render the 5x5 risk matrix as SVG or PNG",
	Long: `Render the standard 5x5 severity x likelihood risk matrix.

With no --output the file is written to the working directory under a
generated name (risk_matrix_<size>_<date>.<ext>). Use --output - to
stream the document to stdout instead.

Highlighted cells are given as severity:likelihood pairs, comma
separated, e.g. --highlight "4:3,5:5".

Examples:
  sentinel matrix
  sentinel matrix --size large --labels --legend --scores
  sentinel matrix --title "Unit 300 HazOp" --highlight "4:3" --format png
  sentinel matrix --format svg --output - > matrix.svg

Exit Codes:
  0 = Matrix rendered
  2 = Error (invalid options, write failure)`,
	Run: runMatrixRender,
}

func init() {
	matrixCmd.Flags().StringVar(&matrixSize, "size", "medium",
		"Render preset: small, medium, or large")
	matrixCmd.Flags().StringVar(&matrixTitle, "title", "",
		"Title drawn above the grid")
	matrixCmd.Flags().BoolVar(&matrixLabels, "labels", false,
		"Include axis captions and rating names")
	matrixCmd.Flags().BoolVar(&matrixLegend, "legend", false,
		"Include the risk-band legend strip")
	matrixCmd.Flags().BoolVar(&matrixScores, "scores", false,
		"Print the severity x likelihood product in each cell")
	matrixCmd.Flags().StringVar(&matrixHighlight, "highlight", "",
		"Cells to emphasize, as severity:likelihood pairs (comma separated)")
	matrixCmd.Flags().StringVar(&matrixBackground, "background", "",
		"Background color (hex triplet or color name)")
	matrixCmd.Flags().StringVarP(&matrixFormat, "format", "f", "svg",
		"Output format: svg or png")
	matrixCmd.Flags().StringVarP(&matrixOutput, "output", "o", "",
		"Output path, or - for stdout (default: generated filename)")

	rootCmd.AddCommand(matrixCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runMatrixRender(cmd *cobra.Command, args []string) {
	cells, err := parseHighlightCells(matrixHighlight)
	if err != nil {
		OutputError(false, "Invalid --highlight value", err)
		os.Exit(CLIExitError)
	}

	opts := datatypes.MatrixOptions{
		Size:            datatypes.MatrixSize(strings.ToLower(matrixSize)),
		IncludeLabels:   matrixLabels,
		IncludeLegend:   matrixLegend,
		ShowScores:      matrixScores,
		Title:           matrixTitle,
		HighlightCells:  cells,
		BackgroundColor: matrixBackground,
	}
	opts.EnsureDefaults()

	var payload []byte
	var filename string

	switch strings.ToLower(matrixFormat) {
	case "svg":
		rendered, err := matrix.RenderSVG(opts)
		if err != nil {
			OutputError(false, "Render failed", err)
			os.Exit(CLIExitError)
		}
		payload = []byte(rendered.Markup)
		filename = fmt.Sprintf("risk_matrix_%s_%s.svg",
			opts.Size, time.Now().UTC().Format("2006-01-02"))
	case "png":
		rendered, err := matrix.NewRasterizer(1).RenderImage(context.Background(), opts)
		if err != nil {
			OutputError(false, "Render failed", err)
			os.Exit(CLIExitError)
		}
		payload = rendered.Buffer
		filename = rendered.Filename
	default:
		OutputError(false, "Invalid --format value",
			fmt.Errorf("format %q must be svg or png", matrixFormat))
		os.Exit(CLIExitError)
	}

	if matrixOutput == "-" {
		// Refuse raw PNG bytes on an interactive terminal (redirects and
		// pipes are fine)
		if strings.ToLower(matrixFormat) == "png" &&
			(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
			OutputError(false, "Refusing to write binary output to a terminal",
				fmt.Errorf("stdout is a terminal; redirect it or pass --output FILE"))
			os.Exit(CLIExitError)
		}
		if _, err := os.Stdout.Write(payload); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
			os.Exit(CLIExitError)
		}
		return
	}

	path := matrixOutput
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		OutputError(false, "Failed to write output file", err)
		os.Exit(CLIExitError)
	}
	cliLogger.Debug("rendered matrix", "format", matrixFormat, "path", path, "bytes", len(payload))
	ux.Success(fmt.Sprintf("Wrote %s (%d bytes)", path, len(payload)))
}

// parseHighlightCells parses "4:3,5:5" into matrix cells. An empty
// string yields no cells.
func parseHighlightCells(raw string) ([]datatypes.MatrixCell, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	cells := make([]datatypes.MatrixCell, 0, len(parts))
	for _, part := range parts {
		pair := strings.Split(strings.TrimSpace(part), ":")
		if len(pair) != 2 {
			return nil, fmt.Errorf("cell %q must use severity:likelihood format", part)
		}
		sev, err := strconv.Atoi(strings.TrimSpace(pair[0]))
		if err != nil {
			return nil, fmt.Errorf("cell %q has a non-numeric severity", part)
		}
		lik, err := strconv.Atoi(strings.TrimSpace(pair[1]))
		if err != nil {
			return nil, fmt.Errorf("cell %q has a non-numeric likelihood", part)
		}
		cells = append(cells, datatypes.MatrixCell{Severity: sev, Likelihood: lik})
	}
	return cells, nil
}

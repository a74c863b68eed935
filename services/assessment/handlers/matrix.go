// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/matrix"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// =============================================================================
// Query Parsing
// =============================================================================

// queryFlag reads a boolean query parameter. A bare parameter with no
// value counts as true so callers can write ?labels&legend.
func queryFlag(c *gin.Context, name string) (bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return false, nil
	}
	if raw == "" {
		return true, nil
	}
	return strconv.ParseBool(raw)
}

// parseHighlight parses a severity:likelihood cell list such as "3:4,5:1".
// Range checking happens in the renderer's option validation; this only
// enforces the format.
func parseHighlight(raw string) ([]datatypes.MatrixCell, error) {
	tokens := strings.Split(raw, ",")
	cells := make([]datatypes.MatrixCell, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		sevPart, likPart, found := strings.Cut(token, ":")
		if !found {
			return nil, fmt.Errorf("cell %q must use severity:likelihood format", token)
		}
		severity, err := strconv.Atoi(strings.TrimSpace(sevPart))
		if err != nil {
			return nil, fmt.Errorf("cell %q has a non-numeric severity", token)
		}
		likelihood, err := strconv.Atoi(strings.TrimSpace(likPart))
		if err != nil {
			return nil, fmt.Errorf("cell %q has a non-numeric likelihood", token)
		}
		cells = append(cells, datatypes.MatrixCell{Severity: severity, Likelihood: likelihood})
	}
	return cells, nil
}

// parseMatrixOptions binds the matrix query parameters onto render
// options. Size, title, and background pass through raw; the renderer's
// own validation rejects out-of-range values with field detail.
func parseMatrixOptions(c *gin.Context) (datatypes.MatrixOptions, error) {
	opts := datatypes.MatrixOptions{
		Size:            datatypes.MatrixSize(c.Query("size")),
		Title:           c.Query("title"),
		BackgroundColor: c.Query("background"),
	}

	verr := &datatypes.ValidationError{}

	var err error
	if opts.IncludeLabels, err = queryFlag(c, "labels"); err != nil {
		verr.Add("labels", "must be a boolean")
	}
	if opts.IncludeLegend, err = queryFlag(c, "legend"); err != nil {
		verr.Add("legend", "must be a boolean")
	}
	if opts.ShowScores, err = queryFlag(c, "scores"); err != nil {
		verr.Add("scores", "must be a boolean")
	}

	if raw := c.Query("highlight"); raw != "" {
		cells, err := parseHighlight(raw)
		if err != nil {
			verr.Add("highlight", err.Error())
		} else {
			opts.HighlightCells = cells
		}
	}

	if len(verr.Fields) > 0 {
		return opts, verr
	}
	return opts, nil
}

// =============================================================================
// Handlers
// =============================================================================

// HandleMatrixSVG renders the 5x5 risk matrix as an SVG document.
//
// GET /v1/risk/matrix.svg with size, title, labels, legend, scores,
// highlight, and background query parameters.
func HandleMatrixSVG() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := handlersTracer.Start(c.Request.Context(), "HandleMatrixSVG")
		defer span.End()

		opts, err := parseMatrixOptions(c)
		if err != nil {
			respondError(c, err)
			return
		}
		opts.EnsureDefaults()

		rendered, err := matrix.RenderSVG(opts)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		span.SetAttributes(
			attribute.String("matrix.size", string(opts.Size)),
			attribute.Int("matrix.width", rendered.Width),
			attribute.Int("matrix.height", rendered.Height),
		)

		filename := fmt.Sprintf("risk_matrix_%s_%s.svg",
			opts.Size, time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		c.Data(http.StatusOK, "image/svg+xml", []byte(rendered.Markup))
	}
}

// HandleMatrixPNG renders the 5x5 risk matrix as a PNG binary.
//
// GET /v1/risk/matrix.png with the same query parameters as the SVG
// endpoint. Rasterization is bounded by the rasterizer's worker slots;
// the request context cancels a render waiting for a slot.
func HandleMatrixPNG(rasterizer *matrix.Rasterizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "HandleMatrixPNG")
		defer span.End()

		opts, err := parseMatrixOptions(c)
		if err != nil {
			respondError(c, err)
			return
		}

		img, err := rasterizer.RenderImage(ctx, opts)
		if err != nil {
			span.RecordError(err)
			respondError(c, err)
			return
		}

		span.SetAttributes(
			attribute.String("matrix.size", string(opts.Size)),
			attribute.Int("matrix.bytes", len(img.Buffer)),
		)

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.Filename))
		c.Data(http.StatusOK, img.MimeType, img.Buffer)
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package matrix

import (
	"fmt"
	"html"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var matrixRenders = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aleutian",
	Subsystem: "assessment",
	Name:      "matrix_renders_total",
	Help:      "Total risk matrix renders by output format",
}, []string{"format"})

// =============================================================================
// SVG Serialization
// =============================================================================

// RenderSVG renders the matrix as an svg document.
//
// # Description
//
//	Runs the layout stage and serializes the result. The markup contains
//	exactly one background rectangle and twenty-five cell rectangles for
//	every option combination; labels, scores, and the title are text
//	elements and the legend swatches are circles. Caller text is escaped
//	before it reaches the markup.
//
// # Inputs
//
//	opts - Render options. The caller's value is not mutated.
//
// # Outputs
//
//	*datatypes.RenderedSVG - Markup plus document dimensions.
//	error - A datatypes.ValidationError for out-of-range options.
func RenderSVG(opts datatypes.MatrixOptions) (*datatypes.RenderedSVG, error) {
	layout, err := Compute(opts)
	if err != nil {
		return nil, err
	}

	matrixRenders.WithLabelValues("svg").Inc()
	return &datatypes.RenderedSVG{
		Markup: serialize(layout),
		Width:  layout.Width,
		Height: layout.Height,
	}, nil
}

// serialize writes the layout as svg markup.
func serialize(l *Layout) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		l.Width, l.Height, l.Width, l.Height))
	sb.WriteString("\n")

	sb.WriteString(`<style>
  .label { font-family: Arial, sans-serif; }
  .title { font-family: Arial, sans-serif; font-weight: bold; }
</style>
`)

	writeRect(&sb, l.Background)
	for i := range l.Cells {
		writeRect(&sb, l.Cells[i].Box)
	}
	for i := range l.Cells {
		if l.Cells[i].Score != nil {
			writeLabel(&sb, *l.Cells[i].Score)
		}
	}
	for _, label := range l.Labels {
		writeLabel(&sb, label)
	}
	if l.Title != nil {
		writeLabel(&sb, *l.Title)
	}
	for _, entry := range l.Legend {
		sb.WriteString(fmt.Sprintf(`  <circle cx="%d" cy="%d" r="%d" fill="%s"/>`,
			entry.CX, entry.CY, entry.R, entry.Fill))
		sb.WriteString("\n")
		writeLabel(&sb, entry.Caption)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeRect(sb *strings.Builder, r Rect) {
	sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s"`,
		r.X, r.Y, r.W, r.H, html.EscapeString(r.Fill)))
	if r.Stroke != "" {
		sb.WriteString(fmt.Sprintf(` stroke="%s" stroke-width="%d"`, r.Stroke, r.StrokeWidth))
	}
	sb.WriteString("/>\n")
}

func writeLabel(sb *strings.Builder, label Label) {
	class := "label"
	if label.Bold {
		class = "title"
	}
	sb.WriteString(fmt.Sprintf(`  <text class="%s" x="%d" y="%d" font-size="%d" text-anchor="%s" fill="%s">%s</text>`,
		class, label.X, label.Y, label.FontSize, label.Anchor, label.Fill,
		html.EscapeString(label.Content)))
	sb.WriteString("\n")
}

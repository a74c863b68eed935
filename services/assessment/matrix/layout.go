// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package matrix renders the canonical 5x5 severity/likelihood risk matrix.
//
// Rendering is a two-stage pipeline: Compute derives the full layout
// (positions, colors, text) as plain data, and the serializers turn that
// layout into svg markup or an encoded raster. The layout stage never
// touches a graphics backend, so geometry and label logic are testable on
// their own.
//
// Thread Safety:
//
//	All exported functions are pure; the Rasterizer bounds its own
//	concurrency and is safe for concurrent use.
package matrix

import (
	"strconv"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// GridSize is the fixed edge length of the matrix in cells.
const GridSize = 5

// =============================================================================
// Palette
// =============================================================================

const (
	colorLow       = "#10ac84"
	colorMedium    = "#ffd93d"
	colorHigh      = "#ff6b6b"
	colorGrid      = "#cccccc"
	colorHighlight = "#333333"
	colorText      = "#333333"
)

// Display-band boundaries for the severity x likelihood product (1-25).
// Narrower than the scored-entry bands because the display product omits
// detectability.
const (
	displayLowMax    = 6
	displayMediumMax = 14
)

// displayBand classifies a cell product into the matrix color band.
func displayBand(value int) datatypes.RiskBand {
	switch {
	case value <= displayLowMax:
		return datatypes.BandLow
	case value <= displayMediumMax:
		return datatypes.BandMedium
	default:
		return datatypes.BandHigh
	}
}

// bandFill maps a band to its cell fill color.
func bandFill(band datatypes.RiskBand) string {
	switch band {
	case datatypes.BandLow:
		return colorLow
	case datatypes.BandMedium:
		return colorMedium
	default:
		return colorHigh
	}
}

// =============================================================================
// Size Presets
// =============================================================================

// preset holds the geometry constants for one render size.
type preset struct {
	cell      int
	margin    int
	fontSize  int
	titleSize int
}

// presets grow strictly in every dimension from small to large so the
// rendered documents do too.
var presets = map[datatypes.MatrixSize]preset{
	datatypes.SizeSmall:  {cell: 40, margin: 12, fontSize: 9, titleSize: 13},
	datatypes.SizeMedium: {cell: 64, margin: 16, fontSize: 11, titleSize: 16},
	datatypes.SizeLarge:  {cell: 96, margin: 24, fontSize: 13, titleSize: 20},
}

// =============================================================================
// Layout Data
// =============================================================================

// Rect is an axis-aligned rectangle with paint attributes.
type Rect struct {
	X, Y, W, H  int
	Fill        string
	Stroke      string
	StrokeWidth int
}

// Label is a positioned text run. Y is the text baseline.
type Label struct {
	X, Y     int
	Content  string
	FontSize int
	Anchor   string // "start", "middle", or "end"
	Bold     bool
	Fill     string
}

// CellBox is one cell of the grid with its derived value and paint.
type CellBox struct {
	// Severity is the column, 1-5, left to right.
	Severity int

	// Likelihood is the row, 1-5. Row 5 sits at the top of the grid.
	Likelihood int

	// Value is severity x likelihood, the display product.
	Value int

	// Band is the display classification of Value.
	Band datatypes.RiskBand

	// Box is the cell rectangle, including any highlight stroke.
	Box Rect

	// Score is the optional numeric cell label.
	Score *Label
}

// LegendEntry is one band swatch with its caption. Swatches are circles
// so the rectangle census of the document stays fixed at the background
// plus the 25 cells.
type LegendEntry struct {
	CX, CY, R int
	Fill      string
	Caption   Label
}

// Layout is the complete computed geometry of one rendering.
type Layout struct {
	// Size is the preset the geometry was computed for.
	Size datatypes.MatrixSize

	// Width and Height are the document dimensions in pixels.
	Width, Height int

	// Background covers the whole document.
	Background Rect

	// Cells holds the 25 grid cells, top row first.
	Cells []CellBox

	// Labels holds axis captions and rating names. Empty unless labels
	// were requested.
	Labels []Label

	// Title is the optional document title. Content is raw caller text;
	// serializers are responsible for escaping it.
	Title *Label

	// Legend holds the band swatches. Empty unless the legend was
	// requested.
	Legend []LegendEntry
}

// =============================================================================
// Layout Computation
// =============================================================================

// Compute derives the layout for one rendering.
//
// # Description
//
//	Validates the options, applies defaults, and lays out the grid, axis
//	labels, title band, and legend strip for the selected size preset.
//	The result is plain data with no backend types, and the same options
//	always produce the same layout.
//
// # Inputs
//
//	opts - Render options. The caller's value is not mutated.
//
// # Outputs
//
//	*Layout - The computed geometry.
//	error - A datatypes.ValidationError for out-of-range options.
func Compute(opts datatypes.MatrixOptions) (*Layout, error) {
	opts.EnsureDefaults()
	if err := datatypes.WrapValidator(opts.Validate()); err != nil {
		return nil, err
	}

	p := presets[opts.Size]

	leftGutter := 0
	bottomGutter := 0
	if opts.IncludeLabels {
		leftGutter = p.cell + p.cell/2
		bottomGutter = p.fontSize*4 + 8
	}
	titleBand := 0
	if opts.Title != "" {
		titleBand = p.titleSize * 2
	}
	legendBand := 0
	if opts.IncludeLegend {
		legendBand = p.fontSize*2 + 12
	}

	gridX := p.margin + leftGutter
	gridY := p.margin + titleBand
	gridEdge := GridSize * p.cell

	layout := &Layout{
		Size:   opts.Size,
		Width:  gridX + gridEdge + p.margin,
		Height: gridY + gridEdge + bottomGutter + legendBand + p.margin,
	}
	layout.Background = Rect{
		X: 0, Y: 0, W: layout.Width, H: layout.Height,
		Fill: opts.BackgroundColor,
	}

	highlighted := make(map[[2]int]bool, len(opts.HighlightCells))
	for _, hc := range opts.HighlightCells {
		highlighted[[2]int{hc.Severity, hc.Likelihood}] = true
	}

	layout.Cells = make([]CellBox, 0, GridSize*GridSize)
	for row := 0; row < GridSize; row++ {
		likelihood := GridSize - row
		for col := 0; col < GridSize; col++ {
			severity := col + 1
			value := severity * likelihood
			band := displayBand(value)

			box := Rect{
				X: gridX + col*p.cell, Y: gridY + row*p.cell,
				W: p.cell, H: p.cell,
				Fill:        bandFill(band),
				Stroke:      colorGrid,
				StrokeWidth: 1,
			}
			if highlighted[[2]int{severity, likelihood}] {
				box.Stroke = colorHighlight
				box.StrokeWidth = 3
			}

			cell := CellBox{
				Severity: severity, Likelihood: likelihood,
				Value: value, Band: band, Box: box,
			}
			if opts.ShowScores {
				cell.Score = &Label{
					X:        box.X + p.cell/2,
					Y:        box.Y + p.cell/2 + p.fontSize/3,
					Content:  strconv.Itoa(value),
					FontSize: p.fontSize,
					Anchor:   "middle",
					Fill:     colorText,
				}
			}
			layout.Cells = append(layout.Cells, cell)
		}
	}

	if opts.IncludeLabels {
		layout.Labels = axisLabels(p, gridX, gridY, gridEdge)
	}

	if opts.Title != "" {
		layout.Title = &Label{
			X:        layout.Width / 2,
			Y:        p.margin + p.titleSize,
			Content:  opts.Title,
			FontSize: p.titleSize,
			Anchor:   "middle",
			Bold:     true,
			Fill:     colorText,
		}
	}

	if opts.IncludeLegend {
		layout.Legend = legendEntries(p, gridX, gridEdge, layout.Height-p.margin-legendBand/2)
	}

	return layout, nil
}

// axisLabels builds the likelihood row names, severity column names, and
// the two axis captions.
func axisLabels(p preset, gridX, gridY, gridEdge int) []Label {
	labels := make([]Label, 0, 2*GridSize+2)

	for row := 0; row < GridSize; row++ {
		likelihood := GridSize - row
		labels = append(labels, Label{
			X:        gridX - 6,
			Y:        gridY + row*p.cell + p.cell/2 + p.fontSize/3,
			Content:  datatypes.LikelihoodNames[likelihood],
			FontSize: p.fontSize,
			Anchor:   "end",
			Fill:     colorText,
		})
	}
	for col := 0; col < GridSize; col++ {
		severity := col + 1
		labels = append(labels, Label{
			X:        gridX + col*p.cell + p.cell/2,
			Y:        gridY + gridEdge + p.fontSize + 4,
			Content:  datatypes.SeverityNames[severity],
			FontSize: p.fontSize,
			Anchor:   "middle",
			Fill:     colorText,
		})
	}

	labels = append(labels,
		Label{
			X:        gridX + gridEdge/2,
			Y:        gridY + gridEdge + p.fontSize*3 + 8,
			Content:  "Severity",
			FontSize: p.fontSize,
			Anchor:   "middle",
			Bold:     true,
			Fill:     colorText,
		},
		Label{
			X:        gridX - 6,
			Y:        gridY - 6,
			Content:  "Likelihood",
			FontSize: p.fontSize,
			Anchor:   "end",
			Bold:     true,
			Fill:     colorText,
		},
	)
	return labels
}

// legendEntries builds one swatch per band, spread across the grid width.
func legendEntries(p preset, gridX, gridEdge, cy int) []LegendEntry {
	bands := []struct {
		name string
		fill string
	}{
		{"Low", colorLow},
		{"Medium", colorMedium},
		{"High", colorHigh},
	}

	r := p.fontSize/2 + 2
	spacing := gridEdge / len(bands)
	entries := make([]LegendEntry, 0, len(bands))
	for i, b := range bands {
		cx := gridX + i*spacing + r
		entries = append(entries, LegendEntry{
			CX: cx, CY: cy, R: r,
			Fill: b.fill,
			Caption: Label{
				X:        cx + r + 6,
				Y:        cy + p.fontSize/3,
				Content:  b.name,
				FontSize: p.fontSize,
				Anchor:   "start",
				Fill:     colorText,
			},
		})
	}
	return entries
}

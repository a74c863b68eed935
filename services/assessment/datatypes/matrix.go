// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Risk-matrix renderer option and result types.
package datatypes

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MatrixSize selects one of the three fixed render presets.
type MatrixSize string

const (
	// SizeSmall is the thumbnail preset.
	SizeSmall MatrixSize = "small"

	// SizeMedium is the default report preset.
	SizeMedium MatrixSize = "medium"

	// SizeLarge is the poster preset.
	SizeLarge MatrixSize = "large"
)

// Valid returns true if s is a defined preset.
func (s MatrixSize) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// MatrixCell addresses one cell of the 5x5 grid.
type MatrixCell struct {
	// Severity is the column, 1-5.
	Severity int `json:"severity" validate:"required,min=1,max=5"`

	// Likelihood is the row, 1-5.
	Likelihood int `json:"likelihood" validate:"required,min=1,max=5"`
}

// colorPattern accepts #RGB / #RRGGBB hex triplets and bare color names.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]+)$`)

// validateMatrixColor is the "matrixcolor" custom validator.
func validateMatrixColor(fl validator.FieldLevel) bool {
	return colorPattern.MatchString(fl.Field().String())
}

// MatrixOptions controls a single matrix rendering.
//
// All fields are optional. The zero value renders a medium, unlabelled,
// untitled grid on a white background; EnsureDefaults fills the size and
// background so downstream stages never branch on empties.
type MatrixOptions struct {
	// Size selects the render preset. Defaults to medium.
	Size MatrixSize `json:"size,omitempty" validate:"omitempty,oneof=small medium large"`

	// IncludeLabels adds axis captions and rating names.
	IncludeLabels bool `json:"include_labels,omitempty"`

	// IncludeLegend adds the risk-band legend strip.
	IncludeLegend bool `json:"include_legend,omitempty"`

	// ShowScores prints the severity x likelihood product in each cell.
	ShowScores bool `json:"show_scores,omitempty"`

	// Title is drawn above the grid when non-empty. Markup-significant
	// characters are escaped before serialization.
	Title string `json:"title,omitempty" validate:"max=160"`

	// HighlightCells flags individual cells with an emphasis stroke.
	HighlightCells []MatrixCell `json:"highlight_cells,omitempty" validate:"dive"`

	// BackgroundColor is a hex triplet or color name. Defaults to white.
	BackgroundColor string `json:"background_color,omitempty" validate:"omitempty,matrixcolor"`
}

// Validate checks the options against their field constraints.
func (o *MatrixOptions) Validate() error {
	return riskValidate.Struct(o)
}

// EnsureDefaults fills the optional fields the renderer requires.
func (o *MatrixOptions) EnsureDefaults() {
	if o.Size == "" {
		o.Size = SizeMedium
	}
	if o.BackgroundColor == "" {
		o.BackgroundColor = "#ffffff"
	}
}

// RenderedSVG is the vector result of a matrix rendering.
type RenderedSVG struct {
	// Markup is the complete svg document.
	Markup string `json:"markup"`

	// Width is the document width in pixels.
	Width int `json:"width"`

	// Height is the document height in pixels.
	Height int `json:"height"`
}

// RenderedImage is the raster result of a matrix rendering.
type RenderedImage struct {
	// Buffer holds the encoded image bytes. Excluded from JSON; the
	// HTTP layer serves it as a binary body.
	Buffer []byte `json:"-"`

	// MimeType is the encoded format (image/png).
	MimeType string `json:"mime_type"`

	// Filename follows risk_matrix_<size>_<iso-date>.<ext>.
	Filename string `json:"filename"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

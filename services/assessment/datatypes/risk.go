// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the assessment service.
//
// This file contains the ordinal rating domain (severity, likelihood,
// detectability), the risk band classification, and the risk entry record
// plus its request/response types. For protection-layer types see lopa.go,
// for compliance rollup types see compliance.go.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Rating Domain Constants
// =============================================================================

const (
	// RatingMin is the lowest valid severity/likelihood/detectability rating.
	RatingMin = 1

	// RatingMax is the highest valid severity/likelihood/detectability rating.
	RatingMax = 5

	// ScoreMax is the highest reachable entry score (5 x 5 x 5).
	ScoreMax = 125

	// BandLowMax is the highest score classified as BandLow.
	BandLowMax = 20

	// BandMediumMax is the highest score classified as BandMedium.
	BandMediumMax = 60
)

// SeverityNames maps a severity rating to its display name.
var SeverityNames = map[int]string{
	1: "Negligible",
	2: "Minor",
	3: "Moderate",
	4: "Major",
	5: "Catastrophic",
}

// LikelihoodNames maps a likelihood rating to its display name.
var LikelihoodNames = map[int]string{
	1: "Rare",
	2: "Unlikely",
	3: "Possible",
	4: "Likely",
	5: "Frequent",
}

// =============================================================================
// Risk Band
// =============================================================================

// RiskBand is the qualitative classification of an entry score.
type RiskBand string

const (
	// BandLow covers scores 1-20.
	BandLow RiskBand = "low"

	// BandMedium covers scores 21-60.
	BandMedium RiskBand = "medium"

	// BandHigh covers scores 61-125.
	BandHigh RiskBand = "high"
)

// bandOrder supports comparison between bands.
var bandOrder = map[RiskBand]int{
	BandLow:    1,
	BandMedium: 2,
	BandHigh:   3,
}

// Exceeds returns true if band b represents more risk than other.
func (b RiskBand) Exceeds(other RiskBand) bool {
	return bandOrder[b] > bandOrder[other]
}

// Valid returns true if b is one of the three defined bands.
func (b RiskBand) Valid() bool {
	_, ok := bandOrder[b]
	return ok
}

// =============================================================================
// Shared Validator Instance
// =============================================================================

// riskValidate is the validator instance for assessment datatypes.
// Initialized in init() with custom validators.
var riskValidate *validator.Validate

func init() {
	riskValidate = validator.New()

	// Renderer colors are emitted into markup attributes, so only hex
	// triplets and plain color names are accepted.
	_ = riskValidate.RegisterValidation("matrixcolor", validateMatrixColor)
}

// =============================================================================
// Risk Entry Record
// =============================================================================

// RiskEntry is a single deviation record inside a hazard analysis.
//
// # Description
//
// A RiskEntry captures one deviation found during a structured hazard
// review: the equipment node it was raised against, the guide word and
// parameter that produced it, and the team's severity/likelihood/
// detectability ratings. The stored Score and Band are derived at write
// time by the owning workflow; the engine re-derives them on read and
// treats a mismatch as corrupted data rather than repairing it.
//
// # Fields
//
//   - ID: Record identifier (UUID v4).
//   - NodeRef: Identifier of the process node the deviation applies to.
//   - GuideWord: Hazard-review guide word (e.g. "no", "more", "reverse").
//   - Parameter: Process parameter the guide word was applied to
//     (e.g. "flow", "pressure", "temperature").
//   - Deviation: Free-text description of the deviation.
//   - Severity: Consequence rating, 1-5.
//   - Likelihood: Frequency rating, 1-5.
//   - Detectability: Detection rating, 1-5; zero means not assessed and
//     contributes a neutral factor of 1 to the score.
//   - Score: Derived severity x likelihood x detectability.
//   - Band: Derived qualitative band for Score.
type RiskEntry struct {
	ID            string   `json:"id" yaml:"id" validate:"required,uuid4"`
	NodeRef       string   `json:"node_ref" yaml:"node_ref" validate:"required"`
	GuideWord     string   `json:"guide_word" yaml:"guide_word"`
	Parameter     string   `json:"parameter" yaml:"parameter"`
	Deviation     string   `json:"deviation" yaml:"deviation"`
	Severity      int      `json:"severity" yaml:"severity" validate:"required,min=1,max=5"`
	Likelihood    int      `json:"likelihood" yaml:"likelihood" validate:"required,min=1,max=5"`
	Detectability int      `json:"detectability,omitempty" yaml:"detectability,omitempty" validate:"omitempty,min=1,max=5"`
	Score         int      `json:"score" yaml:"score"`
	Band          RiskBand `json:"band" yaml:"band"`
}

// Validate checks the entry against its field constraints.
func (e *RiskEntry) Validate() error {
	return riskValidate.Struct(e)
}

// =============================================================================
// Scoring Request/Response
// =============================================================================

// ScoreRequest is the request body for POST /v1/risk/score.
//
// Detectability is optional; when omitted (zero) the score uses a neutral
// factor of 1, matching how review teams defer detection assessment.
type ScoreRequest struct {
	// Severity is the consequence rating, 1-5. Required.
	Severity int `json:"severity" validate:"required,min=1,max=5"`

	// Likelihood is the frequency rating, 1-5. Required.
	Likelihood int `json:"likelihood" validate:"required,min=1,max=5"`

	// Detectability is the detection rating, 1-5. Optional.
	Detectability int `json:"detectability,omitempty" validate:"omitempty,min=1,max=5"`
}

// Validate checks the request against its field constraints.
func (r *ScoreRequest) Validate() error {
	return riskValidate.Struct(r)
}

// ScoreResponse is the response for POST /v1/risk/score.
type ScoreResponse struct {
	// Score is the derived risk score, 1-125.
	Score int `json:"score"`

	// Band is the qualitative classification of Score.
	Band RiskBand `json:"band"`

	// Severity echoes the request severity.
	Severity int `json:"severity"`

	// Likelihood echoes the request likelihood.
	Likelihood int `json:"likelihood"`

	// Detectability is the rating that entered the product (1 when the
	// request omitted it).
	Detectability int `json:"detectability"`
}

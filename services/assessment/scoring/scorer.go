// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring converts deviation ratings into numeric risk scores and
// qualitative bands.
//
// The scorer is a pure function of its inputs: no state, no I/O, no
// clamping. Out-of-range ratings are rejected rather than repaired so a
// bad record can never masquerade as a scored one.
package scoring

import (
	"fmt"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// Input carries the three ratings for one scoring call.
//
// Detectability zero means the review team has not assessed detection for
// this deviation; it contributes a neutral factor of 1 to the product.
type Input struct {
	Severity      int
	Likelihood    int
	Detectability int
}

// Score computes severity x likelihood x detectability.
//
// # Description
//
// Each rating must lie in 1-5; Detectability may additionally be zero
// (not assessed), in which case it enters the product as 1. The result is
// therefore always in 1-125 and non-decreasing in every argument.
//
// # Inputs
//
//   - in: The three ratings. Severity and Likelihood are required.
//
// # Outputs
//
//   - int: The product, 1-125. Zero on error.
//   - error: A datatypes.ValidationError naming the offending rating.
//
// # Examples
//
//	score, err := scoring.Score(scoring.Input{Severity: 4, Likelihood: 3})
//	// score == 12
func Score(in Input) (int, error) {
	verr := &datatypes.ValidationError{}
	if in.Severity < datatypes.RatingMin || in.Severity > datatypes.RatingMax {
		verr.Add("severity", rangeMessage(in.Severity))
	}
	if in.Likelihood < datatypes.RatingMin || in.Likelihood > datatypes.RatingMax {
		verr.Add("likelihood", rangeMessage(in.Likelihood))
	}
	detectability := in.Detectability
	switch {
	case detectability == 0:
		detectability = 1
	case detectability < datatypes.RatingMin || detectability > datatypes.RatingMax:
		verr.Add("detectability", rangeMessage(in.Detectability))
	}
	if len(verr.Fields) > 0 {
		return 0, verr
	}
	return in.Severity * in.Likelihood * detectability, nil
}

// Band classifies a score into its qualitative band.
//
// Cut points: 1-20 low, 21-60 medium, 61-125 high.
func Band(score int) datatypes.RiskBand {
	switch {
	case score <= datatypes.BandLowMax:
		return datatypes.BandLow
	case score <= datatypes.BandMediumMax:
		return datatypes.BandMedium
	default:
		return datatypes.BandHigh
	}
}

// ScoreEntry derives the score and band for a stored deviation record.
func ScoreEntry(e *datatypes.RiskEntry) (int, datatypes.RiskBand, error) {
	score, err := Score(Input{
		Severity:      e.Severity,
		Likelihood:    e.Likelihood,
		Detectability: e.Detectability,
	})
	if err != nil {
		return 0, "", err
	}
	return score, Band(score), nil
}

// VerifyEntry checks a stored record against its re-derived score.
//
// A mismatch means the record was corrupted after scoring; the entry is
// reported as broken data, never re-scored in place.
func VerifyEntry(e *datatypes.RiskEntry) error {
	score, band, err := ScoreEntry(e)
	if err != nil {
		return fmt.Errorf("entry %s carries out-of-range ratings: %w", e.ID, datatypes.ErrComputation)
	}
	if e.Score != 0 && e.Score != score {
		return fmt.Errorf("entry %s stored score %d, derived %d: %w",
			e.ID, e.Score, score, datatypes.ErrComputation)
	}
	if e.Band != "" && e.Band != band {
		return fmt.Errorf("entry %s stored band %q, derived %q: %w",
			e.ID, e.Band, band, datatypes.ErrComputation)
	}
	return nil
}

// rangeMessage formats the shared out-of-range violation text.
func rangeMessage(got int) string {
	return fmt.Sprintf("must be between %d and %d, got %d",
		datatypes.RatingMin, datatypes.RatingMax, got)
}

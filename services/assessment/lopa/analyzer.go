// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lopa implements the protection-layer gap analysis.
//
// The analyzer takes a hazard scenario (initiating event frequency, target
// tolerable frequency, claimed protection layers) and computes how much
// risk reduction the independent layers actually achieve against how much
// the target demands. Only layers that pass both independence judgements
// earn credit; the rest stay on the record for audit. All quantities are
// closed-form; nothing is simulated and nothing is clamped.
package lopa

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// =============================================================================
// Thresholds (gap classification policy)
// =============================================================================

// SIL band lower bounds in additional-RRF terms. A shortfall below
// silBand1Min needs no instrumented function; a procedural or alarm layer
// can close it.
const (
	silBand1Min = 10.0
	silBand2Min = 100.0
	silBand3Min = 1_000.0
	silBand4Min = 10_000.0
)

// Thresholds is the gap-ratio classification policy.
//
// The cut points are configuration, not constants, because facilities tune
// them to their own risk criteria. Classification: ratio >= Adequate is
// adequate, ratio >= Marginal is marginal, anything lower is inadequate.
type Thresholds struct {
	// Adequate is the ratio at or above which protection is adequate.
	Adequate float64 `json:"adequate"`

	// Marginal is the ratio at or above which protection is marginal.
	Marginal float64 `json:"marginal"`
}

// DefaultThresholds returns the documented default policy: a scenario is
// adequate at ratio 1.0 and marginal from 0.5 up.
func DefaultThresholds() Thresholds {
	return Thresholds{Adequate: 1.0, Marginal: 0.5}
}

// Validate rejects threshold pairs that cannot classify.
func (t Thresholds) Validate() error {
	if t.Marginal <= 0 {
		return datatypes.NewValidationError("thresholds.marginal", "must be positive")
	}
	if t.Adequate <= t.Marginal {
		return datatypes.NewValidationError("thresholds.adequate", "must exceed the marginal threshold")
	}
	return nil
}

// Classify maps a gap ratio onto its status.
func (t Thresholds) Classify(ratio float64) datatypes.GapStatus {
	switch {
	case ratio >= t.Adequate:
		return datatypes.GapAdequate
	case ratio >= t.Marginal:
		return datatypes.GapMarginal
	default:
		return datatypes.GapInadequate
	}
}

// RequiredSIL maps the additional risk reduction still needed onto a
// safety integrity level. Zero means the shortfall sits below the SIL1
// band and an instrumented function is not required to close it.
func RequiredSIL(additionalRRF float64) int {
	switch {
	case additionalRRF >= silBand4Min:
		return 4
	case additionalRRF >= silBand3Min:
		return 3
	case additionalRRF >= silBand2Min:
		return 2
	case additionalRRF >= silBand1Min:
		return 1
	default:
		return 0
	}
}

// =============================================================================
// Analyzer
// =============================================================================

// Analyzer runs gap analyses under one threshold policy.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer builds an analyzer with the given policy. Invalid thresholds
// are replaced by the defaults; the service validates configuration before
// it gets here, so this guard only protects ad-hoc construction.
func NewAnalyzer(t Thresholds) *Analyzer {
	if t.Validate() != nil {
		t = DefaultThresholds()
	}
	return &Analyzer{thresholds: t}
}

// Thresholds returns the active classification policy.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze computes the gap analysis for one scenario.
//
// # Description
//
// Validates the scenario, multiplies the risk-reduction factors of the
// doubly-independent layers into TotalRRF (1.0 when nothing is credited),
// derives RequiredRRF from the frequency pair, classifies the ratio, and
// generates recommendations for any shortfall. Layers failing an
// independence judgement are listed in ExcludedIPLs and contribute
// nothing.
//
// # Inputs
//
//   - scenario: The scenario document. Not mutated.
//
// # Outputs
//
//   - *datatypes.GapAnalysis: The derived analysis. Nil on error.
//   - error: A datatypes.ValidationError naming every offending field.
//
// # Examples
//
//	ga, err := analyzer.Analyze(&datatypes.LopaScenario{
//	    Description:              "pump seal failure releases hydrocarbon",
//	    InitiatingEventFrequency: 0.1,
//	    TargetFrequency:          1e-4,
//	    IPLs: []datatypes.IPL{{
//	        Name: "high pressure interlock", Type: datatypes.IPLInterlock,
//	        PFD: 0.01, IndependentOfInitiator: true, IndependentOfOtherIPLs: true,
//	    }},
//	})
//	// ga.TotalRRF == 100, ga.RequiredRRF == 1000, ga.GapStatus == inadequate
func (a *Analyzer) Analyze(scenario *datatypes.LopaScenario) (*datatypes.GapAnalysis, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, err
	}

	totalRRF := 1.0
	credited := 0
	var excluded []string
	for i := range scenario.IPLs {
		ipl := &scenario.IPLs[i]
		if !ipl.Credited() {
			excluded = append(excluded, ipl.Name)
			continue
		}
		totalRRF *= ipl.RRF()
		credited++
	}
	sort.Strings(excluded)

	requiredRRF := scenario.InitiatingEventFrequency / scenario.TargetFrequency
	gapRatio := totalRRF / requiredRRF
	status := a.thresholds.Classify(gapRatio)

	result := &datatypes.GapAnalysis{
		Scenario:                 *scenario,
		TotalRRF:                 totalRRF,
		RequiredRRF:              requiredRRF,
		GapRatio:                 gapRatio,
		GapStatus:                status,
		MitigatedEventLikelihood: scenario.InitiatingEventFrequency / totalRRF,
		CreditedIPLCount:         credited,
		ExcludedIPLs:             excluded,
	}

	if status != datatypes.GapAdequate {
		additional := requiredRRF / totalRRF
		result.RequiredSIL = RequiredSIL(additional)
		result.Recommendations = buildRecommendations(result, additional)
	}

	return result, nil
}

// validateScenario applies the analyzer's precise field checks. The
// struct-tag validation on LopaScenario covers REST binding; this pass
// exists so every offending layer is named with its index.
func validateScenario(s *datatypes.LopaScenario) error {
	verr := &datatypes.ValidationError{}
	if s.Description == "" {
		verr.Add("description", "must not be empty")
	}
	if s.InitiatingEventFrequency <= 0 {
		verr.Add("initiating_event_frequency",
			fmt.Sprintf("must be positive, got %g", s.InitiatingEventFrequency))
	}
	if s.TargetFrequency <= 0 {
		verr.Add("target_frequency",
			fmt.Sprintf("must be positive, got %g", s.TargetFrequency))
	}
	for i := range s.IPLs {
		ipl := &s.IPLs[i]
		field := func(name string) string { return fmt.Sprintf("ipls[%d].%s", i, name) }
		if ipl.Name == "" {
			verr.Add(field("name"), "must not be empty")
		}
		if !ipl.Type.Valid() {
			verr.Add(field("type"),
				fmt.Sprintf("must be one of alarm, interlock, relief, procedural; got %q", ipl.Type))
		}
		if ipl.PFD <= 0 || ipl.PFD > 1 {
			verr.Add(field("pfd"),
				fmt.Sprintf("must be in (0, 1], got %g", ipl.PFD))
		}
		if ipl.SIL != 0 && (ipl.SIL < 1 || ipl.SIL > 4) {
			verr.Add(field("sil"),
				fmt.Sprintf("must be between 1 and 4, got %d", ipl.SIL))
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// buildRecommendations generates the shortfall guidance for a non-adequate
// result. The wording is deterministic so repeated analyses of the same
// snapshot stay byte-identical.
func buildRecommendations(ga *datatypes.GapAnalysis, additional float64) []string {
	recs := []string{
		fmt.Sprintf(
			"Credited protection achieves a risk reduction factor of %g against a required %g; an additional factor of %g is needed to reach the target frequency of %g/yr.",
			ga.TotalRRF, ga.RequiredRRF, additional, ga.Scenario.TargetFrequency),
	}

	if ga.RequiredSIL > 0 {
		recs = append(recs, fmt.Sprintf(
			"Add an independent safety instrumented function rated SIL %d (risk reduction factor of at least %g) or equivalent combination of independent layers.",
			ga.RequiredSIL, silBandFloor(ga.RequiredSIL)))
	} else {
		recs = append(recs,
			"The shortfall is below the SIL 1 band; an additional independent alarm, relief, or procedural layer is sufficient to close it.")
	}

	if len(ga.ExcludedIPLs) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d claimed layer(s) earn no credit pending independence review: %s.",
			len(ga.ExcludedIPLs), joinNames(ga.ExcludedIPLs)))
	}

	if ga.GapStatus == datatypes.GapMarginal {
		recs = append(recs,
			"Protection is within the marginal band; verify the probability of failure on demand claimed for each credited layer before accepting the residual risk.")
	}

	return recs
}

// silBandFloor returns the additional-RRF lower bound of a SIL band.
func silBandFloor(sil int) float64 {
	switch sil {
	case 4:
		return silBand4Min
	case 3:
		return silBand3Min
	case 2:
		return silBand2Min
	default:
		return silBand1Min
	}
}

// joinNames renders an already-sorted name list for message text.
func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

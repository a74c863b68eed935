// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Protection-layer (LOPA) types: independent protection layers, hazard
// scenarios, and the gap-analysis result derived from them.
package datatypes

// =============================================================================
// IPL Types
// =============================================================================

// IPLType identifies the kind of protection layer being credited.
type IPLType string

const (
	// IPLAlarm is an alarm with operator response.
	IPLAlarm IPLType = "alarm"

	// IPLInterlock is an instrumented interlock or trip function.
	IPLInterlock IPLType = "interlock"

	// IPLRelief is a mechanical relief device.
	IPLRelief IPLType = "relief"

	// IPLProcedural is an administrative or procedural safeguard.
	IPLProcedural IPLType = "procedural"
)

// Valid returns true if t is one of the defined layer types.
func (t IPLType) Valid() bool {
	switch t {
	case IPLAlarm, IPLInterlock, IPLRelief, IPLProcedural:
		return true
	}
	return false
}

// IPL is an independent protection layer credited against a scenario.
//
// # Description
//
// An IPL carries the probability that the layer fails when demanded (PFD)
// and the two independence judgements that decide whether the layer may be
// credited at all. Layers that are not independent of the initiating event
// or of the other credited layers stay on the record for audit but never
// enter the risk-reduction product.
//
// # Fields
//
//   - Name: Display name of the safeguard.
//   - Type: Layer kind (alarm, interlock, relief, procedural).
//   - PFD: Probability of failure on demand, strictly in (0, 1].
//   - IndependentOfInitiator: True when the layer cannot be defeated by
//     the initiating event itself.
//   - IndependentOfOtherIPLs: True when the layer shares no components or
//     support systems with the other credited layers.
//   - SIL: Optional claimed safety integrity level, 1-4.
type IPL struct {
	Name                   string  `json:"name" yaml:"name" validate:"required"`
	Type                   IPLType `json:"type" yaml:"type" validate:"required,oneof=alarm interlock relief procedural"`
	PFD                    float64 `json:"pfd" yaml:"pfd" validate:"required,gt=0,lte=1"`
	IndependentOfInitiator bool    `json:"independent_of_initiator" yaml:"independent_of_initiator"`
	IndependentOfOtherIPLs bool    `json:"independent_of_other_ipls" yaml:"independent_of_other_ipls"`
	SIL                    int     `json:"sil,omitempty" yaml:"sil,omitempty" validate:"omitempty,min=1,max=4"`
}

// RRF returns the risk reduction factor (1 / PFD).
//
// The caller is responsible for rejecting a non-positive PFD first; a
// stored record that reaches this method with PFD <= 0 is corrupt.
func (p *IPL) RRF() float64 {
	return 1.0 / p.PFD
}

// Credited returns true when both independence judgements hold and the
// layer therefore contributes to the risk-reduction product.
func (p *IPL) Credited() bool {
	return p.IndependentOfInitiator && p.IndependentOfOtherIPLs
}

// =============================================================================
// Scenario (analyzer input)
// =============================================================================

// LopaScenario is the input document for a layer-of-protection analysis.
//
// Scenarios are owned by the surrounding hazard-review workflow and stored
// alongside the analysis they belong to; the engine treats them as
// read-only snapshots.
type LopaScenario struct {
	// ID is the record identifier (UUID v4). Optional on ad-hoc requests.
	ID string `json:"id,omitempty" yaml:"id,omitempty" validate:"omitempty,uuid4"`

	// NodeRef links the scenario to a process node. Optional.
	NodeRef string `json:"node_ref,omitempty" yaml:"node_ref,omitempty"`

	// Description is the scenario statement. Required.
	Description string `json:"description" yaml:"description" validate:"required"`

	// Consequence is the unmitigated outcome description.
	Consequence string `json:"consequence" yaml:"consequence"`

	// InitiatingEventFrequency is the initiating event rate in events per
	// year. Required, must be positive.
	InitiatingEventFrequency float64 `json:"initiating_event_frequency" yaml:"initiating_event_frequency" validate:"required,gt=0"`

	// InitiatingEventCategory names the initiating event class
	// (e.g. "bpcs_failure", "human_error", "loss_of_utilities").
	InitiatingEventCategory string `json:"initiating_event_category,omitempty" yaml:"initiating_event_category,omitempty"`

	// InitiatingEventDescription is free text describing the initiator.
	InitiatingEventDescription string `json:"initiating_event_description,omitempty" yaml:"initiating_event_description,omitempty"`

	// TargetFrequency is the tolerable mitigated event rate in events per
	// year. Required, must be positive.
	TargetFrequency float64 `json:"target_frequency" yaml:"target_frequency" validate:"required,gt=0"`

	// IPLs is the ordered list of protection layers claimed for the
	// scenario. May be empty (no credit).
	IPLs []IPL `json:"ipls" yaml:"ipls" validate:"dive"`
}

// Validate checks the scenario and every nested layer.
func (s *LopaScenario) Validate() error {
	return riskValidate.Struct(s)
}

// =============================================================================
// Gap Analysis (analyzer output)
// =============================================================================

// GapStatus classifies the adequacy of the credited protection layers.
type GapStatus string

const (
	// GapAdequate means the achieved risk reduction meets the requirement.
	GapAdequate GapStatus = "adequate"

	// GapMarginal means the achieved reduction is close to but below the
	// requirement.
	GapMarginal GapStatus = "marginal"

	// GapInadequate means the achieved reduction falls well short.
	GapInadequate GapStatus = "inadequate"
)

// GapAnalysis is the outcome of analyzing one scenario.
//
// # Description
//
// GapAnalysis embeds the scenario it was computed from plus every derived
// quantity: the achieved risk-reduction factor over the credited layers,
// the factor demanded by the tolerable frequency, their ratio, the status
// classification of that ratio, the mitigated event likelihood, the safety
// integrity level a new instrumented function would need (absent when the
// layers are adequate or the shortfall is below the SIL1 band), and the
// generated recommendation texts (empty when adequate).
type GapAnalysis struct {
	Scenario LopaScenario `json:"scenario"`

	// TotalRRF is the product of risk-reduction factors over layers that
	// pass both independence judgements. 1.0 when nothing is credited.
	TotalRRF float64 `json:"total_rrf"`

	// RequiredRRF is initiating frequency divided by target frequency.
	RequiredRRF float64 `json:"required_rrf"`

	// GapRatio is TotalRRF / RequiredRRF.
	GapRatio float64 `json:"gap_ratio"`

	// GapStatus classifies GapRatio against the configured thresholds.
	GapStatus GapStatus `json:"gap_status"`

	// MitigatedEventLikelihood is the initiating frequency divided by
	// TotalRRF, in events per year.
	MitigatedEventLikelihood float64 `json:"mitigated_event_likelihood"`

	// RequiredSIL is the integrity level covering the remaining shortfall,
	// 1-4. Zero when adequate or when the shortfall sits below the SIL1
	// band.
	RequiredSIL int `json:"required_sil,omitempty"`

	// CreditedIPLCount is how many layers entered the product.
	CreditedIPLCount int `json:"credited_ipl_count"`

	// ExcludedIPLs names the layers kept for audit but excluded from
	// credit because an independence judgement failed.
	ExcludedIPLs []string `json:"excluded_ipls,omitempty"`

	// Recommendations describes the shortfall and suggested additions.
	// Empty when the protection is adequate.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compliance maps hazard-review evidence onto regulatory standards.
//
// The standards registry (standards.yaml) binds each clause of a standard
// to one of the coverage rules in this file. The aggregator evaluates the
// rules against an evidence snapshot of an analysis and rolls the clause
// outcomes into per-standard and per-analysis summaries. Every rule is a
// pure function of the snapshot, so two evaluations of unchanged records
// produce identical outcomes.
//
// Thread Safety:
//
//	All exported functions and types are safe for concurrent use.
package compliance

import (
	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// =============================================================================
// Rule Kinds
// =============================================================================

// RuleKind identifies a clause coverage rule.
type RuleKind string

const (
	// RuleHazardReview checks that a systematic deviation review exists.
	RuleHazardReview RuleKind = "hazard_review"

	// RuleRiskRanking checks that identified hazards carry a full
	// severity, likelihood, and detectability ranking.
	RuleRiskRanking RuleKind = "risk_ranking"

	// RuleHighRiskCoverage checks that every high-band hazard has a
	// consequence scenario on the same node.
	RuleHighRiskCoverage RuleKind = "high_risk_coverage"

	// RuleProtectionAdequacy checks that claimed protection layers close
	// each scenario's risk gap.
	RuleProtectionAdequacy RuleKind = "protection_adequacy"

	// RuleIPLIndependence checks that claimed protection layers earn
	// independence credit.
	RuleIPLIndependence RuleKind = "ipl_independence"

	// RuleSILAssignment checks that instrumented protection functions
	// carry an assigned integrity level.
	RuleSILAssignment RuleKind = "sil_assignment"

	// RuleResidualRisk checks that mitigated event likelihood lands
	// within the tolerable band around the target frequency.
	RuleResidualRisk RuleKind = "residual_risk"

	// RuleScenarioDocumentation checks that scenarios document their
	// consequence and initiating cause.
	RuleScenarioDocumentation RuleKind = "scenario_documentation"
)

// Valid reports whether k names a known coverage rule.
func (k RuleKind) Valid() bool {
	switch k {
	case RuleHazardReview, RuleRiskRanking, RuleHighRiskCoverage,
		RuleProtectionAdequacy, RuleIPLIndependence, RuleSILAssignment,
		RuleResidualRisk, RuleScenarioDocumentation:
		return true
	}
	return false
}

// Residual-risk tolerance bands, as multiples of the scenario target
// frequency. Within one order of magnitude of target counts as tolerable;
// within two as needing review; beyond that as non-compliant.
const (
	residualTolerableFactor = 10.0
	residualReviewFactor    = 100.0
)

// =============================================================================
// Evidence Snapshot
// =============================================================================

// Evidence is the assessed state of one analysis: its verified risk
// entries plus a freshly computed gap analysis per LOPA scenario.
type Evidence struct {
	// Entries are the analysis risk entries, verified against their
	// stored scores.
	Entries []datatypes.RiskEntry

	// Gaps hold one gap analysis per scenario, in scenario order.
	Gaps []datatypes.GapAnalysis
}

// EvaluateRule applies a coverage rule to the evidence and returns the
// clause outcome. Unknown kinds evaluate to not assessed; the registry
// rejects them at load time, so this is a belt for hand-built evidence.
func EvaluateRule(kind RuleKind, ev *Evidence) datatypes.ClauseStatus {
	if ev == nil {
		return datatypes.ClauseNotAssessed
	}
	switch kind {
	case RuleHazardReview:
		return evalHazardReview(ev)
	case RuleRiskRanking:
		return evalRiskRanking(ev)
	case RuleHighRiskCoverage:
		return evalHighRiskCoverage(ev)
	case RuleProtectionAdequacy:
		return evalProtectionAdequacy(ev)
	case RuleIPLIndependence:
		return evalIPLIndependence(ev)
	case RuleSILAssignment:
		return evalSILAssignment(ev)
	case RuleResidualRisk:
		return evalResidualRisk(ev)
	case RuleScenarioDocumentation:
		return evalScenarioDocumentation(ev)
	default:
		return datatypes.ClauseNotAssessed
	}
}

// =============================================================================
// Rule Implementations
// =============================================================================

// evalHazardReview: recorded deviations show the review happened. LOPA
// scenarios without any deviation entries count as a partial review only.
func evalHazardReview(ev *Evidence) datatypes.ClauseStatus {
	switch {
	case len(ev.Entries) > 0:
		return datatypes.ClauseCompliant
	case len(ev.Gaps) > 0:
		return datatypes.ClausePartial
	default:
		return datatypes.ClauseNotAssessed
	}
}

// evalRiskRanking: every entry ranked on all three factors is fully
// compliant; entries ranked without detectability leave the ranking
// partial.
func evalRiskRanking(ev *Evidence) datatypes.ClauseStatus {
	if len(ev.Entries) == 0 {
		return datatypes.ClauseNotAssessed
	}
	for i := range ev.Entries {
		d := ev.Entries[i].Detectability
		if d < datatypes.RatingMin || d > datatypes.RatingMax {
			return datatypes.ClausePartial
		}
	}
	return datatypes.ClauseCompliant
}

// evalHighRiskCoverage: each high-band entry needs a LOPA scenario on its
// node. With no high-band entries nothing addresses the clause.
func evalHighRiskCoverage(ev *Evidence) datatypes.ClauseStatus {
	nodes := make(map[string]bool, len(ev.Gaps))
	for i := range ev.Gaps {
		nodes[ev.Gaps[i].Scenario.NodeRef] = true
	}
	high, covered := 0, 0
	for i := range ev.Entries {
		if ev.Entries[i].Band != datatypes.BandHigh {
			continue
		}
		high++
		if nodes[ev.Entries[i].NodeRef] {
			covered++
		}
	}
	switch {
	case high == 0:
		return datatypes.ClauseNotAssessed
	case covered == high:
		return datatypes.ClauseCompliant
	case covered > 0:
		return datatypes.ClausePartial
	default:
		return datatypes.ClauseNonCompliant
	}
}

// evalProtectionAdequacy: any inadequate gap fails the clause outright;
// marginal gaps leave it partial.
func evalProtectionAdequacy(ev *Evidence) datatypes.ClauseStatus {
	if len(ev.Gaps) == 0 {
		return datatypes.ClauseNotAssessed
	}
	status := datatypes.ClauseCompliant
	for i := range ev.Gaps {
		switch ev.Gaps[i].GapStatus {
		case datatypes.GapInadequate:
			return datatypes.ClauseNonCompliant
		case datatypes.GapMarginal:
			status = datatypes.ClausePartial
		}
	}
	return status
}

// evalIPLIndependence: scenarios that claim layers should earn full
// independence credit for them. Scenarios with no claimed layers don't
// address the clause.
func evalIPLIndependence(ev *Evidence) datatypes.ClauseStatus {
	claiming, clean := 0, 0
	for i := range ev.Gaps {
		if len(ev.Gaps[i].Scenario.IPLs) == 0 {
			continue
		}
		claiming++
		if len(ev.Gaps[i].ExcludedIPLs) == 0 {
			clean++
		}
	}
	switch {
	case claiming == 0:
		return datatypes.ClauseNotAssessed
	case clean == claiming:
		return datatypes.ClauseCompliant
	case clean > 0:
		return datatypes.ClausePartial
	default:
		return datatypes.ClauseNonCompliant
	}
}

// evalSILAssignment: every instrumented (interlock) layer carries an
// assigned SIL. Analyses without instrumented layers don't address the
// clause.
func evalSILAssignment(ev *Evidence) datatypes.ClauseStatus {
	interlocks, rated := 0, 0
	for i := range ev.Gaps {
		for _, ipl := range ev.Gaps[i].Scenario.IPLs {
			if ipl.Type != datatypes.IPLInterlock {
				continue
			}
			interlocks++
			if ipl.SIL >= 1 {
				rated++
			}
		}
	}
	switch {
	case interlocks == 0:
		return datatypes.ClauseNotAssessed
	case rated == interlocks:
		return datatypes.ClauseCompliant
	case rated > 0:
		return datatypes.ClausePartial
	default:
		return datatypes.ClauseNonCompliant
	}
}

// evalResidualRisk: mitigated likelihood within residualTolerableFactor
// of target is tolerable; within residualReviewFactor it needs review;
// beyond that the clause fails.
func evalResidualRisk(ev *Evidence) datatypes.ClauseStatus {
	if len(ev.Gaps) == 0 {
		return datatypes.ClauseNotAssessed
	}
	status := datatypes.ClauseCompliant
	for i := range ev.Gaps {
		g := &ev.Gaps[i]
		target := g.Scenario.TargetFrequency
		switch {
		case g.MitigatedEventLikelihood > residualReviewFactor*target:
			return datatypes.ClauseNonCompliant
		case g.MitigatedEventLikelihood > residualTolerableFactor*target:
			status = datatypes.ClausePartial
		}
	}
	return status
}

// evalScenarioDocumentation: a documented scenario records both its
// consequence and its initiating cause.
func evalScenarioDocumentation(ev *Evidence) datatypes.ClauseStatus {
	if len(ev.Gaps) == 0 {
		return datatypes.ClauseNotAssessed
	}
	documented := 0
	for i := range ev.Gaps {
		s := &ev.Gaps[i].Scenario
		if s.Consequence != "" && s.InitiatingEventDescription != "" {
			documented++
		}
	}
	switch {
	case documented == len(ev.Gaps):
		return datatypes.ClauseCompliant
	case documented > 0:
		return datatypes.ClausePartial
	default:
		return datatypes.ClauseNonCompliant
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compliance

import (
	"testing"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// rankedEntry builds a risk entry with the given band and detectability.
func rankedEntry(node string, band datatypes.RiskBand, det int) datatypes.RiskEntry {
	return datatypes.RiskEntry{
		NodeRef:       node,
		Severity:      3,
		Likelihood:    3,
		Detectability: det,
		Band:          band,
	}
}

// documentedGap builds a gap analysis on a fully documented scenario with
// one credited interlock. Mitigated likelihood equals the target.
func documentedGap(node string, status datatypes.GapStatus) datatypes.GapAnalysis {
	return datatypes.GapAnalysis{
		Scenario: datatypes.LopaScenario{
			NodeRef:                    node,
			Consequence:                "vessel overpressure",
			InitiatingEventDescription: "cooling water loss",
			InitiatingEventFrequency:   0.1,
			TargetFrequency:            1e-4,
			IPLs: []datatypes.IPL{{
				Name: "SIF-101", Type: datatypes.IPLInterlock, PFD: 1e-3, SIL: 2,
				IndependentOfInitiator: true, IndependentOfOtherIPLs: true,
			}},
		},
		TotalRRF:                 1000,
		RequiredRRF:              1000,
		GapRatio:                 1.0,
		GapStatus:                status,
		MitigatedEventLikelihood: 1e-4,
		CreditedIPLCount:         1,
	}
}

func TestEvaluateRule_HazardReview(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want datatypes.ClauseStatus
	}{
		{
			name: "entries present",
			ev:   Evidence{Entries: []datatypes.RiskEntry{rankedEntry("N-1", datatypes.BandLow, 1)}},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "scenarios without deviations",
			ev:   Evidence{Gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)}},
			want: datatypes.ClausePartial,
		},
		{
			name: "empty analysis",
			ev:   Evidence{},
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateRule(RuleHazardReview, &tt.ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_RiskRanking(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want datatypes.ClauseStatus
	}{
		{
			name: "all three factors ranked",
			ev: Evidence{Entries: []datatypes.RiskEntry{
				rankedEntry("N-1", datatypes.BandLow, 2),
				rankedEntry("N-2", datatypes.BandLow, 5),
			}},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "one entry missing detectability",
			ev: Evidence{Entries: []datatypes.RiskEntry{
				rankedEntry("N-1", datatypes.BandLow, 2),
				rankedEntry("N-2", datatypes.BandLow, 0),
			}},
			want: datatypes.ClausePartial,
		},
		{
			name: "no entries",
			ev:   Evidence{},
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateRule(RuleRiskRanking, &tt.ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_HighRiskCoverage(t *testing.T) {
	tests := []struct {
		name string
		ev   Evidence
		want datatypes.ClauseStatus
	}{
		{
			name: "every high entry has a scenario on its node",
			ev: Evidence{
				Entries: []datatypes.RiskEntry{rankedEntry("N-1", datatypes.BandHigh, 1)},
				Gaps:    []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "some high entries covered",
			ev: Evidence{
				Entries: []datatypes.RiskEntry{
					rankedEntry("N-1", datatypes.BandHigh, 1),
					rankedEntry("N-2", datatypes.BandHigh, 1),
				},
				Gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			},
			want: datatypes.ClausePartial,
		},
		{
			name: "no high entry covered",
			ev: Evidence{
				Entries: []datatypes.RiskEntry{rankedEntry("N-9", datatypes.BandHigh, 1)},
				Gaps:    []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			},
			want: datatypes.ClauseNonCompliant,
		},
		{
			name: "no high-band entries",
			ev: Evidence{
				Entries: []datatypes.RiskEntry{rankedEntry("N-1", datatypes.BandMedium, 1)},
				Gaps:    []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			},
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateRule(RuleHighRiskCoverage, &tt.ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_ProtectionAdequacy(t *testing.T) {
	tests := []struct {
		name     string
		statuses []datatypes.GapStatus
		want     datatypes.ClauseStatus
	}{
		{"all adequate", []datatypes.GapStatus{datatypes.GapAdequate, datatypes.GapAdequate}, datatypes.ClauseCompliant},
		{"marginal present", []datatypes.GapStatus{datatypes.GapAdequate, datatypes.GapMarginal}, datatypes.ClausePartial},
		{"inadequate overrides marginal", []datatypes.GapStatus{datatypes.GapMarginal, datatypes.GapInadequate}, datatypes.ClauseNonCompliant},
		{"no scenarios", nil, datatypes.ClauseNotAssessed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evidence{}
			for _, s := range tt.statuses {
				ev.Gaps = append(ev.Gaps, documentedGap("N-1", s))
			}
			if got := EvaluateRule(RuleProtectionAdequacy, &ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_IPLIndependence(t *testing.T) {
	withExclusions := documentedGap("N-1", datatypes.GapMarginal)
	withExclusions.ExcludedIPLs = []string{"LAH-201"}

	noLayers := documentedGap("N-2", datatypes.GapInadequate)
	noLayers.Scenario.IPLs = nil
	noLayers.TotalRRF = 1
	noLayers.CreditedIPLCount = 0

	tests := []struct {
		name string
		gaps []datatypes.GapAnalysis
		want datatypes.ClauseStatus
	}{
		{
			name: "all claimed layers credited",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "some scenarios lose credit",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate), withExclusions},
			want: datatypes.ClausePartial,
		},
		{
			name: "every claiming scenario loses credit",
			gaps: []datatypes.GapAnalysis{withExclusions},
			want: datatypes.ClauseNonCompliant,
		},
		{
			name: "no scenario claims layers",
			gaps: []datatypes.GapAnalysis{noLayers},
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evidence{Gaps: tt.gaps}
			if got := EvaluateRule(RuleIPLIndependence, &ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_SILAssignment(t *testing.T) {
	unrated := documentedGap("N-1", datatypes.GapAdequate)
	unrated.Scenario.IPLs[0].SIL = 0

	relief := documentedGap("N-2", datatypes.GapAdequate)
	relief.Scenario.IPLs[0].Type = datatypes.IPLRelief
	relief.Scenario.IPLs[0].SIL = 0

	tests := []struct {
		name string
		gaps []datatypes.GapAnalysis
		want datatypes.ClauseStatus
	}{
		{
			name: "all interlocks rated",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "one interlock unrated",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate), unrated},
			want: datatypes.ClausePartial,
		},
		{
			name: "every interlock unrated",
			gaps: []datatypes.GapAnalysis{unrated},
			want: datatypes.ClauseNonCompliant,
		},
		{
			name: "no instrumented layers",
			gaps: []datatypes.GapAnalysis{relief},
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evidence{Gaps: tt.gaps}
			if got := EvaluateRule(RuleSILAssignment, &ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_ResidualRisk(t *testing.T) {
	// Target is 1e-4 in every fixture; the bands pivot at 1e-3 and 1e-2.
	mk := func(mitigated float64) datatypes.GapAnalysis {
		g := documentedGap("N-1", datatypes.GapMarginal)
		g.MitigatedEventLikelihood = mitigated
		return g
	}
	tests := []struct {
		name string
		gaps []datatypes.GapAnalysis
		want datatypes.ClauseStatus
	}{
		{"at target", []datatypes.GapAnalysis{mk(1e-4)}, datatypes.ClauseCompliant},
		{"at tolerable bound", []datatypes.GapAnalysis{mk(1e-3)}, datatypes.ClauseCompliant},
		{"inside review band", []datatypes.GapAnalysis{mk(5e-3)}, datatypes.ClausePartial},
		{"beyond review band", []datatypes.GapAnalysis{mk(2e-2)}, datatypes.ClauseNonCompliant},
		{"worst scenario wins", []datatypes.GapAnalysis{mk(1e-4), mk(2e-2)}, datatypes.ClauseNonCompliant},
		{"no scenarios", nil, datatypes.ClauseNotAssessed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evidence{Gaps: tt.gaps}
			if got := EvaluateRule(RuleResidualRisk, &ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_ScenarioDocumentation(t *testing.T) {
	undocumented := documentedGap("N-1", datatypes.GapAdequate)
	undocumented.Scenario.InitiatingEventDescription = ""

	tests := []struct {
		name string
		gaps []datatypes.GapAnalysis
		want datatypes.ClauseStatus
	}{
		{
			name: "all documented",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate)},
			want: datatypes.ClauseCompliant,
		},
		{
			name: "partially documented",
			gaps: []datatypes.GapAnalysis{documentedGap("N-1", datatypes.GapAdequate), undocumented},
			want: datatypes.ClausePartial,
		},
		{
			name: "nothing documented",
			gaps: []datatypes.GapAnalysis{undocumented},
			want: datatypes.ClauseNonCompliant,
		},
		{
			name: "no scenarios",
			gaps: nil,
			want: datatypes.ClauseNotAssessed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Evidence{Gaps: tt.gaps}
			if got := EvaluateRule(RuleScenarioDocumentation, &ev); got != tt.want {
				t.Errorf("EvaluateRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_Guards(t *testing.T) {
	if got := EvaluateRule(RuleHazardReview, nil); got != datatypes.ClauseNotAssessed {
		t.Errorf("nil evidence = %s, want %s", got, datatypes.ClauseNotAssessed)
	}
	ev := Evidence{Entries: []datatypes.RiskEntry{rankedEntry("N-1", datatypes.BandLow, 1)}}
	if got := EvaluateRule(RuleKind("made_up"), &ev); got != datatypes.ClauseNotAssessed {
		t.Errorf("unknown rule = %s, want %s", got, datatypes.ClauseNotAssessed)
	}
}

func TestRuleKindValid(t *testing.T) {
	for _, k := range []RuleKind{
		RuleHazardReview, RuleRiskRanking, RuleHighRiskCoverage,
		RuleProtectionAdequacy, RuleIPLIndependence, RuleSILAssignment,
		RuleResidualRisk, RuleScenarioDocumentation,
	} {
		if !k.Valid() {
			t.Errorf("RuleKind(%s).Valid() = false, want true", k)
		}
	}
	if RuleKind("made_up").Valid() {
		t.Error("RuleKind(made_up).Valid() = true, want false")
	}
}

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
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/store"
)

const (
	aggProjectID  = "3f8a2c54-1b9d-4e07-8a31-6c2f9d84e015"
	aggAnalysisA  = "9c41d7b2-5e38-4f6a-b90d-2a17c8e35f44"
	aggAnalysisB  = "d25e80f1-7c4a-4b93-a6e8-415f0b92c763"
	aggEntryA1    = "61b3f9a7-0d52-4c8e-9f14-7e2a85d0c396"
	aggEntryA2    = "f04c27e9-8a61-4d35-b278-9c50e14a6db2"
	aggEntryB1    = "2e97a50c-64f8-4012-8d5b-3f19c7e284a0"
	aggPrincipal  = "lead.engineer@example.com"
	aggMissingID  = "54c1e9f0-2b87-4da6-93f5-8e60a24c7d19"
	aggUnusedProj = "b86d34a2-9e05-4c71-af28-6d49f1e08c53"
)

// marginalAnalysis yields 80% against iec_61511: seven clauses compliant,
// two partially compliant (one entry lacks detectability, the credited
// layer leaves a marginal gap), one not assessed (no high-band entries).
func marginalAnalysis() datatypes.Analysis {
	return datatypes.Analysis{
		ID:        aggAnalysisA,
		ProjectID: aggProjectID,
		Name:      "Unit 300 separator train",
		Entries: []datatypes.RiskEntry{
			{
				ID: aggEntryA1, NodeRef: "N-301", GuideWord: "more", Parameter: "pressure",
				Deviation: "feed surge raises separator pressure",
				Severity:  3, Likelihood: 2, Score: 6, Band: datatypes.BandLow,
			},
			{
				ID: aggEntryA2, NodeRef: "N-302", GuideWord: "no", Parameter: "flow",
				Deviation: "blocked outlet on the reflux line",
				Severity:  4, Likelihood: 3, Detectability: 1,
				Score: 12, Band: datatypes.BandLow,
			},
		},
		Scenarios: []datatypes.LopaScenario{{
			NodeRef:                    "N-301",
			Description:                "separator overpressure on feed surge",
			Consequence:                "flange leak and hydrocarbon release",
			InitiatingEventFrequency:   0.1,
			InitiatingEventCategory:    "bpcs_failure",
			InitiatingEventDescription: "feed control loop fails open",
			TargetFrequency:            1e-4,
			IPLs: []datatypes.IPL{{
				Name: "PSH-301 trip", Type: datatypes.IPLInterlock, PFD: 0.0015, SIL: 1,
				IndependentOfInitiator: true, IndependentOfOtherIPLs: true,
			}},
		}},
	}
}

// adequateAnalysis yields 90% against iec_61511: nine clauses compliant,
// one not assessed.
func adequateAnalysis() datatypes.Analysis {
	return datatypes.Analysis{
		ID:        aggAnalysisB,
		ProjectID: aggProjectID,
		Name:      "Unit 300 compressor loop",
		Entries: []datatypes.RiskEntry{{
			ID: aggEntryB1, NodeRef: "N-310", GuideWord: "reverse", Parameter: "flow",
			Deviation: "check valve passes on shutdown",
			Severity:  4, Likelihood: 3, Detectability: 1,
			Score: 12, Band: datatypes.BandLow,
		}},
		Scenarios: []datatypes.LopaScenario{{
			NodeRef:                    "N-310",
			Description:                "compressor surge on reverse flow",
			Consequence:                "case damage and seal release",
			InitiatingEventFrequency:   0.1,
			InitiatingEventDescription: "discharge check valve fails to seat",
			TargetFrequency:            1e-4,
			IPLs: []datatypes.IPL{{
				Name: "FSL-310 trip", Type: datatypes.IPLInterlock, PFD: 1e-4, SIL: 3,
				IndependentOfInitiator: true, IndependentOfOtherIPLs: true,
			}},
		}},
	}
}

// seededStore loads the project plus the given analyses into a fresh
// in-memory store.
func seededStore(t *testing.T, analyses ...datatypes.Analysis) *store.Memory {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	err := s.PutProject(ctx, &datatypes.Project{ID: aggProjectID, Name: "Unit 300 revamp"})
	if err != nil {
		t.Fatalf("PutProject failed: %v", err)
	}
	for i := range analyses {
		if err := s.PutAnalysis(ctx, &analyses[i]); err != nil {
			t.Fatalf("PutAnalysis failed: %v", err)
		}
	}
	return s
}

// newTestAggregator builds an aggregator over the embedded registry.
func newTestAggregator(t *testing.T, cfg AggregatorConfig) *Aggregator {
	t.Helper()
	ResetStandardsRegistry()
	t.Cleanup(ResetStandardsRegistry)
	ag, err := NewAggregator(cfg)
	if err != nil {
		t.Fatalf("NewAggregator failed: %v", err)
	}
	return ag
}

// stubStore hands out records verbatim, bypassing write-side validation,
// so tests can inject corrupt stored data.
type stubStore struct {
	project  *datatypes.Project
	analyses []datatypes.Analysis
}

func (s *stubStore) GetProject(ctx context.Context, id string) (*datatypes.Project, error) {
	if s.project != nil && s.project.ID == id {
		cp := *s.project
		return &cp, nil
	}
	return nil, fmt.Errorf("project %s: %w", id, datatypes.ErrNotFound)
}

func (s *stubStore) GetAnalysis(ctx context.Context, id string) (*datatypes.Analysis, error) {
	for i := range s.analyses {
		if s.analyses[i].ID == id {
			cp := s.analyses[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("analysis %s: %w", id, datatypes.ErrNotFound)
}

func (s *stubStore) ListProjectAnalyses(ctx context.Context, projectID string) ([]datatypes.Analysis, error) {
	out := []datatypes.Analysis{}
	for i := range s.analyses {
		if s.analyses[i].ProjectID == projectID {
			out = append(out, s.analyses[i])
		}
	}
	return out, nil
}

// =============================================================================
// Analysis Scope
// =============================================================================

func TestAnalysisCompliance_WorkedExample(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{Store: seededStore(t, marginalAnalysis())})

	doc, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, []string{"iec_61511"})
	if err != nil {
		t.Fatalf("AnalysisCompliance failed: %v", err)
	}

	if doc.AnalysisID != aggAnalysisA || doc.ProjectID != aggProjectID {
		t.Errorf("doc identity = %s/%s, want %s/%s", doc.AnalysisID, doc.ProjectID, aggAnalysisA, aggProjectID)
	}
	if doc.EntryCount != 2 || doc.ScenarioCount != 1 {
		t.Errorf("counts = %d entries, %d scenarios, want 2 and 1", doc.EntryCount, doc.ScenarioCount)
	}
	if !reflect.DeepEqual(doc.StandardsChecked, []string{"iec_61511"}) {
		t.Errorf("StandardsChecked = %v, want [iec_61511]", doc.StandardsChecked)
	}
	if doc.OverallPercentage != 80 {
		t.Errorf("OverallPercentage = %d, want 80", doc.OverallPercentage)
	}
	if doc.OverallStatus != datatypes.StatusPartial {
		t.Errorf("OverallStatus = %s, want %s", doc.OverallStatus, datatypes.StatusPartial)
	}

	if len(doc.Standards) != 1 {
		t.Fatalf("Standards has %d summaries, want 1", len(doc.Standards))
	}
	s := doc.Standards[0]
	if s.StandardID != "iec_61511" {
		t.Errorf("StandardID = %s, want iec_61511", s.StandardID)
	}
	if s.TotalClauses != 10 || s.CompliantCount != 7 || s.PartiallyCompliantCount != 2 ||
		s.NonCompliantCount != 0 || s.NotApplicableCount != 0 || s.NotAssessedCount != 1 {
		t.Errorf("buckets = total %d / C %d / P %d / NC %d / NA %d / unassessed %d, want 10/7/2/0/0/1",
			s.TotalClauses, s.CompliantCount, s.PartiallyCompliantCount,
			s.NonCompliantCount, s.NotApplicableCount, s.NotAssessedCount)
	}
	if s.CompliancePercentage != 80 || s.OverallStatus != datatypes.StatusPartial {
		t.Errorf("summary = %d%% %s, want 80%% %s", s.CompliancePercentage, s.OverallStatus, datatypes.StatusPartial)
	}

	wantClauses := map[string]datatypes.ClauseStatus{
		"8.2.1":  datatypes.ClauseCompliant,
		"8.2.2":  datatypes.ClauseCompliant,
		"8.2.3":  datatypes.ClausePartial,
		"8.2.4":  datatypes.ClausePartial,
		"9.2.2":  datatypes.ClauseNotAssessed,
		"9.3.1":  datatypes.ClauseCompliant,
		"9.4.1":  datatypes.ClauseCompliant,
		"10.3.1": datatypes.ClauseCompliant,
		"11.9.1": datatypes.ClauseCompliant,
		"12.4.1": datatypes.ClauseCompliant,
	}
	if len(s.Clauses) != len(wantClauses) {
		t.Fatalf("Clauses has %d assessments, want %d", len(s.Clauses), len(wantClauses))
	}
	for _, cl := range s.Clauses {
		if want, ok := wantClauses[cl.Ref]; !ok {
			t.Errorf("unexpected clause ref %q", cl.Ref)
		} else if cl.Status != want {
			t.Errorf("clause %s = %s, want %s", cl.Ref, cl.Status, want)
		}
	}
}

func TestAnalysisCompliance_DefaultsToAllStandards(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{Store: seededStore(t, marginalAnalysis())})

	doc, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, nil)
	if err != nil {
		t.Fatalf("AnalysisCompliance failed: %v", err)
	}

	wantIDs := []string{"osha_psm", "iec_61511", "iec_61882", "iso_31000", "epa_rmp"}
	if !reflect.DeepEqual(doc.StandardsChecked, wantIDs) {
		t.Errorf("StandardsChecked = %v, want %v", doc.StandardsChecked, wantIDs)
	}
	if len(doc.Standards) != len(wantIDs) {
		t.Fatalf("Standards has %d summaries, want %d", len(doc.Standards), len(wantIDs))
	}
	for i, s := range doc.Standards {
		if s.StandardID != wantIDs[i] {
			t.Errorf("Standards[%d] = %s, want %s", i, s.StandardID, wantIDs[i])
		}
		if len(s.Clauses) != s.TotalClauses {
			t.Errorf("standard %s carries %d clause assessments, want %d", s.StandardID, len(s.Clauses), s.TotalClauses)
		}
		sum := s.CompliantCount + s.PartiallyCompliantCount + s.NonCompliantCount +
			s.NotApplicableCount + s.NotAssessedCount
		if sum != s.TotalClauses {
			t.Errorf("standard %s buckets sum to %d, want %d", s.StandardID, sum, s.TotalClauses)
		}
	}
	if doc.OverallStatus == datatypes.StatusNotAssessed {
		t.Error("OverallStatus should not be not_assessed with evidence present")
	}
}

func TestAnalysisCompliance_InputValidation(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{Store: seededStore(t, marginalAnalysis())})
	ctx := context.Background()

	t.Run("malformed analysis id", func(t *testing.T) {
		_, err := ag.AnalysisCompliance(ctx, aggPrincipal, "not-a-uuid", nil)
		if !errors.Is(err, datatypes.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("unknown standards named individually", func(t *testing.T) {
		_, err := ag.AnalysisCompliance(ctx, aggPrincipal, aggAnalysisA, []string{"fake_a", "iec_61511", "fake_b"})
		if !errors.Is(err, datatypes.ErrValidation) {
			t.Fatalf("error = %v, want ErrValidation", err)
		}
		var verr *datatypes.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error should be a ValidationError, got %T", err)
		}
		if len(verr.Fields) != 2 {
			t.Errorf("ValidationError has %d field errors, want 2: %v", len(verr.Fields), verr)
		}
	})

	t.Run("missing analysis", func(t *testing.T) {
		_, err := ag.AnalysisCompliance(ctx, aggPrincipal, aggMissingID, nil)
		if !errors.Is(err, datatypes.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestAnalysisCompliance_Forbidden(t *testing.T) {
	access := store.NewStaticAccess(map[string][]string{
		aggPrincipal: {aggUnusedProj},
	})
	ag := newTestAggregator(t, AggregatorConfig{
		Store:  seededStore(t, marginalAnalysis()),
		Access: access,
	})

	_, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, nil)
	if !errors.Is(err, datatypes.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestAnalysisCompliance_RepeatDiffersOnlyInCheckedAt(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
	}
	calls := 0
	ag := newTestAggregator(t, AggregatorConfig{
		Store: seededStore(t, marginalAnalysis()),
		Now: func() time.Time {
			ts := times[calls%len(times)]
			calls++
			return ts
		},
	})
	ctx := context.Background()

	first, err := ag.AnalysisCompliance(ctx, aggPrincipal, aggAnalysisA, nil)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := ag.AnalysisCompliance(ctx, aggPrincipal, aggAnalysisA, nil)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if first.CheckedAt.Equal(second.CheckedAt) {
		t.Error("CheckedAt should advance between calls")
	}
	first.CheckedAt = time.Time{}
	second.CheckedAt = time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat documents differ beyond CheckedAt:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAnalysisCompliance_CorruptStoredScore(t *testing.T) {
	corrupt := marginalAnalysis()
	corrupt.Entries[0].Score = 999

	ag := newTestAggregator(t, AggregatorConfig{
		Store: &stubStore{analyses: []datatypes.Analysis{corrupt}},
	})

	_, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, nil)
	if !errors.Is(err, datatypes.ErrComputation) {
		t.Errorf("error = %v, want ErrComputation", err)
	}
}

func TestAnalysisCompliance_CorruptStoredScenario(t *testing.T) {
	corrupt := marginalAnalysis()
	corrupt.Scenarios[0].InitiatingEventFrequency = 0

	ag := newTestAggregator(t, AggregatorConfig{
		Store: &stubStore{analyses: []datatypes.Analysis{corrupt}},
	})

	_, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, nil)
	if !errors.Is(err, datatypes.ErrComputation) {
		t.Fatalf("error = %v, want ErrComputation", err)
	}
	// Stored corruption is not a caller mistake; the validation sentinel
	// must not leak through the wrapping.
	if errors.Is(err, datatypes.ErrValidation) {
		t.Errorf("error %v should not wrap ErrValidation", err)
	}
}

func TestAnalysisCompliance_ScopeExclusion(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{
		Store:           seededStore(t, marginalAnalysis()),
		ExcludedClauses: []string{"iec_61511/9.2.2"},
	})

	doc, err := ag.AnalysisCompliance(context.Background(), aggPrincipal, aggAnalysisA, []string{"iec_61511"})
	if err != nil {
		t.Fatalf("AnalysisCompliance failed: %v", err)
	}

	s := doc.Standards[0]
	if s.NotApplicableCount != 1 || s.NotAssessedCount != 0 {
		t.Errorf("buckets = NA %d / unassessed %d, want 1/0", s.NotApplicableCount, s.NotAssessedCount)
	}
	// The denominator stays the full clause count, so the percentage is
	// unchanged by the exclusion.
	if s.CompliancePercentage != 80 {
		t.Errorf("CompliancePercentage = %d, want 80", s.CompliancePercentage)
	}
	for _, cl := range s.Clauses {
		if cl.Ref == "9.2.2" && cl.Status != datatypes.ClauseNotApplicable {
			t.Errorf("clause 9.2.2 = %s, want %s", cl.Status, datatypes.ClauseNotApplicable)
		}
	}
}

// =============================================================================
// Project Scope
// =============================================================================

func TestProjectCompliance_EqualWeightAverage(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{
		Store: seededStore(t, marginalAnalysis(), adequateAnalysis()),
	})

	doc, err := ag.ProjectCompliance(context.Background(), aggPrincipal, aggProjectID, []string{"iec_61511"})
	if err != nil {
		t.Fatalf("ProjectCompliance failed: %v", err)
	}

	if doc.AnalysisCount != 2 || doc.EntryCount != 3 || doc.ScenarioCount != 2 {
		t.Errorf("counts = %d analyses / %d entries / %d scenarios, want 2/3/2",
			doc.AnalysisCount, doc.EntryCount, doc.ScenarioCount)
	}

	if len(doc.Standards) != 1 {
		t.Fatalf("Standards has %d summaries, want 1", len(doc.Standards))
	}
	s := doc.Standards[0]

	// Per-analysis percentages are 80 and 90; each analysis weighs the
	// same, so the project percentage is 85.
	if s.CompliancePercentage != 85 || s.OverallStatus != datatypes.StatusPartial {
		t.Errorf("summary = %d%% %s, want 85%% %s", s.CompliancePercentage, s.OverallStatus, datatypes.StatusPartial)
	}
	if s.TotalClauses != 20 || s.CompliantCount != 16 || s.PartiallyCompliantCount != 2 ||
		s.NonCompliantCount != 0 || s.NotApplicableCount != 0 || s.NotAssessedCount != 2 {
		t.Errorf("buckets = total %d / C %d / P %d / NC %d / NA %d / unassessed %d, want 20/16/2/0/0/2",
			s.TotalClauses, s.CompliantCount, s.PartiallyCompliantCount,
			s.NonCompliantCount, s.NotApplicableCount, s.NotAssessedCount)
	}
	if s.Clauses != nil {
		t.Error("project rollups should omit per-clause detail")
	}

	if doc.OverallPercentage != 85 || doc.OverallStatus != datatypes.StatusPartial {
		t.Errorf("overall = %d%% %s, want 85%% %s", doc.OverallPercentage, doc.OverallStatus, datatypes.StatusPartial)
	}
}

func TestProjectCompliance_NoAnalyses(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{Store: seededStore(t)})

	doc, err := ag.ProjectCompliance(context.Background(), aggPrincipal, aggProjectID, nil)
	if err != nil {
		t.Fatalf("ProjectCompliance failed: %v", err)
	}

	if doc.AnalysisCount != 0 || doc.EntryCount != 0 || doc.ScenarioCount != 0 {
		t.Errorf("counts = %d/%d/%d, want all zero", doc.AnalysisCount, doc.EntryCount, doc.ScenarioCount)
	}
	if doc.OverallPercentage != 0 || doc.OverallStatus != datatypes.StatusNotAssessed {
		t.Errorf("overall = %d%% %s, want 0%% %s", doc.OverallPercentage, doc.OverallStatus, datatypes.StatusNotAssessed)
	}
	if len(doc.Standards) != 5 {
		t.Fatalf("Standards has %d summaries, want 5", len(doc.Standards))
	}
	for _, s := range doc.Standards {
		if s.OverallStatus != datatypes.StatusNotAssessed {
			t.Errorf("standard %s = %s, want %s", s.StandardID, s.OverallStatus, datatypes.StatusNotAssessed)
		}
		if s.TotalClauses != 0 || s.CompliancePercentage != 0 {
			t.Errorf("standard %s = total %d pct %d, want zeroes", s.StandardID, s.TotalClauses, s.CompliancePercentage)
		}
	}
}

func TestProjectCompliance_InputValidation(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{Store: seededStore(t, marginalAnalysis())})
	ctx := context.Background()

	t.Run("malformed project id", func(t *testing.T) {
		_, err := ag.ProjectCompliance(ctx, aggPrincipal, "unit-300", nil)
		if !errors.Is(err, datatypes.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := ag.ProjectCompliance(ctx, aggPrincipal, aggMissingID, nil)
		if !errors.Is(err, datatypes.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("denied principal", func(t *testing.T) {
		denied, err := NewAggregator(AggregatorConfig{
			Store:  seededStore(t, marginalAnalysis()),
			Access: store.NewStaticAccess(map[string][]string{}),
		})
		if err != nil {
			t.Fatalf("NewAggregator failed: %v", err)
		}
		_, err = denied.ProjectCompliance(ctx, "stranger@example.com", aggProjectID, nil)
		if !errors.Is(err, datatypes.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
}

func TestProjectCompliance_CorruptAnalysisRecord(t *testing.T) {
	corrupt := adequateAnalysis()
	corrupt.Entries[0].Band = datatypes.BandHigh

	ag := newTestAggregator(t, AggregatorConfig{
		Store: &stubStore{
			project:  &datatypes.Project{ID: aggProjectID, Name: "Unit 300 revamp"},
			analyses: []datatypes.Analysis{marginalAnalysis(), corrupt},
		},
	})

	_, err := ag.ProjectCompliance(context.Background(), aggPrincipal, aggProjectID, nil)
	if !errors.Is(err, datatypes.ErrComputation) {
		t.Errorf("error = %v, want ErrComputation", err)
	}
}

func TestProjectCompliance_ConcurrentCallsAgree(t *testing.T) {
	ag := newTestAggregator(t, AggregatorConfig{
		Store: seededStore(t, marginalAnalysis(), adequateAnalysis()),
	})
	ctx := context.Background()

	const callers = 8
	docs := make([]*datatypes.ProjectComplianceStatus, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i], errs[i] = ag.ProjectCompliance(ctx, aggPrincipal, aggProjectID, []string{"iec_61511"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		docs[i].CheckedAt = time.Time{}
		if i > 0 && !reflect.DeepEqual(docs[0], docs[i]) {
			t.Errorf("caller %d document differs:\nfirst: %+v\ngot:   %+v", i, docs[0], docs[i])
		}
	}
}

// =============================================================================
// Construction
// =============================================================================

func TestNewAggregator(t *testing.T) {
	t.Run("store required", func(t *testing.T) {
		if _, err := NewAggregator(AggregatorConfig{}); err == nil {
			t.Error("NewAggregator without a store should fail")
		}
	})

	t.Run("excluded clause token must carry a slash", func(t *testing.T) {
		_, err := NewAggregator(AggregatorConfig{
			Store:           store.NewMemory(),
			ExcludedClauses: []string{"iec_61511 9.2.2"},
		})
		if err == nil {
			t.Error("NewAggregator should reject a token without standard_id/clause_ref shape")
		}
	})
}

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
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// partialCreditWeight is the credit a partially compliant clause
	// earns toward the compliance percentage. Back-solved from audited
	// reference rollups; change it only together with the rollup tests.
	partialCreditWeight = 0.5

	// compliantMinPercent is the lowest percentage classified compliant.
	compliantMinPercent = 90

	// partialMinPercent is the lowest percentage classified partially
	// compliant. Below it the summary is non-compliant.
	partialMinPercent = 50

	// maxConcurrentAnalyses bounds the project rollup fan-out.
	maxConcurrentAnalyses = 8
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	complianceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "assessment",
		Name:      "compliance_checks_total",
		Help:      "Total compliance checks by scope and overall status",
	}, []string{"scope", "status"})

	complianceCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "assessment",
		Name:      "compliance_check_duration_seconds",
		Help:      "Duration of compliance checks by scope",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"scope"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var complianceTracer = otel.Tracer("assessment.compliance")

// =============================================================================
// Aggregator
// =============================================================================

// RegistryFunc resolves the current standards registry. Indirection keeps
// hot reloads visible to long-lived aggregators.
type RegistryFunc func(ctx context.Context) (*StandardsRegistry, error)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Store serves record snapshots. Required.
	Store store.RecordStore

	// Access decides project visibility. Defaults to store.AllowAll.
	Access store.AccessChecker

	// Analyzer computes gap analyses for stored scenarios.
	// Defaults to a lopa.Analyzer with default thresholds.
	Analyzer *lopa.Analyzer

	// Registry resolves the standards registry per call.
	// Defaults to GetStandardsRegistry.
	Registry RegistryFunc

	// ExcludedClauses lists clauses excluded by scope configuration as
	// "standard_id/clause_ref" tokens. Excluded clauses evaluate to
	// not applicable.
	ExcludedClauses []string

	// Now supplies the CheckedAt timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator computes analysis- and project-level compliance documents.
//
// Documents are never persisted; every call recomputes from the current
// record snapshots. Concurrent identical project checks collapse into one
// computation via singleflight.
//
// Thread Safety: Safe for concurrent use.
type Aggregator struct {
	store    store.RecordStore
	access   store.AccessChecker
	analyzer *lopa.Analyzer
	registry RegistryFunc
	excluded map[string]bool
	now      func() time.Time
	flight   singleflight.Group
}

// NewAggregator builds an Aggregator, applying defaults for optional
// collaborators.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("NewAggregator: Store is required")
	}
	if cfg.Access == nil {
		cfg.Access = store.AllowAll{}
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = lopa.NewAnalyzer(lopa.DefaultThresholds())
	}
	if cfg.Registry == nil {
		cfg.Registry = GetStandardsRegistry
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	excluded := make(map[string]bool, len(cfg.ExcludedClauses))
	for _, tok := range cfg.ExcludedClauses {
		key := strings.TrimSpace(strings.ToLower(tok))
		if key == "" {
			continue
		}
		if !strings.Contains(key, "/") {
			return nil, fmt.Errorf("NewAggregator: excluded clause %q must be standard_id/clause_ref", tok)
		}
		excluded[key] = true
	}

	return &Aggregator{
		store:    cfg.Store,
		access:   cfg.Access,
		analyzer: cfg.Analyzer,
		registry: cfg.Registry,
		excluded: excluded,
		now:      cfg.Now,
	}, nil
}

// =============================================================================
// Analysis Compliance
// =============================================================================

// AnalysisCompliance computes the compliance document for one analysis.
//
// # Description
//
//	Resolves the standards filter, loads the analysis snapshot, verifies
//	stored scores, recomputes every scenario's gap analysis, evaluates
//	each clause of each selected standard, and rolls the outcomes into a
//	document. The document carries per-clause detail for audit.
//
// # Inputs
//
//	ctx - Context for cancellation and tracing.
//	principal - Caller identity for the project access check.
//	analysisID - Analysis UUID.
//	standards - Optional filter of standard identifiers; nil means all.
//
// # Outputs
//
//	*datatypes.AnalysisComplianceStatus - The computed document.
//	error - ErrValidation for bad input, ErrNotFound for a missing
//	analysis, ErrForbidden from the access checker, ErrComputation for
//	corrupt stored records.
func (ag *Aggregator) AnalysisCompliance(ctx context.Context, principal, analysisID string, standards []string) (*datatypes.AnalysisComplianceStatus, error) {
	ctx, span := complianceTracer.Start(ctx, "compliance.AnalysisCompliance")
	defer span.End()
	span.SetAttributes(attribute.String("analysis_id", analysisID))

	startTime := time.Now()
	defer func() {
		complianceCheckDuration.WithLabelValues("analysis").Observe(time.Since(startTime).Seconds())
	}()

	if _, err := uuid.Parse(analysisID); err != nil {
		return nil, datatypes.NewValidationError("analysis_id", "must be a valid UUID")
	}

	reg, err := ag.registry(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolving standards registry: %w", err)
	}
	stds, err := reg.Resolve(standards)
	if err != nil {
		return nil, err
	}

	analysis, err := ag.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if err := ag.access.CheckProject(ctx, principal, analysis.ProjectID); err != nil {
		return nil, err
	}

	ev, err := ag.buildEvidence(analysis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt records")
		return nil, err
	}

	summaries := make([]datatypes.StandardComplianceSummary, 0, len(stds))
	for _, std := range stds {
		summary, err := ag.summarizeStandard(std, ev, true)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	pct, status := overallOf(summaries)
	doc := &datatypes.AnalysisComplianceStatus{
		AnalysisID:        analysis.ID,
		AnalysisName:      analysis.Name,
		ProjectID:         analysis.ProjectID,
		EntryCount:        len(analysis.Entries),
		ScenarioCount:     len(analysis.Scenarios),
		StandardsChecked:  standardIDs(stds),
		Standards:         summaries,
		OverallPercentage: pct,
		OverallStatus:     status,
		CheckedAt:         ag.now().UTC(),
	}

	span.SetAttributes(
		attribute.Int("overall_percentage", pct),
		attribute.String("overall_status", string(status)),
	)
	complianceChecks.WithLabelValues("analysis", string(status)).Inc()
	return doc, nil
}

// =============================================================================
// Project Compliance
// =============================================================================

// ProjectCompliance computes the compliance document for a whole project.
//
// # Description
//
//	Loads every analysis of the project, computes per-analysis summaries
//	concurrently, and averages per-standard percentages with equal
//	weight per analysis. Bucket counts are summed across analyses for
//	audit. A project with zero analyses yields overall not_assessed at
//	zero percent. Concurrent identical requests share one computation.
//
// # Inputs
//
//	ctx - Context for cancellation and tracing.
//	principal - Caller identity for the project access check.
//	projectID - Project UUID.
//	standards - Optional filter of standard identifiers; nil means all.
//
// # Outputs
//
//	*datatypes.ProjectComplianceStatus - The computed document.
//	error - Same taxonomy as AnalysisCompliance.
func (ag *Aggregator) ProjectCompliance(ctx context.Context, principal, projectID string, standards []string) (*datatypes.ProjectComplianceStatus, error) {
	ctx, span := complianceTracer.Start(ctx, "compliance.ProjectCompliance")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	startTime := time.Now()
	defer func() {
		complianceCheckDuration.WithLabelValues("project").Observe(time.Since(startTime).Seconds())
	}()

	if _, err := uuid.Parse(projectID); err != nil {
		return nil, datatypes.NewValidationError("project_id", "must be a valid UUID")
	}

	reg, err := ag.registry(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolving standards registry: %w", err)
	}
	stds, err := reg.Resolve(standards)
	if err != nil {
		return nil, err
	}

	project, err := ag.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := ag.access.CheckProject(ctx, principal, projectID); err != nil {
		return nil, err
	}

	// Deduplicate concurrent identical computations. The key pins the
	// resolved standard set, so filter spellings that select the same
	// standards share a flight.
	flightKey := projectID + "|" + strings.Join(standardIDs(stds), ",")
	result, err, _ := ag.flight.Do(flightKey, func() (interface{}, error) {
		return ag.computeProjectCompliance(ctx, project, stds)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	doc := result.(*datatypes.ProjectComplianceStatus)
	span.SetAttributes(
		attribute.Int("analysis_count", doc.AnalysisCount),
		attribute.Int("overall_percentage", doc.OverallPercentage),
		attribute.String("overall_status", string(doc.OverallStatus)),
	)
	complianceChecks.WithLabelValues("project", string(doc.OverallStatus)).Inc()
	return doc, nil
}

// perAnalysisResult carries one analysis's contribution to the rollup.
type perAnalysisResult struct {
	summaries     []datatypes.StandardComplianceSummary
	entryCount    int
	scenarioCount int
}

func (ag *Aggregator) computeProjectCompliance(ctx context.Context, project *datatypes.Project, stds []*Standard) (*datatypes.ProjectComplianceStatus, error) {
	analyses, err := ag.store.ListProjectAnalyses(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing analyses for project %s: %w", project.ID, err)
	}

	doc := &datatypes.ProjectComplianceStatus{
		ProjectID:        project.ID,
		ProjectName:      project.Name,
		AnalysisCount:    len(analyses),
		StandardsChecked: standardIDs(stds),
		CheckedAt:        ag.now().UTC(),
	}

	if len(analyses) == 0 {
		doc.Standards = emptyProjectSummaries(stds)
		doc.OverallStatus = datatypes.StatusNotAssessed
		return doc, nil
	}

	results := make([]perAnalysisResult, len(analyses))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyses)
	for i := range analyses {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			ev, err := ag.buildEvidence(&analyses[i])
			if err != nil {
				return err
			}
			summaries := make([]datatypes.StandardComplianceSummary, 0, len(stds))
			for _, std := range stds {
				summary, err := ag.summarizeStandard(std, ev, false)
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			}
			results[i] = perAnalysisResult{
				summaries:     summaries,
				entryCount:    len(analyses[i].Entries),
				scenarioCount: len(analyses[i].Scenarios),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		doc.EntryCount += results[i].entryCount
		doc.ScenarioCount += results[i].scenarioCount
	}

	doc.Standards = rollupStandards(stds, results)
	doc.OverallPercentage, doc.OverallStatus = overallOf(doc.Standards)
	return doc, nil
}

// rollupStandards folds per-analysis summaries into project-scope
// summaries: percentages average with equal weight per analysis, bucket
// counts sum, and a standard stays not_assessed only when every analysis
// left it not_assessed.
func rollupStandards(stds []*Standard, results []perAnalysisResult) []datatypes.StandardComplianceSummary {
	out := make([]datatypes.StandardComplianceSummary, 0, len(stds))
	for si, std := range stds {
		summary := datatypes.StandardComplianceSummary{
			StandardID:   std.ID,
			StandardName: std.Name,
		}
		pctSum := 0
		assessedAnywhere := false
		for ai := range results {
			s := &results[ai].summaries[si]
			summary.TotalClauses += s.TotalClauses
			summary.CompliantCount += s.CompliantCount
			summary.PartiallyCompliantCount += s.PartiallyCompliantCount
			summary.NonCompliantCount += s.NonCompliantCount
			summary.NotApplicableCount += s.NotApplicableCount
			summary.NotAssessedCount += s.NotAssessedCount
			pctSum += s.CompliancePercentage
			if s.OverallStatus != datatypes.StatusNotAssessed {
				assessedAnywhere = true
			}
		}
		summary.CompliancePercentage = roundPercent(float64(pctSum) / float64(len(results)))
		if assessedAnywhere {
			summary.OverallStatus = classifyPercent(summary.CompliancePercentage)
		} else {
			summary.CompliancePercentage = 0
			summary.OverallStatus = datatypes.StatusNotAssessed
		}
		out = append(out, summary)
	}
	return out
}

// emptyProjectSummaries returns zeroed not_assessed summaries so the
// standard list stays stable even for projects with no analyses.
func emptyProjectSummaries(stds []*Standard) []datatypes.StandardComplianceSummary {
	out := make([]datatypes.StandardComplianceSummary, 0, len(stds))
	for _, std := range stds {
		out = append(out, datatypes.StandardComplianceSummary{
			StandardID:    std.ID,
			StandardName:  std.Name,
			OverallStatus: datatypes.StatusNotAssessed,
		})
	}
	return out
}

// =============================================================================
// Evidence and Summaries
// =============================================================================

// buildEvidence verifies stored entries and recomputes gap analyses.
// Stored records that fail verification surface as ErrComputation: the
// workflow owns the records, so a broken one is corruption, never a
// value to silently repair.
func (ag *Aggregator) buildEvidence(analysis *datatypes.Analysis) (*Evidence, error) {
	ev := &Evidence{
		Entries: analysis.Entries,
		Gaps:    make([]datatypes.GapAnalysis, 0, len(analysis.Scenarios)),
	}
	for i := range analysis.Entries {
		if err := scoring.VerifyEntry(&analysis.Entries[i]); err != nil {
			return nil, fmt.Errorf("analysis %s: %w", analysis.ID, err)
		}
	}
	for i := range analysis.Scenarios {
		ga, err := ag.analyzer.Analyze(&analysis.Scenarios[i])
		if err != nil {
			return nil, fmt.Errorf("analysis %s scenario %d: %v: %w",
				analysis.ID, i, err, datatypes.ErrComputation)
		}
		ev.Gaps = append(ev.Gaps, *ga)
	}
	return ev, nil
}

// summarizeStandard evaluates every clause of a standard against the
// evidence and rolls the outcomes into a summary.
func (ag *Aggregator) summarizeStandard(std *Standard, ev *Evidence, includeClauses bool) (datatypes.StandardComplianceSummary, error) {
	if std.ClauseCount() == 0 {
		// The registry rejects empty clause tables at load time, so
		// hitting this means the configuration data is corrupt.
		return datatypes.StandardComplianceSummary{},
			fmt.Errorf("standard %s has an empty clause table: %w", std.ID, datatypes.ErrComputation)
	}

	summary := datatypes.StandardComplianceSummary{
		StandardID:   std.ID,
		StandardName: std.Name,
		TotalClauses: std.ClauseCount(),
	}
	if includeClauses {
		summary.Clauses = make([]datatypes.ClauseAssessment, 0, std.ClauseCount())
	}

	for _, clause := range std.Clauses {
		status := datatypes.ClauseNotApplicable
		if !ag.excluded[scopeKey(std.ID, clause.Ref)] {
			status = EvaluateRule(clause.Rule, ev)
		}
		switch status {
		case datatypes.ClauseCompliant:
			summary.CompliantCount++
		case datatypes.ClausePartial:
			summary.PartiallyCompliantCount++
		case datatypes.ClauseNonCompliant:
			summary.NonCompliantCount++
		case datatypes.ClauseNotApplicable:
			summary.NotApplicableCount++
		default:
			summary.NotAssessedCount++
		}
		if includeClauses {
			summary.Clauses = append(summary.Clauses, datatypes.ClauseAssessment{
				Ref:    clause.Ref,
				Title:  clause.Title,
				Status: status,
			})
		}
	}

	assessed := summary.CompliantCount + summary.PartiallyCompliantCount + summary.NonCompliantCount
	summary.CompliancePercentage = compliancePercentage(
		summary.CompliantCount, summary.PartiallyCompliantCount, summary.TotalClauses)
	if assessed == 0 {
		summary.CompliancePercentage = 0
		summary.OverallStatus = datatypes.StatusNotAssessed
	} else {
		summary.OverallStatus = classifyPercent(summary.CompliancePercentage)
	}
	return summary, nil
}

// =============================================================================
// Rollup Arithmetic
// =============================================================================

// compliancePercentage applies the weighted-credit formula over the full
// clause count.
func compliancePercentage(compliant, partial, total int) int {
	if total == 0 {
		return 0
	}
	credit := float64(compliant) + partialCreditWeight*float64(partial)
	return roundPercent(credit / float64(total) * 100)
}

// classifyPercent maps a percentage onto the fixed status thresholds.
func classifyPercent(pct int) datatypes.ComplianceStatus {
	switch {
	case pct >= compliantMinPercent:
		return datatypes.StatusCompliant
	case pct >= partialMinPercent:
		return datatypes.StatusPartial
	default:
		return datatypes.StatusNonCompliant
	}
}

// overallOf averages the per-standard percentages with equal weight per
// standard. The whole document is not_assessed only when every summary
// is.
func overallOf(summaries []datatypes.StandardComplianceSummary) (int, datatypes.ComplianceStatus) {
	if len(summaries) == 0 {
		return 0, datatypes.StatusNotAssessed
	}
	pctSum := 0
	assessed := false
	for i := range summaries {
		pctSum += summaries[i].CompliancePercentage
		if summaries[i].OverallStatus != datatypes.StatusNotAssessed {
			assessed = true
		}
	}
	if !assessed {
		return 0, datatypes.StatusNotAssessed
	}
	pct := roundPercent(float64(pctSum) / float64(len(summaries)))
	return pct, classifyPercent(pct)
}

func roundPercent(v float64) int {
	return int(math.Round(v))
}

func standardIDs(stds []*Standard) []string {
	out := make([]string, len(stds))
	for i, s := range stds {
		out[i] = s.ID
	}
	return out
}

func scopeKey(standardID, ref string) string {
	return strings.ToLower(standardID + "/" + ref)
}

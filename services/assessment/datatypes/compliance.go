// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Compliance rollup types: clause statuses, per-standard summaries, and the
// analysis/project aggregate documents returned by the compliance endpoints.
package datatypes

import "time"

// =============================================================================
// Status Enums
// =============================================================================

// ClauseStatus is the assessment outcome for a single clause.
type ClauseStatus string

const (
	// ClauseCompliant means the clause's coverage rule is fully met.
	ClauseCompliant ClauseStatus = "compliant"

	// ClausePartial means the rule is met for part of the in-scope records.
	ClausePartial ClauseStatus = "partially_compliant"

	// ClauseNonCompliant means the rule is not met.
	ClauseNonCompliant ClauseStatus = "non_compliant"

	// ClauseNotApplicable means scope configuration excludes the clause.
	ClauseNotApplicable ClauseStatus = "not_applicable"

	// ClauseNotAssessed means no record addresses the clause yet.
	ClauseNotAssessed ClauseStatus = "not_assessed"
)

// ComplianceStatus is the rolled-up classification of a summary.
type ComplianceStatus string

const (
	// StatusCompliant means the compliance percentage is at least 90.
	StatusCompliant ComplianceStatus = "compliant"

	// StatusPartial means the percentage is between 50 and 89.
	StatusPartial ComplianceStatus = "partially_compliant"

	// StatusNonCompliant means the percentage is below 50.
	StatusNonCompliant ComplianceStatus = "non_compliant"

	// StatusNotAssessed means no clause has been assessed at all.
	StatusNotAssessed ComplianceStatus = "not_assessed"
)

// =============================================================================
// Per-Standard Summary
// =============================================================================

// ClauseAssessment is the per-clause audit detail inside a summary.
type ClauseAssessment struct {
	// Ref is the clause reference within its standard (e.g. "1910.119(e)").
	Ref string `json:"ref"`

	// Title is the clause display title.
	Title string `json:"title"`

	// Status is the assessed outcome for this clause.
	Status ClauseStatus `json:"status"`
}

// StandardComplianceSummary is the rollup for one regulatory standard.
//
// At analysis scope, CompliancePercentage is (compliant + 0.5 x partially
// compliant) divided by the standard's full clause count, times 100,
// rounded to the nearest integer. The denominator deliberately stays the
// full clause count so percentages remain comparable across analyses
// regardless of scope exclusions. At project scope it is instead the
// rounded mean of the per-analysis percentages, each analysis weighted
// equally.
type StandardComplianceSummary struct {
	// StandardID is the registry identifier (e.g. "osha_psm").
	StandardID string `json:"standard_id"`

	// StandardName is the human-readable standard name.
	StandardName string `json:"standard_name"`

	// TotalClauses is the number of clause evaluations in scope: the
	// standard's clause count at analysis scope, that count times the
	// number of analyses at project scope. The five bucket counts always
	// sum to it.
	TotalClauses int `json:"total_clauses"`

	// CompliantCount is the number of clauses assessed compliant.
	CompliantCount int `json:"compliant_count"`

	// PartiallyCompliantCount is the number assessed partially compliant.
	PartiallyCompliantCount int `json:"partially_compliant_count"`

	// NonCompliantCount is the number assessed non-compliant.
	NonCompliantCount int `json:"non_compliant_count"`

	// NotApplicableCount is the number excluded by scope configuration.
	NotApplicableCount int `json:"not_applicable_count"`

	// NotAssessedCount is the number no record addresses.
	NotAssessedCount int `json:"not_assessed_count"`

	// CompliancePercentage is the weighted percentage, 0-100.
	CompliancePercentage int `json:"compliance_percentage"`

	// OverallStatus classifies CompliancePercentage.
	OverallStatus ComplianceStatus `json:"overall_status"`

	// Clauses lists the per-clause outcomes in registry order. Present at
	// analysis scope; omitted from project rollups, which only carry the
	// summed counts.
	Clauses []ClauseAssessment `json:"clauses,omitempty"`
}

// =============================================================================
// Aggregate Documents
// =============================================================================

// AnalysisComplianceStatus is the compliance document for one analysis.
//
// The document is recomputed from the current records on every request and
// never persisted; two calls over unchanged input differ only in CheckedAt.
type AnalysisComplianceStatus struct {
	// AnalysisID is the analysis the document was computed for.
	AnalysisID string `json:"analysis_id"`

	// AnalysisName is the analysis display name.
	AnalysisName string `json:"analysis_name"`

	// ProjectID is the owning project.
	ProjectID string `json:"project_id"`

	// EntryCount is the number of risk entries in the snapshot.
	EntryCount int `json:"entry_count"`

	// ScenarioCount is the number of LOPA scenarios in the snapshot.
	ScenarioCount int `json:"scenario_count"`

	// StandardsChecked lists the registry identifiers evaluated, in
	// registry order.
	StandardsChecked []string `json:"standards_checked"`

	// Standards holds one summary per checked standard, in registry order.
	Standards []StandardComplianceSummary `json:"standards"`

	// OverallPercentage is the unweighted mean of the per-standard
	// percentages, rounded to the nearest integer.
	OverallPercentage int `json:"overall_percentage"`

	// OverallStatus classifies OverallPercentage; not_assessed only when
	// every per-standard summary is not_assessed.
	OverallStatus ComplianceStatus `json:"overall_status"`

	// CheckedAt is when this document was computed (UTC).
	CheckedAt time.Time `json:"checked_at"`
}

// ProjectComplianceStatus is the compliance document for a whole project.
//
// Per-standard percentages average the per-analysis percentages with equal
// weight per analysis, not per entry; bucket counts are summed across
// analyses for audit.
type ProjectComplianceStatus struct {
	// ProjectID is the project the document was computed for.
	ProjectID string `json:"project_id"`

	// ProjectName is the project display name.
	ProjectName string `json:"project_name"`

	// AnalysisCount is the number of analyses aggregated.
	AnalysisCount int `json:"analysis_count"`

	// EntryCount is the total risk entries across all analyses.
	EntryCount int `json:"entry_count"`

	// ScenarioCount is the total LOPA scenarios across all analyses.
	ScenarioCount int `json:"scenario_count"`

	// StandardsChecked lists the registry identifiers evaluated.
	StandardsChecked []string `json:"standards_checked"`

	// Standards holds one project-scope summary per checked standard.
	Standards []StandardComplianceSummary `json:"standards"`

	// OverallPercentage is the unweighted mean of the per-standard
	// project percentages, rounded to the nearest integer. Zero when the
	// project has no analyses.
	OverallPercentage int `json:"overall_percentage"`

	// OverallStatus classifies OverallPercentage; not_assessed when the
	// project has no analyses or nothing was assessed.
	OverallStatus ComplianceStatus `json:"overall_status"`

	// CheckedAt is when this document was computed (UTC).
	CheckedAt time.Time `json:"checked_at"`
}

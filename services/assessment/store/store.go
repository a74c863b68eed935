// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store provides the record-store and access-control collaborator
// interfaces the assessment engine reads from, plus the in-memory and
// badger-backed implementations the service ships with.
//
// The engine consumes snapshots through RecordStore and never writes; the
// Put methods on the implementations exist for the surrounding workflow,
// the seed loader, and tests.
package store

import (
	"context"
	"fmt"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// RecordStore serves consistent snapshots of hazard-review records.
//
// Implementations must return copies; callers may hold results across
// subsequent store mutations without seeing them change.
type RecordStore interface {
	// GetProject returns the project with the given id, or an error
	// wrapping datatypes.ErrNotFound.
	GetProject(ctx context.Context, id string) (*datatypes.Project, error)

	// GetAnalysis returns the analysis with the given id, or an error
	// wrapping datatypes.ErrNotFound.
	GetAnalysis(ctx context.Context, id string) (*datatypes.Analysis, error)

	// ListProjectAnalyses returns every analysis of a project ordered by
	// analysis id. The empty slice is a valid result.
	ListProjectAnalyses(ctx context.Context, projectID string) ([]datatypes.Analysis, error)
}

// Writer is the mutation side used by the workflow, seeding, and tests.
type Writer interface {
	PutProject(ctx context.Context, p *datatypes.Project) error
	PutAnalysis(ctx context.Context, a *datatypes.Analysis) error
}

// AccessChecker is the access-control collaborator. The engine never
// decides access itself; it only propagates a denial unchanged.
type AccessChecker interface {
	// CheckProject returns nil when the principal may read the project,
	// or an error wrapping datatypes.ErrForbidden.
	CheckProject(ctx context.Context, principal, projectID string) error
}

// =============================================================================
// Access Checker Implementations
// =============================================================================

// AllowAll grants every principal access to every project.
type AllowAll struct{}

// CheckProject always returns nil.
func (AllowAll) CheckProject(ctx context.Context, principal, projectID string) error {
	return nil
}

// StaticAccess grants access from an explicit principal -> project table.
type StaticAccess struct {
	grants map[string]map[string]bool
}

// NewStaticAccess builds a checker from principal -> project id grants.
func NewStaticAccess(grants map[string][]string) *StaticAccess {
	s := &StaticAccess{grants: make(map[string]map[string]bool, len(grants))}
	for principal, projects := range grants {
		set := make(map[string]bool, len(projects))
		for _, p := range projects {
			set[p] = true
		}
		s.grants[principal] = set
	}
	return s
}

// CheckProject denies unless the principal holds an explicit grant.
func (s *StaticAccess) CheckProject(ctx context.Context, principal, projectID string) error {
	if s.grants[principal][projectID] {
		return nil
	}
	return fmt.Errorf("principal %q has no access to project %s: %w",
		principal, projectID, datatypes.ErrForbidden)
}

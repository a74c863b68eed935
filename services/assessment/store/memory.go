// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// Memory is a mutex-guarded in-process store. It is the default backend
// for the service, the CLI, and tests.
type Memory struct {
	mu        sync.RWMutex
	projects  map[string]datatypes.Project
	analyses  map[string]datatypes.Analysis
	byProject map[string][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		projects:  make(map[string]datatypes.Project),
		analyses:  make(map[string]datatypes.Analysis),
		byProject: make(map[string][]string),
	}
}

// PutProject inserts or replaces a project.
func (m *Memory) PutProject(ctx context.Context, p *datatypes.Project) error {
	if p == nil {
		return fmt.Errorf("put project: %w", datatypes.NewValidationError("project", "must not be nil"))
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = *p
	return nil
}

// PutAnalysis inserts or replaces an analysis and indexes it by project.
func (m *Memory) PutAnalysis(ctx context.Context, a *datatypes.Analysis) error {
	if a == nil {
		return fmt.Errorf("put analysis: %w", datatypes.NewValidationError("analysis", "must not be nil"))
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("put analysis: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, existed := m.analyses[a.ID]
	m.analyses[a.ID] = copyAnalysis(a)
	if existed && prev.ProjectID != a.ProjectID {
		m.byProject[prev.ProjectID] = removeID(m.byProject[prev.ProjectID], a.ID)
	}
	if !existed || prev.ProjectID != a.ProjectID {
		m.byProject[a.ProjectID] = append(m.byProject[a.ProjectID], a.ID)
		sort.Strings(m.byProject[a.ProjectID])
	}
	return nil
}

// GetProject returns a copy of the stored project.
func (m *Memory) GetProject(ctx context.Context, id string) (*datatypes.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, datatypes.ErrNotFound)
	}
	return &p, nil
}

// GetAnalysis returns a deep copy of the stored analysis.
func (m *Memory) GetAnalysis(ctx context.Context, id string) (*datatypes.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s: %w", id, datatypes.ErrNotFound)
	}
	out := copyAnalysis(&a)
	return &out, nil
}

// ListProjectAnalyses returns deep copies of a project's analyses ordered
// by analysis id.
func (m *Memory) ListProjectAnalyses(ctx context.Context, projectID string) ([]datatypes.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.byProject[projectID]
	out := make([]datatypes.Analysis, 0, len(ids))
	for _, id := range ids {
		a, ok := m.analyses[id]
		if !ok {
			continue
		}
		out = append(out, copyAnalysis(&a))
	}
	return out, nil
}

// copyAnalysis deep-copies the slices so callers cannot alias stored state.
func copyAnalysis(a *datatypes.Analysis) datatypes.Analysis {
	out := *a
	if a.Entries != nil {
		out.Entries = make([]datatypes.RiskEntry, len(a.Entries))
		copy(out.Entries, a.Entries)
	}
	if a.Scenarios != nil {
		out.Scenarios = make([]datatypes.LopaScenario, len(a.Scenarios))
		for i, s := range a.Scenarios {
			out.Scenarios[i] = s
			if s.IPLs != nil {
				out.Scenarios[i].IPLs = make([]datatypes.IPL, len(s.IPLs))
				copy(out.Scenarios[i].IPLs, s.IPLs)
			}
		}
	}
	return out
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

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
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/scoring"
)

// MaxSeedFileSize caps seed files at 4MB to prevent memory exhaustion
// from oversized or malicious fixtures.
const MaxSeedFileSize = 4 * 1024 * 1024

// SeedData is the parsed content of a seed file.
type SeedData struct {
	Projects []datatypes.Project  `yaml:"projects" json:"projects"`
	Analyses []datatypes.Analysis `yaml:"analyses" json:"analyses"`
}

// LoadSeed reads and parses a YAML seed file.
//
// # Description
//
//	Reads the seed file, enforces the size cap, and parses projects and
//	analyses. Risk entries with a zero score are scored on load so
//	fixtures don't have to carry derived values.
//
// # Inputs
//
//	path - Path to the YAML seed file.
//
// # Outputs
//
//	*SeedData - Parsed records, validated and scored.
//	error - Non-nil on read, parse, or validation failure.
func LoadSeed(path string) (*SeedData, error) {
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("seed path must not contain path traversal: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat seed file %s: %w", path, err)
	}
	if info.Size() > MaxSeedFileSize {
		return nil, fmt.Errorf("seed file %s exceeds size limit (%d > %d bytes)",
			path, info.Size(), MaxSeedFileSize)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for i := range data.Analyses {
		a := &data.Analyses[i]
		for j := range a.Entries {
			e := &a.Entries[j]
			if e.Score != 0 {
				continue
			}
			score, band, err := scoring.ScoreEntry(e)
			if err != nil {
				return nil, fmt.Errorf("seed analysis %s entry %d: %w", a.ID, j, err)
			}
			e.Score = score
			e.Band = band
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("seed analysis %d: %w", i, err)
		}
	}
	for i := range data.Projects {
		if err := data.Projects[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed project %d: %w", i, err)
		}
	}
	return &data, nil
}

// Apply writes every seed record into the given store.
func (d *SeedData) Apply(ctx context.Context, w Writer) error {
	for i := range d.Projects {
		if err := w.PutProject(ctx, &d.Projects[i]); err != nil {
			return fmt.Errorf("apply seed project %s: %w", d.Projects[i].ID, err)
		}
	}
	for i := range d.Analyses {
		if err := w.PutAnalysis(ctx, &d.Analyses[i]); err != nil {
			return fmt.Errorf("apply seed analysis %s: %w", d.Analyses[i].ID, err)
		}
	}
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Record containers owned by the surrounding hazard-review workflow. The
// engine reads these as consistent snapshots and never writes them.
package datatypes

// Analysis is one hazard review: its metadata plus the deviation entries
// and LOPA scenarios recorded so far.
type Analysis struct {
	// ID is the analysis identifier (UUID v4).
	ID string `json:"id" yaml:"id" validate:"required,uuid4"`

	// ProjectID is the owning project (UUID v4).
	ProjectID string `json:"project_id" yaml:"project_id" validate:"required,uuid4"`

	// Name is the analysis display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Entries are the deviation records of this analysis.
	Entries []RiskEntry `json:"entries" yaml:"entries" validate:"dive"`

	// Scenarios are the LOPA scenario documents of this analysis.
	Scenarios []LopaScenario `json:"scenarios" yaml:"scenarios" validate:"dive"`
}

// Validate checks the analysis and every nested record.
func (a *Analysis) Validate() error {
	return riskValidate.Struct(a)
}

// Project groups analyses for one facility or study.
type Project struct {
	// ID is the project identifier (UUID v4).
	ID string `json:"id" yaml:"id" validate:"required,uuid4"`

	// Name is the project display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Description is optional free text.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the project fields.
func (p *Project) Validate() error {
	return riskValidate.Struct(p)
}

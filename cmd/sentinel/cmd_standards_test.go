// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
)

func TestStandardsList_JSON(t *testing.T) {
	compliance.ResetStandardsRegistry()
	t.Cleanup(compliance.ResetStandardsRegistry)

	// Set global flags (simulating cobra flags).
	standardsRegistry = ""
	standardsJSON = true

	cmd := &cobra.Command{}
	runStandardsList(cmd, []string{})
}

func TestStandardsList_Text(t *testing.T) {
	compliance.ResetStandardsRegistry()
	t.Cleanup(compliance.ResetStandardsRegistry)

	standardsRegistry = ""
	standardsJSON = false

	cmd := &cobra.Command{}
	runStandardsList(cmd, []string{})
}

func TestStandardsVerify(t *testing.T) {
	if len(compliance.DefaultStandardsYAML) == 0 {
		t.Fatal("embedded registry is empty")
	}

	standardsJSON = true
	cmd := &cobra.Command{}
	runStandardsVerify(cmd, []string{})

	standardsJSON = false
	runStandardsVerify(cmd, []string{})
}

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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// TestGetStandardsRegistry_Singleton tests that the registry loads once.
func TestGetStandardsRegistry_Singleton(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	ctx := context.Background()

	reg1, err := GetStandardsRegistry(ctx)
	if err != nil {
		t.Fatalf("GetStandardsRegistry failed: %v", err)
	}
	if reg1 == nil {
		t.Fatal("GetStandardsRegistry returned nil")
	}

	reg2, err := GetStandardsRegistry(ctx)
	if err != nil {
		t.Fatalf("GetStandardsRegistry second call failed: %v", err)
	}
	if reg1 != reg2 {
		t.Error("GetStandardsRegistry should return same instance (singleton)")
	}
}

// TestGetStandardsRegistry_NilContext tests that nil context returns error.
func TestGetStandardsRegistry_NilContext(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	if _, err := GetStandardsRegistry(nil); err == nil {
		t.Error("GetStandardsRegistry(nil) should return error")
	}
}

// TestEmbeddedRegistryContent verifies the shipped registry data.
func TestEmbeddedRegistryContent(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	reg, err := GetStandardsRegistry(context.Background())
	if err != nil {
		t.Fatalf("GetStandardsRegistry failed: %v", err)
	}

	wantIDs := []string{"osha_psm", "iec_61511", "iec_61882", "iso_31000", "epa_rmp"}
	gotIDs := reg.IDs()
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("IDs() = %v, want %v", gotIDs, wantIDs)
	}
	for i, id := range wantIDs {
		if gotIDs[i] != id {
			t.Errorf("IDs()[%d] = %q, want %q", i, gotIDs[i], id)
		}
	}

	iec, ok := reg.Get("iec_61511")
	if !ok {
		t.Fatal("Get(iec_61511) should return true")
	}
	if iec.ClauseCount() != 10 {
		t.Errorf("iec_61511 ClauseCount = %d, want 10", iec.ClauseCount())
	}

	for _, std := range reg.Standards() {
		if std.ClauseCount() == 0 {
			t.Errorf("standard %s has empty clause table", std.ID)
		}
		seen := make(map[string]bool)
		for _, cl := range std.Clauses {
			if !cl.Rule.Valid() {
				t.Errorf("standard %s clause %s has invalid rule %q", std.ID, cl.Ref, cl.Rule)
			}
			if seen[cl.Ref] {
				t.Errorf("standard %s has duplicate clause ref %q", std.ID, cl.Ref)
			}
			seen[cl.Ref] = true
		}
	}

	if reg.SchemaVersion() != "v1.2.0" {
		t.Errorf("SchemaVersion = %q, want v1.2.0", reg.SchemaVersion())
	}
	if reg.Source() != "embedded" {
		t.Errorf("Source = %q, want embedded", reg.Source())
	}
	if reg.LoadedAt() == 0 {
		t.Error("LoadedAt should be set")
	}
}

// TestResolve verifies filter token resolution.
func TestResolve(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	reg, err := GetStandardsRegistry(context.Background())
	if err != nil {
		t.Fatalf("GetStandardsRegistry failed: %v", err)
	}

	t.Run("nil filter selects all", func(t *testing.T) {
		stds, err := reg.Resolve(nil)
		if err != nil {
			t.Fatalf("Resolve(nil) failed: %v", err)
		}
		if len(stds) != reg.Count() {
			t.Errorf("Resolve(nil) returned %d standards, want %d", len(stds), reg.Count())
		}
	})

	t.Run("tokens normalize and preserve registry order", func(t *testing.T) {
		stds, err := reg.Resolve([]string{" IEC_61511 ", "osha_psm", "osha_psm"})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(stds) != 2 {
			t.Fatalf("Resolve returned %d standards, want 2", len(stds))
		}
		// Registry order, not token order; duplicates collapse.
		if stds[0].ID != "osha_psm" || stds[1].ID != "iec_61511" {
			t.Errorf("Resolve order = [%s %s], want [osha_psm iec_61511]", stds[0].ID, stds[1].ID)
		}
	})

	t.Run("unknown tokens all named", func(t *testing.T) {
		_, err := reg.Resolve([]string{"iec_61511", "fake_std", "also_bad"})
		if err == nil {
			t.Fatal("Resolve should fail on unknown tokens")
		}
		if !errors.Is(err, datatypes.ErrValidation) {
			t.Errorf("error should wrap ErrValidation, got %v", err)
		}
		var verr *datatypes.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error should be a ValidationError, got %T", err)
		}
		if len(verr.Fields) != 2 {
			t.Fatalf("ValidationError has %d field errors, want 2: %v", len(verr.Fields), verr)
		}
		msg := err.Error()
		for _, tok := range []string{"fake_std", "also_bad"} {
			if !strings.Contains(msg, tok) {
				t.Errorf("error %q should name token %q", msg, tok)
			}
		}
	})

	t.Run("empty tokens skipped", func(t *testing.T) {
		stds, err := reg.Resolve([]string{"", "  "})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(stds) != reg.Count() {
			t.Errorf("Resolve of empty tokens returned %d standards, want all %d", len(stds), reg.Count())
		}
	})
}

const minimalRegistryYAML = `
schema_version: v1.0.0
standards:
  - id: mini_std
    name: Minimal Standard
    clauses:
      - ref: "1.1"
        title: Review exists
        rule: hazard_review
`

// TestParseStandardsYAML_SchemaGate verifies schema version enforcement.
func TestParseStandardsYAML_SchemaGate(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr string
	}{
		{"missing version", "", "invalid schema_version"},
		{"not semver", "1.2", "invalid schema_version"},
		{"below minimum", "v0.9.0", "unsupported schema major"},
		{"future major", "v2.0.0", "unsupported schema major"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(minimalRegistryYAML, "v1.0.0", tt.version, 1)
			_, err := parseStandardsYAML(context.Background(), []byte(data), "test")
			if err == nil {
				t.Fatal("parseStandardsYAML should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}

	t.Run("valid minimum accepted", func(t *testing.T) {
		reg, err := parseStandardsYAML(context.Background(), []byte(minimalRegistryYAML), "test")
		if err != nil {
			t.Fatalf("parseStandardsYAML failed: %v", err)
		}
		if reg.Count() != 1 {
			t.Errorf("Count = %d, want 1", reg.Count())
		}
	})
}

// TestParseStandardsYAML_Validation verifies structural validation.
func TestParseStandardsYAML_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "no standards",
			mutate:  func(s string) string { return "schema_version: v1.0.0\nstandards: []\n" },
			wantErr: "no standards",
		},
		{
			name:    "uppercase id",
			mutate:  func(s string) string { return strings.Replace(s, "mini_std", "Mini_Std", 1) },
			wantErr: "must be lowercase",
		},
		{
			name:    "unknown rule",
			mutate:  func(s string) string { return strings.Replace(s, "hazard_review", "vibe_check", 1) },
			wantErr: "unknown rule",
		},
		{
			name: "empty clause table",
			mutate: func(s string) string {
				return "schema_version: v1.0.0\nstandards:\n  - id: mini_std\n    name: Minimal Standard\n    clauses: []\n"
			},
			wantErr: "empty clause table",
		},
		{
			name: "duplicate standard id",
			mutate: func(s string) string {
				return s + `  - id: mini_std
    name: Minimal Standard Again
    clauses:
      - ref: "2.1"
        title: Review exists
        rule: hazard_review
`
			},
			wantErr: "duplicate standard id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseStandardsYAML(context.Background(), []byte(tt.mutate(minimalRegistryYAML)), "test")
			if err == nil {
				t.Fatal("parseStandardsYAML should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestReloadStandardsRegistry verifies override reload and failure
// isolation.
func TestReloadStandardsRegistry(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "standards.yaml")

	if err := os.WriteFile(path, []byte(minimalRegistryYAML), 0600); err != nil {
		t.Fatalf("write registry file: %v", err)
	}

	reg, err := ReloadStandardsRegistry(ctx, path)
	if err != nil {
		t.Fatalf("ReloadStandardsRegistry failed: %v", err)
	}
	if reg.Count() != 1 {
		t.Errorf("reloaded Count = %d, want 1", reg.Count())
	}

	// The singleton now serves the reloaded registry.
	cur, err := GetStandardsRegistry(ctx)
	if err != nil {
		t.Fatalf("GetStandardsRegistry failed: %v", err)
	}
	if _, ok := cur.Get("mini_std"); !ok {
		t.Error("singleton should serve the reloaded registry")
	}

	// A broken file leaves the previous registry in place.
	if err := os.WriteFile(path, []byte("schema_version: v9.0.0\n"), 0600); err != nil {
		t.Fatalf("write broken registry: %v", err)
	}
	if _, err := ReloadStandardsRegistry(ctx, path); err == nil {
		t.Fatal("ReloadStandardsRegistry should fail on broken file")
	}
	cur, err = GetStandardsRegistry(ctx)
	if err != nil {
		t.Fatalf("GetStandardsRegistry after failed reload: %v", err)
	}
	if _, ok := cur.Get("mini_std"); !ok {
		t.Error("failed reload should keep the previous registry")
	}
}

// TestRegistryWatcher verifies the hot-reload path end to end.
func TestRegistryWatcher(t *testing.T) {
	ResetStandardsRegistry()
	defer ResetStandardsRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	path := filepath.Join(dir, "standards.yaml")
	if err := os.WriteFile(path, []byte(minimalRegistryYAML), 0600); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	if _, err := ReloadStandardsRegistry(ctx, path); err != nil {
		t.Fatalf("initial reload failed: %v", err)
	}

	w, err := NewRegistryWatcher(path)
	if err != nil {
		t.Fatalf("NewRegistryWatcher failed: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if !w.IsWatching() {
		t.Error("IsWatching should be true after Start")
	}

	updated := strings.Replace(minimalRegistryYAML, "mini_std", "mini_std_v2", 1)
	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		t.Fatalf("update registry file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		reg, err := GetStandardsRegistry(ctx)
		if err == nil {
			if _, ok := reg.Get("mini_std_v2"); ok {
				w.Stop()
				if w.IsWatching() {
					t.Error("IsWatching should be false after Stop")
				}
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watcher did not reload the registry within the deadline")
}

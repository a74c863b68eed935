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
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxRegistryFileSize is the maximum allowed registry file size (1MB).
	// Prevents memory issues from oversized override files.
	MaxRegistryFileSize = 1024 * 1024

	// MaxStandardsInRegistry is the maximum standards allowed in a registry.
	MaxStandardsInRegistry = 50

	// MaxClausesPerStandard is the maximum clauses allowed per standard.
	MaxClausesPerStandard = 100

	// MinSchemaVersion is the oldest registry schema this build accepts.
	// Override files below it, or on a different major, are rejected.
	MinSchemaVersion = "v1.0.0"

	// registryPathEnv names the environment variable that points at an
	// external registry override file.
	registryPathEnv = "STANDARDS_REGISTRY_PATH"
)

// =============================================================================
// Embedded Default Registry
// =============================================================================

// DefaultStandardsYAML holds the compiled-in registry definitions.
// Operators can fingerprint these bytes to verify which clause tables a
// binary ships with.
//
//go:embed standards.yaml
var DefaultStandardsYAML []byte

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	registryLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "assessment",
		Name:      "standards_registry_load_errors_total",
		Help:      "Total standards registry load errors",
	})

	registryLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aleutian",
		Subsystem: "assessment",
		Name:      "standards_registry_load_duration_seconds",
		Help:      "Duration of standards registry loading",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5},
	})

	registryReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aleutian",
		Subsystem: "assessment",
		Name:      "standards_registry_reloads_total",
		Help:      "Total standards registry reloads by outcome",
	}, []string{"outcome"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var standardsTracer = otel.Tracer("assessment.compliance.standards")

// =============================================================================
// Types
// =============================================================================

// standardsRegistryYAML is the root structure for YAML deserialization.
type standardsRegistryYAML struct {
	SchemaVersion string         `yaml:"schema_version"`
	Standards     []standardYAML `yaml:"standards"`
}

// standardYAML represents a single standard entry in the YAML file.
type standardYAML struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Authority string       `yaml:"authority"`
	Clauses   []clauseYAML `yaml:"clauses"`
}

// clauseYAML represents a clause entry in YAML.
type clauseYAML struct {
	Ref   string `yaml:"ref"`
	Title string `yaml:"title"`
	Rule  string `yaml:"rule"`
}

// Clause binds one regulatory requirement to a coverage rule.
type Clause struct {
	// Ref is the clause reference within its standard.
	Ref string

	// Title is the clause display title.
	Title string

	// Rule is the coverage rule evaluated for this clause.
	Rule RuleKind
}

// Standard is one regulatory standard with its clause table.
type Standard struct {
	// ID is the registry identifier (e.g. "iec_61511").
	ID string

	// Name is the human-readable standard name.
	Name string

	// Authority is the issuing body or citation.
	Authority string

	// Clauses is the clause table, in declaration order.
	Clauses []Clause
}

// ClauseCount returns the number of clauses in the standard.
func (s *Standard) ClauseCount() int {
	if s == nil {
		return 0
	}
	return len(s.Clauses)
}

// StandardsRegistry holds the supported standards as static tagged data.
//
// Thread Safety: Safe for concurrent use after initialization; the
// registry is immutable once built.
type StandardsRegistry struct {
	// schemaVersion is the registry schema the source declared.
	schemaVersion string

	// standards holds the standards in declaration order.
	standards []*Standard

	// index maps standard id to its entry.
	index map[string]*Standard

	// loadedAt is when the registry was loaded (Unix milliseconds UTC).
	loadedAt int64

	// source records where the registry came from ("embedded" or a path).
	source string
}

// =============================================================================
// Singleton Registry
// =============================================================================

var (
	standardsMu      sync.RWMutex
	standardsOnce    sync.Once
	cachedStandards  *StandardsRegistry
	standardsLoadErr error
)

// GetStandardsRegistry returns the cached standards registry.
//
// # Description
//
//	Loads the registry on first call and caches it for subsequent calls.
//	An external override file (STANDARDS_REGISTRY_PATH or a conventional
//	location) wins over the embedded default; a broken override falls
//	back to the embedded registry with a logged warning.
//
// # Inputs
//
//	ctx - Context for tracing. Must not be nil.
//
// # Outputs
//
//	*StandardsRegistry - The loaded registry. Never nil on success.
//	error - Non-nil if loading failed.
//
// Thread Safety: Safe for concurrent use.
func GetStandardsRegistry(ctx context.Context) (*StandardsRegistry, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetStandardsRegistry: ctx must not be nil")
	}

	standardsMu.RLock()
	if cachedStandards != nil || standardsLoadErr != nil {
		reg, err := cachedStandards, standardsLoadErr
		standardsMu.RUnlock()
		return reg, err
	}
	standardsMu.RUnlock()

	standardsMu.Lock()
	defer standardsMu.Unlock()

	if cachedStandards != nil || standardsLoadErr != nil {
		return cachedStandards, standardsLoadErr
	}

	standardsOnce.Do(func() {
		cachedStandards, standardsLoadErr = loadStandardsRegistry(ctx)
	})

	return cachedStandards, standardsLoadErr
}

// ResetStandardsRegistry resets the cached registry for testing.
//
// WARNING: Intended for tests only; resetting while other goroutines hold
// a registry reference is safe (the reference stays valid) but the next
// load may observe different environment state.
func ResetStandardsRegistry() {
	standardsMu.Lock()
	defer standardsMu.Unlock()
	standardsOnce = sync.Once{}
	cachedStandards = nil
	standardsLoadErr = nil
}

// ReloadStandardsRegistry parses the given file and swaps it in as the
// cached registry. Used at service startup for explicit overrides and by
// the registry watcher on file change. On failure the previous registry
// stays in place.
func ReloadStandardsRegistry(ctx context.Context, path string) (*StandardsRegistry, error) {
	data, err := loadExternalRegistryYAML(ctx, path)
	if err != nil {
		registryReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reload standards registry: %w", err)
	}
	reg, err := parseStandardsYAML(ctx, data, path)
	if err != nil {
		registryReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reload standards registry: %w", err)
	}

	standardsMu.Lock()
	cachedStandards = reg
	standardsLoadErr = nil
	standardsMu.Unlock()

	registryReloads.WithLabelValues("ok").Inc()
	slog.Info("Standards registry reloaded",
		slog.String("path", path),
		slog.Int("standard_count", reg.Count()))
	return reg, nil
}

// =============================================================================
// Loading Logic
// =============================================================================

// loadStandardsRegistry loads the registry, preferring an external
// override and falling back to the embedded default.
func loadStandardsRegistry(ctx context.Context) (*StandardsRegistry, error) {
	ctx, span := standardsTracer.Start(ctx, "standards.Load")
	defer span.End()

	startTime := time.Now()
	defer func() {
		registryLoadDuration.Observe(time.Since(startTime).Seconds())
	}()

	externalPath := externalRegistryPath()
	var yamlData []byte
	var source string

	if externalPath != "" {
		data, err := loadExternalRegistryYAML(ctx, externalPath)
		if err == nil {
			yamlData = data
			source = externalPath
			slog.Info("Loaded standards registry from external file",
				slog.String("path", externalPath))
		} else {
			slog.Warn("External standards registry not available, using embedded default",
				slog.String("path", externalPath),
				slog.String("error", err.Error()))
		}
	}

	if yamlData == nil {
		yamlData = DefaultStandardsYAML
		source = "embedded"
		slog.Debug("Using embedded standards registry")
	}

	span.SetAttributes(
		attribute.String("source", source),
		attribute.Int("yaml_size", len(yamlData)),
	)

	registry, err := parseStandardsYAML(ctx, yamlData, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		registryLoadErrors.Inc()
		return nil, fmt.Errorf("parsing standards registry YAML: %w", err)
	}

	span.SetAttributes(attribute.Int("standard_count", registry.Count()))
	slog.Info("Standards registry loaded",
		slog.Int("standard_count", registry.Count()),
		slog.String("schema_version", registry.SchemaVersion()),
		slog.String("source", source))

	return registry, nil
}

// externalRegistryPath returns the configured override path, or the first
// conventional location present, or empty when none applies.
func externalRegistryPath() string {
	if path := os.Getenv(registryPathEnv); path != "" {
		return path
	}

	locations := []string{
		"./config/standards.yaml",
		"./standards.yaml",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, _ := filepath.Abs(loc)
			return absPath
		}
	}
	return ""
}

// loadExternalRegistryYAML reads an override file with path and size
// checks.
func loadExternalRegistryYAML(ctx context.Context, path string) ([]byte, error) {
	_, span := standardsTracer.Start(ctx, "standards.LoadExternal",
		trace.WithAttributes(attribute.String("path", path)),
	)
	defer span.End()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if strings.Contains(absPath, "..") {
		return nil, fmt.Errorf("loadExternalRegistryYAML: path traversal not allowed: %s", absPath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > MaxRegistryFileSize {
		return nil, fmt.Errorf("registry file too large: %d bytes (max %d)",
			info.Size(), MaxRegistryFileSize)
	}
	span.SetAttributes(attribute.Int64("file_size", info.Size()))

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// parseStandardsYAML parses and validates registry YAML.
func parseStandardsYAML(ctx context.Context, data []byte, source string) (*StandardsRegistry, error) {
	_, span := standardsTracer.Start(ctx, "standards.Parse")
	defer span.End()

	var yamlReg standardsRegistryYAML
	if err := yaml.Unmarshal(data, &yamlReg); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	v := yamlReg.SchemaVersion
	if !semver.IsValid(v) {
		return nil, fmt.Errorf("invalid schema_version %q (want semver like %s)", v, MinSchemaVersion)
	}
	if semver.Major(v) != semver.Major(MinSchemaVersion) {
		return nil, fmt.Errorf("unsupported schema major version %s (this build supports %s)",
			semver.Major(v), semver.Major(MinSchemaVersion))
	}
	if semver.Compare(v, MinSchemaVersion) < 0 {
		return nil, fmt.Errorf("schema_version %s older than minimum %s", v, MinSchemaVersion)
	}

	if len(yamlReg.Standards) == 0 {
		return nil, fmt.Errorf("registry declares no standards")
	}
	if len(yamlReg.Standards) > MaxStandardsInRegistry {
		return nil, fmt.Errorf("too many standards: %d (max %d)",
			len(yamlReg.Standards), MaxStandardsInRegistry)
	}

	registry := &StandardsRegistry{
		schemaVersion: v,
		standards:     make([]*Standard, 0, len(yamlReg.Standards)),
		index:         make(map[string]*Standard, len(yamlReg.Standards)),
		loadedAt:      time.Now().UnixMilli(),
		source:        source,
	}

	for i, std := range yamlReg.Standards {
		if std.ID == "" {
			return nil, fmt.Errorf("standard at index %d has empty id", i)
		}
		if std.ID != strings.ToLower(std.ID) {
			return nil, fmt.Errorf("standard id %q must be lowercase", std.ID)
		}
		if std.Name == "" {
			return nil, fmt.Errorf("standard %s has empty name", std.ID)
		}
		if _, dup := registry.index[std.ID]; dup {
			return nil, fmt.Errorf("duplicate standard id %q", std.ID)
		}
		if len(std.Clauses) == 0 {
			return nil, fmt.Errorf("standard %s has an empty clause table", std.ID)
		}
		if len(std.Clauses) > MaxClausesPerStandard {
			return nil, fmt.Errorf("standard %s has too many clauses: %d (max %d)",
				std.ID, len(std.Clauses), MaxClausesPerStandard)
		}

		entry := &Standard{
			ID:        std.ID,
			Name:      std.Name,
			Authority: std.Authority,
			Clauses:   make([]Clause, 0, len(std.Clauses)),
		}
		refs := make(map[string]bool, len(std.Clauses))
		for j, cl := range std.Clauses {
			if cl.Ref == "" {
				return nil, fmt.Errorf("standard %s clause at index %d has empty ref", std.ID, j)
			}
			if refs[cl.Ref] {
				return nil, fmt.Errorf("standard %s has duplicate clause ref %q", std.ID, cl.Ref)
			}
			refs[cl.Ref] = true
			kind := RuleKind(cl.Rule)
			if !kind.Valid() {
				return nil, fmt.Errorf("standard %s clause %s has unknown rule %q",
					std.ID, cl.Ref, cl.Rule)
			}
			entry.Clauses = append(entry.Clauses, Clause{
				Ref:   cl.Ref,
				Title: cl.Title,
				Rule:  kind,
			})
		}

		registry.standards = append(registry.standards, entry)
		registry.index[std.ID] = entry
	}

	span.SetAttributes(attribute.Int("standard_count", registry.Count()))
	return registry, nil
}

// =============================================================================
// Registry Methods
// =============================================================================

// Standards returns the standards in registry order.
func (r *StandardsRegistry) Standards() []*Standard {
	if r == nil {
		return nil
	}
	out := make([]*Standard, len(r.standards))
	copy(out, r.standards)
	return out
}

// Get returns the standard with the given id.
func (r *StandardsRegistry) Get(id string) (*Standard, bool) {
	if r == nil {
		return nil, false
	}
	std, ok := r.index[id]
	return std, ok
}

// IDs returns the standard identifiers in registry order.
func (r *StandardsRegistry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.standards))
	for i, s := range r.standards {
		out[i] = s.ID
	}
	return out
}

// Count returns the number of standards in the registry.
func (r *StandardsRegistry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.standards)
}

// SchemaVersion returns the schema version the source declared.
func (r *StandardsRegistry) SchemaVersion() string {
	if r == nil {
		return ""
	}
	return r.schemaVersion
}

// Source returns where the registry was loaded from.
func (r *StandardsRegistry) Source() string {
	if r == nil {
		return ""
	}
	return r.source
}

// LoadedAt returns when the registry was loaded (Unix milliseconds UTC).
func (r *StandardsRegistry) LoadedAt() int64 {
	if r == nil {
		return 0
	}
	return r.loadedAt
}

// Resolve maps filter tokens onto registry standards.
//
// # Description
//
//	With no usable tokens, every supported standard is returned. Tokens
//	are trimmed and lowercased before lookup; empty tokens are skipped.
//	Unknown tokens produce a single ValidationError naming every invalid
//	token supplied, not just the first. The result preserves registry
//	order regardless of token order, and duplicates collapse.
//
// # Inputs
//
//	tokens - Raw filter tokens, e.g. from a comma-separated query param.
//
// # Outputs
//
//	[]*Standard - The selected standards in registry order.
//	error - A *datatypes.ValidationError listing all unknown tokens.
func (r *StandardsRegistry) Resolve(tokens []string) ([]*Standard, error) {
	if r == nil {
		return nil, fmt.Errorf("standards registry is nil")
	}
	if len(tokens) == 0 {
		return r.Standards(), nil
	}

	want := make(map[string]bool, len(tokens))
	verr := &datatypes.ValidationError{}
	for _, tok := range tokens {
		id := strings.ToLower(strings.TrimSpace(tok))
		if id == "" {
			continue
		}
		if _, ok := r.index[id]; !ok {
			verr.Add("standards", fmt.Sprintf("unknown standard %q", tok))
			continue
		}
		want[id] = true
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	if len(want) == 0 {
		return r.Standards(), nil
	}

	out := make([]*Standard, 0, len(want))
	for _, s := range r.standards {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

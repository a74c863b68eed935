// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command assessment starts the ProcessSentinel assessment engine HTTP
// server.
//
// This is the main entry point for the containerized assessment service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ASSESSMENT_PORT: HTTP server port (default: 12240)
//   - ASSESSMENT_DATA_DIR: Persistent record store directory (optional; in-memory if unset)
//   - ASSESSMENT_SEED_FILE: YAML seed file of projects and analyses (optional)
//   - ASSESSMENT_EXCLUDED_CLAUSES: Comma-separated "standard_id/clause_ref" scope exclusions
//   - STANDARDS_REGISTRY_PATH: Site standards registry file (optional; embedded if unset)
//   - STANDARDS_REGISTRY_WATCH: Hot reload the site registry on change (default: false)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//   - OTEL_TRACES_EXPORTER: Span exporter, "otlp" or "stdout" (default: otlp)
//
// # Usage
//
//	# Build
//	go build -o assessment ./cmd/assessment
//
//	# Run
//	./assessment
//
//	# Or via container
//	podman-compose up assessment
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/AleutianAI/ProcessSentinel/services/assessment"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := assessment.Config{
		Port:            getEnvInt("ASSESSMENT_PORT", 12240),
		DataDir:         os.Getenv("ASSESSMENT_DATA_DIR"),
		SeedFile:        os.Getenv("ASSESSMENT_SEED_FILE"),
		ExcludedClauses: getEnvList("ASSESSMENT_EXCLUDED_CLAUSES"),
		RegistryPath:    os.Getenv("STANDARDS_REGISTRY_PATH"),
		WatchRegistry:   getEnvBool("STANDARDS_REGISTRY_WATCH", false),
		OTelEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
		TraceExporter:   getEnvString("OTEL_TRACES_EXPORTER", "otlp"),
	}

	slog.Info("Starting assessment engine",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"registry_path", cfg.RegistryPath,
	)

	svc, err := assessment.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create assessment engine: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Assessment engine error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable into trimmed,
// non-empty entries.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

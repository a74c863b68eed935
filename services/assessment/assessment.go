// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assessment provides the quantitative risk and compliance engine
// service.
//
// This package contains the main service type that coordinates all
// components of the engine: HTTP routing, the record store, the LOPA
// analyzer, the compliance aggregator, the matrix rasterizer, and
// observability infrastructure.
//
// # Usage
//
//	cfg := assessment.Config{Port: 12240}
//	svc, err := assessment.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
//
// # Import Path
//
// Downstream services import this package as:
//
//	import "github.com/AleutianAI/ProcessSentinel/services/assessment"
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/compliance"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/lopa"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/matrix"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/middleware"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/observability"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/routes"
	"github.com/AleutianAI/ProcessSentinel/services/assessment/store"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the assessment engine service.
//
// # Description
//
// Service abstracts the engine lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are
// exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
//
// # Limitations
//
//   - No graceful shutdown method yet
//   - Run() blocks until server error
//
// # Assumptions
//
//   - Service is fully initialized before Run() is called
//   - Run() is called at most once per Service instance
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	//
	// # Outputs
	//
	//   - error: Non-nil if the server fails to start or encounters a
	//     fatal error
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// # Outputs
	//
	//   - *gin.Engine: The configured router with all routes registered
	//
	// # Limitations
	//
	//   - Should not be used to modify routes after construction
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds assessment engine configuration options.
//
// # Description
//
// Config centralizes all configuration for the engine service. Values
// can be populated from environment variables, config files, or
// programmatically for testing.
//
// # Required Fields
//
// None - all fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults, in-memory store)
//	cfg := Config{}
//
//	// Persistent store with a site registry and seeded records
//	cfg := Config{
//	    Port:         12240,
//	    DataDir:      "/var/lib/aleutian/assessment",
//	    RegistryPath: "/etc/aleutian/standards.yaml",
//	    SeedFile:     "/etc/aleutian/seed.yaml",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12240
	Port int

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string

	// TraceExporter selects the span exporter.
	// Valid values: "otlp", "stdout" (pretty-printed, for local debugging)
	// Default: "otlp"
	TraceExporter string

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// DataDir is the directory for the persistent record store.
	// If empty, records live in an in-memory store and are lost on exit.
	DataDir string

	// SeedFile is an optional YAML or JSON file of projects and analyses
	// loaded into the store at startup.
	SeedFile string

	// RegistryPath is an optional site-specific standards registry file.
	// If empty or unloadable, the embedded registry is used.
	RegistryPath string

	// WatchRegistry enables hot reload of RegistryPath on file change.
	// Default: false
	WatchRegistry bool

	// ExcludedClauses lists clauses excluded by scope configuration as
	// "standard_id/clause_ref" tokens.
	ExcludedClauses []string

	// AccessGrants maps principals to the project ids they may read.
	// If nil, every principal may read every project.
	AccessGrants map[string][]string

	// GapAdequateThreshold is the gap ratio at or above which credited
	// protection is adequate. Default: 1.0
	GapAdequateThreshold float64

	// GapMarginalThreshold is the gap ratio at or above which the gap is
	// marginal rather than inadequate. Default: 0.5
	GapMarginalThreshold float64

	// RasterWorkers bounds concurrent PNG rasterizations.
	// Default: matrix.DefaultMaxConcurrentRasters
	RasterWorkers int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service is the main implementation that coordinates:
//   - HTTP routing via Gin
//   - The record store (Badger or in-memory)
//   - The LOPA gap analyzer and compliance aggregator
//   - The matrix rasterizer worker pool
//   - OpenTelemetry tracing and Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
//
// # Assumptions
//
//   - The OTel collector is reachable if tracing export is expected
type service struct {
	config        Config
	router        *gin.Engine
	recordStore   store.RecordStore
	badgerStore   *store.Badger
	analyzer      *lopa.Analyzer
	aggregator    *compliance.Aggregator
	rasterizer    *matrix.Rasterizer
	watcher       *compliance.RegistryWatcher
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new assessment engine Service with the given
// configuration.
//
// # Description
//
// New initializes all engine components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Loads the standards registry (site file or embedded)
//  5. Opens the record store and applies the optional seed file
//  6. Builds the analyzer, aggregator, and rasterizer
//  7. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run engine service
//   - error: Non-nil if initialization fails
//
// # Examples
//
//	cfg := Config{Port: 12240, DataDir: "/var/lib/aleutian/assessment"}
//	svc, err := New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// # Limitations
//
//   - A missing or invalid site registry falls back to the embedded one
//   - A bad seed file is fatal; seeding is explicit opt-in
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	observability.InitMetrics()

	// Load the standards registry (optional site file)
	s.initRegistry()

	// Open the record store and seed it
	if err := s.initStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	// Build the compute components
	s.analyzer = lopa.NewAnalyzer(lopa.Thresholds{
		Adequate: s.config.GapAdequateThreshold,
		Marginal: s.config.GapMarginalThreshold,
	})
	s.rasterizer = matrix.NewRasterizer(s.config.RasterWorkers)

	s.aggregator, err = compliance.NewAggregator(compliance.AggregatorConfig{
		Store:           s.recordStore,
		Access:          s.accessChecker(),
		Analyzer:        s.analyzer,
		ExcludedClauses: s.config.ExcludedClauses,
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize compliance aggregator: %w", err)
	}

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Description
//
// Starts the Gin HTTP server on the configured port. This method blocks
// until the server stops due to error or shutdown signal. Cleanup is
// automatic on return.
//
// # Outputs
//
//   - error: Non-nil if the server fails to start or encounters a fatal
//     error
//
// # Assumptions
//
//   - Service was successfully created via New()
//   - Port is available
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting assessment engine server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12240
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	if cfg.TraceExporter == "" {
		cfg.TraceExporter = "otlp"
	}
	if cfg.GapAdequateThreshold == 0 {
		cfg.GapAdequateThreshold = lopa.DefaultThresholds().Adequate
	}
	if cfg.GapMarginalThreshold == 0 {
		cfg.GapMarginalThreshold = lopa.DefaultThresholds().Marginal
	}
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up the configured span exporter: OTLP over gRPC towards the
// collector, or a pretty-printed stdout exporter for local debugging.
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
//
// # Limitations
//
//   - The OTLP path uses an insecure gRPC connection (appropriate for
//     internal networks)
//
// # Assumptions
//
//   - The OTel collector is reachable at the configured endpoint
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	traceExporter, err := s.buildTraceExporter(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("assessment-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}

	return cleanup, nil
}

// buildTraceExporter constructs the span exporter named by TraceExporter.
//
// The "stdout" exporter writes pretty-printed spans to standard output
// and never dials the collector, which keeps local debugging runs free
// of gRPC connection noise.
func (s *service) buildTraceExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch s.config.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil

	case "otlp":
		conn, err := grpc.NewClient(s.config.OTelEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}

		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		return exporter, nil

	default:
		return nil, fmt.Errorf("unknown trace exporter %q (valid: otlp, stdout)",
			s.config.TraceExporter)
	}
}

// initRegistry loads the standards registry.
//
// # Description
//
// Loads the site registry file when configured and starts the optional
// file watcher. A missing or invalid site file is not fatal; the engine
// falls back to the embedded registry so compliance checks keep running
// with known-good clause tables.
func (s *service) initRegistry() {
	ctx := context.Background()

	if s.config.RegistryPath != "" {
		if _, err := compliance.ReloadStandardsRegistry(ctx, s.config.RegistryPath); err != nil {
			slog.Warn("Site standards registry failed to load, using embedded registry",
				"path", s.config.RegistryPath,
				"error", err)
		}
	}

	if s.config.WatchRegistry && s.config.RegistryPath != "" {
		watcher, err := compliance.NewRegistryWatcher(s.config.RegistryPath)
		if err != nil {
			slog.Warn("Registry watcher initialization failed",
				"error", err)
			return
		}
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("Registry watcher failed to start",
				"error", err)
			return
		}
		s.watcher = watcher
		slog.Info("Standards registry hot reload enabled",
			"path", s.config.RegistryPath)
	}
}

// initStore opens the record store and applies the optional seed file.
//
// # Description
//
// Opens a Badger store under DataDir when configured, otherwise an
// in-memory store. A configured seed file that fails to load or apply is
// fatal.
//
// # Outputs
//
//   - error: Non-nil if the store cannot be opened or seeded
func (s *service) initStore() error {
	if s.config.DataDir != "" {
		b, err := store.OpenBadger(store.DefaultBadgerConfig(s.config.DataDir))
		if err != nil {
			return fmt.Errorf("open badger store at %s: %w", s.config.DataDir, err)
		}
		s.badgerStore = b
		s.recordStore = b
		slog.Info("Opened persistent record store", "path", s.config.DataDir)
	} else {
		s.recordStore = store.NewMemory()
		slog.Info("Using in-memory record store; records are lost on exit")
	}

	if s.config.SeedFile != "" {
		seed, err := store.LoadSeed(s.config.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed file %s: %w", s.config.SeedFile, err)
		}
		writer, ok := s.recordStore.(store.Writer)
		if !ok {
			return fmt.Errorf("record store does not accept writes")
		}
		if err := seed.Apply(context.Background(), writer); err != nil {
			return fmt.Errorf("apply seed file %s: %w", s.config.SeedFile, err)
		}
		slog.Info("Seeded record store",
			"file", s.config.SeedFile,
			"projects", len(seed.Projects),
			"analyses", len(seed.Analyses))
	}

	return nil
}

// accessChecker builds the project access policy from the grant table.
func (s *service) accessChecker() store.AccessChecker {
	if s.config.AccessGrants == nil {
		return store.AllowAll{}
	}
	return store.NewStaticAccess(s.config.AccessGrants)
}

// initRouter sets up the Gin HTTP router with all routes.
//
// # Description
//
// Creates the Gin engine, applies the tracing, request id, and metrics
// middleware, and registers all routes.
//
// # Assumptions
//
//   - All engine components are initialized
func (s *service) initRouter() {
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("assessment-service"))
	s.router.Use(middleware.RequestIDMiddleware())
	s.router.Use(middleware.RequestMetricsMiddleware())

	routes.SetupRoutes(s.router, s.aggregator, s.analyzer, s.rasterizer)
}

// cleanup releases all resources held by the service.
//
// # Description
//
// Called when Run() exits or on initialization failure. Stops the
// registry watcher, closes the record store, and shuts down the tracer.
func (s *service) cleanup() {
	if s.watcher != nil {
		s.watcher.Stop()
	}

	if s.badgerStore != nil {
		if err := s.badgerStore.Close(); err != nil {
			slog.Warn("Record store close error", "error", err)
		}
	}

	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)

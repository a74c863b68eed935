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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ProcessSentinel/services/assessment/datatypes"
)

// Key layout. The project index keeps ListProjectAnalyses a prefix scan
// instead of a full table walk.
const (
	projectKeyPrefix  = "project/"
	analysisKeyPrefix = "analysis/"
	indexKeyPrefix    = "project_index/"
)

// BadgerConfig holds configuration for the badger-backed store.
type BadgerConfig struct {
	// Path is the directory for database files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output.
	// If nil, internal logging is disabled.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults: durable writes at the
// given path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests. Data is lost
// when the store is closed.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger is a RecordStore backed by an embedded BadgerDB instance.
// Records are stored as JSON values under typed key prefixes.
type Badger struct {
	db *badger.DB
}

// OpenBadger creates and opens a badger-backed store.
//
// # Description
//
//	Opens a BadgerDB database at the configured path, or in memory when
//	InMemory is true. Creates the directory if it doesn't exist.
//
// # Inputs
//
//	cfg - Store configuration. Path is required unless InMemory is true.
//
// # Outputs
//
//	*Badger - The opened store. Caller must call Close() when done.
//	error - Non-nil if the path is invalid or the database cannot open.
//
// Thread Safety: The returned store is safe for concurrent use.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close flushes and closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// PutProject inserts or replaces a project.
func (b *Badger) PutProject(ctx context.Context, p *datatypes.Project) error {
	if p == nil {
		return fmt.Errorf("put project: %w", datatypes.NewValidationError("project", "must not be nil"))
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project %s: %w", p.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(projectKeyPrefix+p.ID), val)
	})
}

// PutAnalysis inserts or replaces an analysis and maintains the project
// index, dropping the stale index entry when an analysis moves between
// projects.
func (b *Badger) PutAnalysis(ctx context.Context, a *datatypes.Analysis) error {
	if a == nil {
		return fmt.Errorf("put analysis: %w", datatypes.NewValidationError("analysis", "must not be nil"))
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("put analysis: %w", err)
	}
	val, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis %s: %w", a.ID, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if prev, err := readAnalysis(txn, a.ID); err == nil && prev.ProjectID != a.ProjectID {
			if err := txn.Delete([]byte(indexKey(prev.ProjectID, a.ID))); err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, datatypes.ErrNotFound) {
			return err
		}
		if err := txn.Set([]byte(analysisKeyPrefix+a.ID), val); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(a.ProjectID, a.ID)), nil)
	})
}

// GetProject returns the project with the given id.
func (b *Badger) GetProject(ctx context.Context, id string) (*datatypes.Project, error) {
	var p datatypes.Project
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(projectKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("project %s: %w", id, datatypes.ErrNotFound)
		}
		return nil, fmt.Errorf("read project %s: %w", id, err)
	}
	return &p, nil
}

// GetAnalysis returns the analysis with the given id.
func (b *Badger) GetAnalysis(ctx context.Context, id string) (*datatypes.Analysis, error) {
	var a *datatypes.Analysis
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		a, err = readAnalysis(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListProjectAnalyses scans the project index and returns the project's
// analyses ordered by analysis id.
func (b *Badger) ListProjectAnalyses(ctx context.Context, projectID string) ([]datatypes.Analysis, error) {
	prefix := []byte(indexKeyPrefix + projectID + "/")
	var out []datatypes.Analysis
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			a, err := readAnalysis(txn, id)
			if err != nil {
				if errors.Is(err, datatypes.ErrNotFound) {
					continue
				}
				return err
			}
			out = append(out, *a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list analyses for project %s: %w", projectID, err)
	}
	if out == nil {
		out = []datatypes.Analysis{}
	}
	return out, nil
}

func readAnalysis(txn *badger.Txn, id string) (*datatypes.Analysis, error) {
	item, err := txn.Get([]byte(analysisKeyPrefix + id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, datatypes.ErrNotFound)
		}
		return nil, fmt.Errorf("read analysis %s: %w", id, err)
	}
	var a datatypes.Analysis
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	}); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return &a, nil
}

func indexKey(projectID, analysisID string) string {
	return indexKeyPrefix + projectID + "/" + analysisID
}

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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultReloadDebounce batches rapid write events (editors often emit
// several per save) into one reload.
const defaultReloadDebounce = 250 * time.Millisecond

// RegistryWatcher hot-reloads an external standards registry file.
//
// # Description
//
// Watches the registry file's parent directory, because editors commonly
// replace files via rename, which drops a watch placed on the file
// itself. Matching events are debounced and then fed through
// ReloadStandardsRegistry; a reload that fails validation leaves the
// previous registry in place.
//
// # Thread Safety
//
// Safe for concurrent use. Reloads happen from a single goroutine.
type RegistryWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// NewRegistryWatcher creates a watcher for the given registry file.
// Call Start to begin watching and Stop to halt it.
func NewRegistryWatcher(path string) (*RegistryWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("NewRegistryWatcher: path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("NewRegistryWatcher: resolving path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("NewRegistryWatcher: %w", err)
	}

	return &RegistryWatcher{
		path:     absPath,
		watcher:  watcher,
		debounce: defaultReloadDebounce,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for registry file changes.
func (w *RegistryWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch registry directory: %w", err)
	}

	go w.run(ctx)
	slog.Info("Standards registry watcher started", slog.String("path", w.path))
	return nil
}

// Stop halts the watcher. Safe to call multiple times.
func (w *RegistryWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true while the watcher is active.
func (w *RegistryWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// run debounces matching events and triggers reloads.
func (w *RegistryWatcher) run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	reload := func() {
		timer = nil
		timerC = nil
		if _, err := ReloadStandardsRegistry(ctx, w.path); err != nil {
			slog.Warn("Standards registry reload failed, keeping previous registry",
				slog.String("path", w.path),
				slog.String("error", err.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Standards registry watch error", slog.String("error", err.Error()))
		}
	}
}

// matches reports whether an event concerns the registry file with an
// operation that can change its content.
func (w *RegistryWatcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

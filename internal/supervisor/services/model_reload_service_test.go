// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

type fakeReloader struct {
	calls    atomic.Int32
	err      error
	reloaded chan struct{}
}

func newFakeReloader() *fakeReloader {
	return &fakeReloader{reloaded: make(chan struct{}, 16)}
}

func (f *fakeReloader) Reload(context.Context) (*recommend.ReloadResult, error) {
	f.calls.Add(1)
	select {
	case f.reloaded <- struct{}{}:
	default:
	}
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.ReloadResult{Version: "1.0", Changed: true}, nil
}

func (f *fakeReloader) wait(t *testing.T, kick func()) {
	t.Helper()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)

	kick()
	for {
		select {
		case <-f.reloaded:
			return
		case <-ticker.C:
			kick()
		case <-timeout:
			t.Fatal("model was not reloaded")
		}
	}
}

func serveInBackground(t *testing.T, svc *ModelReloadService) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	})
}

func TestModelReloadService_Trigger(t *testing.T) {
	t.Parallel()

	reloader := newFakeReloader()
	reloader.err = recommend.ErrNoModel
	svc := NewModelReloadService(reloader, nil, ModelReloadConfig{MinInterval: time.Millisecond}, zerolog.Nop())
	serveInBackground(t, svc)

	reloader.wait(t, func() { svc.Trigger(SourceManual) })
}

func TestModelReloadService_Coalesces(t *testing.T) {
	t.Parallel()

	reloader := newFakeReloader()
	svc := NewModelReloadService(reloader, nil, ModelReloadConfig{MinInterval: time.Hour}, zerolog.Nop())

	// Spend the burst so the next reload waits for the limiter.
	svc.limiter.Allow()

	for i := 0; i < 10; i++ {
		svc.Trigger(SourceManual)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want context.DeadlineExceeded", err)
	}
	if n := reloader.calls.Load(); n != 0 {
		t.Errorf("reloads = %d, want 0 while rate limited", n)
	}
}

func TestModelReloadService_Events(t *testing.T) {
	t.Parallel()

	bus, err := events.NewBus(events.Config{}, logging.NewSlogLogger("events-test"))
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() }) //nolint:errcheck // test cleanup

	reloader := newFakeReloader()
	svc := NewModelReloadService(reloader, bus, ModelReloadConfig{MinInterval: time.Millisecond}, zerolog.Nop())
	serveInBackground(t, svc)

	meta := &storage.ModelMetadata{Name: "association_rules", Version: 1, RuleCount: 2}
	reloader.wait(t, func() {
		if err := bus.PublishModel(context.Background(), meta); err != nil {
			t.Errorf("PublishModel: %v", err)
		}
	})
}

func TestModelReloadService_Watch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reloader := newFakeReloader()
	svc := NewModelReloadService(reloader, nil, ModelReloadConfig{
		WatchDir:    dir,
		ModelName:   "association_rules",
		MinInterval: time.Millisecond,
	}, zerolog.Nop())
	serveInBackground(t, svc)

	reloader.wait(t, func() {
		if err := os.WriteFile(filepath.Join(dir, "association_rules_v1.gob.gz"), []byte("model"), 0o600); err != nil {
			t.Errorf("WriteFile: %v", err)
		}
	})
}

func TestModelReloadService_WatchMissingDir(t *testing.T) {
	t.Parallel()

	svc := NewModelReloadService(newFakeReloader(), nil, ModelReloadConfig{
		WatchDir: filepath.Join(t.TempDir(), "missing"),
	}, zerolog.Nop())

	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() should fail for a missing watch directory")
	}
}

func TestModelReloadService_IsModelFile(t *testing.T) {
	t.Parallel()

	svc := NewModelReloadService(newFakeReloader(), nil, ModelReloadConfig{ModelName: "association_rules"}, zerolog.Nop())

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"created model", fsnotify.Event{Name: "/m/association_rules_v3.gob.gz", Op: fsnotify.Create}, true},
		{"renamed model", fsnotify.Event{Name: "/m/association_rules_v3.gob.gz", Op: fsnotify.Rename}, true},
		{"removed model", fsnotify.Event{Name: "/m/association_rules_v3.gob.gz", Op: fsnotify.Remove}, false},
		{"other model name", fsnotify.Event{Name: "/m/other_v1.gob.gz", Op: fsnotify.Create}, false},
		{"temporary file", fsnotify.Event{Name: "/m/.tmp-association_rules_v3.gob.gz", Op: fsnotify.Create}, false},
		{"unrelated file", fsnotify.Event{Name: "/m/README", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := svc.isModelFile(tt.event); got != tt.want {
				t.Errorf("isModelFile(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

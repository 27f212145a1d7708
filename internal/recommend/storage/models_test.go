// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

const testModel = "association_rules"

func sampleResult() *eclat.Result {
	return eclat.Mine([]eclat.Transaction{
		{"Song A,Artist 1", "Song B,Artist 2"},
		{"Song A,Artist 1", "Song B,Artist 2", "Song C,Artist 3"},
		{"Song A,Artist 1", "Song C,Artist 3"},
		{"Song B,Artist 2"},
	}, 0.25, 0.3, 5)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func saveVersions(t *testing.T, store *Store, versions ...int) {
	t.Helper()
	for _, v := range versions {
		if _, err := store.Save(context.Background(), testModel, v, sampleResult(), ModelMetadata{}); err != nil {
			t.Fatalf("Save(v%d) error = %v", v, err)
		}
	}
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "models")
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	want := sampleResult()

	meta := ModelMetadata{
		TrainedAt:        time.Now().UTC(),
		TransactionCount: 9,
		PlaylistCount:    4,
		UniqueItems:      3,
		ItemsetCount:     want.ItemsetCount,
		RuleCount:        want.RuleCount,
		MinSupport:       0.25,
		DatasetURL:       "https://example.com/playlists.csv",
		RunID:            "run-1",
	}

	saved, err := store.Save(ctx, testModel, 1, want, meta)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Name != testModel || saved.Version != 1 {
		t.Errorf("saved identity = %s v%d", saved.Name, saved.Version)
	}
	if saved.Checksum == "" || saved.SizeBytes == 0 || saved.SavedAt.IsZero() {
		t.Errorf("saved metadata incomplete: %+v", saved)
	}

	got := &eclat.Result{}
	loaded, err := store.Load(ctx, testModel, 1, got)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got.Normalize(), want) {
		t.Errorf("loaded result differs:\n got %+v\nwant %+v", got, want)
	}
	if loaded.RunID != "run-1" || loaded.DatasetURL != meta.DatasetURL || loaded.PlaylistCount != 4 {
		t.Errorf("loaded metadata = %+v", loaded)
	}
}

func TestStore_SaveRefusesExistingVersion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveVersions(t, store, 1)

	_, err := store.Save(context.Background(), testModel, 1, sampleResult(), ModelMetadata{})
	if !errors.Is(err, ErrVersionExists) {
		t.Errorf("Save() error = %v, want ErrVersionExists", err)
	}
}

func TestStore_LoadLatest(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveVersions(t, store, 1, 2, 10)

	meta, err := store.Load(context.Background(), testModel, 0, &eclat.Result{})
	if err != nil {
		t.Fatalf("Load(0) error = %v", err)
	}
	if meta.Version != 10 {
		t.Errorf("latest version = %d, want 10 (numeric, not lexical)", meta.Version)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, testModel, 0, &eclat.Result{}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Load(latest) on empty store error = %v, want ErrModelNotFound", err)
	}
	if _, err := store.Load(ctx, testModel, 3, &eclat.Result{}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Load(3) error = %v, want ErrModelNotFound", err)
	}
}

func TestStore_Versions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, ok := store.LatestVersion(testModel); ok {
		t.Error("empty store should have no latest version")
	}
	if got := store.NextVersion(testModel); got != 1 {
		t.Errorf("NextVersion() = %d, want 1", got)
	}

	saveVersions(t, store, 2, 1)
	// Files from other model families and stray files are ignored.
	if _, err := store.Save(context.Background(), "other", 7, sampleResult(), ModelMetadata{}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	versions, err := store.Versions(testModel)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(versions, []int{1, 2}) {
		t.Errorf("Versions() = %v, want [1 2]", versions)
	}
	if got := store.NextVersion(testModel); got != 3 {
		t.Errorf("NextVersion() = %d, want 3", got)
	}
}

func TestStore_ListModels(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveVersions(t, store, 1, 2, 3)

	models, err := store.ListModels(context.Background(), testModel)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 3 {
		t.Fatalf("ListModels() returned %d models, want 3", len(models))
	}
	for i, m := range models {
		if m.Version != i+1 {
			t.Errorf("models[%d].Version = %d", i, m.Version)
		}
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	saveVersions(t, store, 1, 2)

	if err := store.Delete(ctx, testModel, 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if latest, _ := store.LatestVersion(testModel); latest != 1 {
		t.Errorf("latest after delete = %d, want 1", latest)
	}
	if err := store.Delete(ctx, testModel, 2); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("second Delete() error = %v, want ErrModelNotFound", err)
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		keep        int
		protect     []int
		wantRemoved []int
		wantLeft    []int
	}{
		{"keep three", 3, nil, []int{1, 2}, []int{3, 4, 5}},
		{"keep all", 10, nil, nil, []int{1, 2, 3, 4, 5}},
		{"keep zero means one", 0, nil, []int{1, 2, 3, 4}, []int{5}},
		{"protect pinned", 2, []int{1}, []int{2, 3}, []int{1, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore(t)
			saveVersions(t, store, 1, 2, 3, 4, 5)

			removed, err := store.Prune(context.Background(), testModel, tt.keep, tt.protect...)
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if !reflect.DeepEqual(removed, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", removed, tt.wantRemoved)
			}
			left, _ := store.Versions(testModel)
			if !reflect.DeepEqual(left, tt.wantLeft) {
				t.Errorf("left = %v, want %v", left, tt.wantLeft)
			}
		})
	}
}

func TestStore_ChecksumValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveVersions(t, store, 1)

	// Rewrite the file with a tampered checksum.
	path := store.ModelPath(testModel, 1)
	sf := readStoredFile(t, path)
	sf.Metadata.Checksum = "deadbeef"
	writeStoredFile(t, path, sf)

	_, err := store.Load(context.Background(), testModel, 1, &eclat.Result{})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Load() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestStore_SaveSameVersionAcrossStores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	const writers = 8

	for round := 1; round <= 20; round++ {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < writers; i++ {
			// Separate stores share no lock, like the server and the training job.
			store, err := NewStore(dir)
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Save(ctx, testModel, round, sampleResult(), ModelMetadata{})
				switch {
				case err == nil:
					mu.Lock()
					succeeded++
					mu.Unlock()
				case !errors.Is(err, ErrVersionExists):
					t.Errorf("Save() error = %v, want nil or ErrVersionExists", err)
				}
			}()
		}
		wg.Wait()

		if succeeded != 1 {
			t.Fatalf("round %d: %d saves succeeded, want exactly 1", round, succeeded)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	saveVersions(t, store, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			if _, err := store.Save(ctx, testModel, v+2, sampleResult(), ModelMetadata{}); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.Load(ctx, testModel, 1, &eclat.Result{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}
}

func TestParseModelFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base        string
		wantName    string
		wantVersion int
		wantOK      bool
	}{
		{"association_rules_v3.gob.gz", "association_rules", 3, true},
		{"my_v2_model_v12.gob.gz", "my_v2_model", 12, true},
		{"association_rules_v0.gob.gz", "", 0, false},
		{"association_rules_vx.gob.gz", "", 0, false},
		{"association_rules.gob.gz", "", 0, false},
		{"association_rules_v3.gob", "", 0, false},
		{".association_rules_v3-123.tmp", "", 0, false},
		{".association_rules_v3.gob.gz", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			t.Parallel()
			name, version, ok := ParseModelFilename(tt.base)
			if name != tt.wantName || version != tt.wantVersion || ok != tt.wantOK {
				t.Errorf("ParseModelFilename(%q) = %q, %d, %v", tt.base, name, version, ok)
			}
		})
	}
}

func TestVersionLabels(t *testing.T) {
	t.Parallel()

	if got := VersionLabel(3); got != "3.0" {
		t.Errorf("VersionLabel(3) = %q", got)
	}
	if got := VersionLabel(0); got != "" {
		t.Errorf("VersionLabel(0) = %q", got)
	}

	for _, label := range []string{"3", "3.0", "v3", " 3.0 "} {
		if v, err := ParseVersionLabel(label); err != nil || v != 3 {
			t.Errorf("ParseVersionLabel(%q) = %d, %v", label, v, err)
		}
	}
	for _, label := range []string{"", "0", "-1", "3.5", "latest"} {
		if _, err := ParseVersionLabel(label); err == nil {
			t.Errorf("ParseVersionLabel(%q) should fail", label)
		}
	}
}

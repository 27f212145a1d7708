// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

// ErrNoRegistry is returned for operations that need the version registry
// when the repository was opened without one (the training job).
var ErrNoRegistry = errors.New("model registry not available")

// publishAttempts bounds retries when another process claims the same
// version number concurrently.
const publishAttempts = 3

// ModelInfo is the description served by GET /model/info.
type ModelInfo struct {
	CurrentVersion    string    `json:"current_version"`
	LastModified      time.Time `json:"last_modified"`
	ModelPath         string    `json:"model_path"`
	NumRules          int       `json:"num_rules"`
	NumItemsets       int       `json:"num_itemsets"`
	AvailableVersions []string  `json:"available_versions"`
}

// Repository stores mined results as versioned models.
//
// With a registry, the active version can be pinned (rollback) and model
// files written by other processes are adopted on every read. Without one,
// the newest file on disk is always current.
type Repository struct {
	store        *Store
	registry     *Registry
	name         string
	keepVersions int

	mu sync.Mutex
}

// NewRepository ties store and an optional registry together for models
// called name.
func NewRepository(store *Store, registry *Registry, name string, keepVersions int) *Repository {
	if keepVersions < 1 {
		keepVersions = 1
	}
	return &Repository{
		store:        store,
		registry:     registry,
		name:         name,
		keepVersions: keepVersions,
	}
}

// ModelPath returns the file path of version.
func (r *Repository) ModelPath(version int) string {
	return r.store.ModelPath(r.name, version)
}

// Publish saves result as the next version, registers it and prunes old
// versions. A pinned active version is never pruned.
//
//nolint:gocritic // meta is filled in and returned as a new value
func (r *Repository) Publish(ctx context.Context, result *eclat.Result, meta ModelMetadata) (*ModelMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.sync(ctx); err != nil {
		return nil, err
	}

	var saved *ModelMetadata
	for attempt := 0; attempt < publishAttempts; attempt++ {
		var err error
		saved, err = r.store.Save(ctx, r.name, r.store.NextVersion(r.name), result, meta)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrVersionExists) || attempt == publishAttempts-1 {
			return nil, fmt.Errorf("save model: %w", err)
		}
	}

	if r.registry != nil {
		if err := r.registry.Put(ctx, *saved); err != nil {
			return nil, fmt.Errorf("register model: %w", err)
		}
	}

	if err := r.prune(ctx); err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *Repository) prune(ctx context.Context) error {
	active, err := r.active(ctx)
	if err != nil {
		return err
	}

	removed, err := r.store.Prune(ctx, r.name, r.keepVersions, active)
	if err != nil {
		return fmt.Errorf("prune models: %w", err)
	}

	if r.registry == nil {
		return nil
	}
	for _, v := range removed {
		if err := r.registry.Delete(ctx, r.name, v); err != nil {
			return fmt.Errorf("unregister pruned model: %w", err)
		}
	}
	return nil
}

// sync adopts files written elsewhere. Caller holds r.mu.
func (r *Repository) sync(ctx context.Context) (SyncReport, error) {
	if r.registry == nil {
		return SyncReport{}, nil
	}
	report, err := r.registry.Sync(ctx, r.store, r.name)
	if err != nil {
		return report, fmt.Errorf("sync registry: %w", err)
	}
	return report, nil
}

// Sync reconciles the registry with the model directory.
func (r *Repository) Sync(ctx context.Context) (SyncReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sync(ctx)
}

func (r *Repository) active(ctx context.Context) (int, error) {
	if r.registry == nil {
		return 0, nil
	}
	return r.registry.Active(ctx, r.name)
}

// currentVersion resolves the version to serve. Caller holds r.mu.
func (r *Repository) currentVersion(ctx context.Context) (int, error) {
	active, err := r.active(ctx)
	if err != nil {
		return 0, err
	}
	if active > 0 {
		return active, nil
	}
	latest, ok := r.store.LatestVersion(r.name)
	if !ok {
		return 0, fmt.Errorf("%s: %w", r.name, ErrModelNotFound)
	}
	return latest, nil
}

// Current loads the model to serve: the pinned version if any, otherwise
// the latest.
func (r *Repository) Current(ctx context.Context) (*eclat.Result, *ModelMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.sync(ctx); err != nil {
		return nil, nil, err
	}

	version, err := r.currentVersion(ctx)
	if err != nil {
		return nil, nil, err
	}
	return r.load(ctx, version)
}

// CurrentMetadata returns the metadata of the model Current would load
// without decoding its payload.
func (r *Repository) CurrentMetadata(ctx context.Context) (*ModelMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.sync(ctx); err != nil {
		return nil, err
	}
	version, err := r.currentVersion(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.Metadata(ctx, r.name, version)
}

func (r *Repository) load(ctx context.Context, version int) (*eclat.Result, *ModelMetadata, error) {
	result := &eclat.Result{}
	meta, err := r.store.Load(ctx, r.name, version, result)
	if err != nil {
		return nil, nil, fmt.Errorf("load model v%d: %w", version, err)
	}
	return result.Normalize(), meta, nil
}

// Activate pins version and returns its metadata.
func (r *Repository) Activate(ctx context.Context, version int) (*ModelMetadata, error) {
	if r.registry == nil {
		return nil, ErrNoRegistry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.sync(ctx); err != nil {
		return nil, err
	}
	if err := r.registry.SetActive(ctx, r.name, version); err != nil {
		return nil, err
	}
	return r.registry.Get(ctx, r.name, version)
}

// Deactivate removes the pin so the latest version is served.
func (r *Repository) Deactivate(ctx context.Context) error {
	if r.registry == nil {
		return ErrNoRegistry
	}
	return r.registry.ClearActive(ctx, r.name)
}

// Versions lists the metadata of every available version, ascending.
func (r *Repository) Versions(ctx context.Context) ([]ModelMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registry == nil {
		return r.store.ListModels(ctx, r.name)
	}
	if _, err := r.sync(ctx); err != nil {
		return nil, err
	}
	return r.registry.List(ctx, r.name)
}

// Info describes the current model and the available versions.
func (r *Repository) Info(ctx context.Context) (*ModelInfo, error) {
	meta, err := r.CurrentMetadata(ctx)
	if err != nil {
		return nil, err
	}

	versions, err := r.Versions(ctx)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(versions))
	for i := range versions {
		labels = append(labels, VersionLabel(versions[i].Version))
	}

	return &ModelInfo{
		CurrentVersion:    VersionLabel(meta.Version),
		LastModified:      meta.SavedAt,
		ModelPath:         r.ModelPath(meta.Version),
		NumRules:          meta.RuleCount,
		NumItemsets:       meta.ItemsetCount,
		AvailableVersions: labels,
	}, nil
}

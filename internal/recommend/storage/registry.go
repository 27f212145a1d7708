// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	modelKeyPrefix  = "model:"
	activeKeyPrefix = "active:"
)

// Registry indexes model metadata and the pinned active version in BadgerDB.
//
// Badger holds an exclusive directory lock, so exactly one process (the
// server) opens the registry. Model files written by other processes are
// picked up by Sync.
type Registry struct {
	db *badger.DB
}

// OpenRegistry opens or creates a registry at path.
func OpenRegistry(path string) (*Registry, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = nil
	return openRegistry(opts)
}

// OpenInMemoryRegistry returns a registry that lives only in memory.
func OpenInMemoryRegistry() (*Registry, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openRegistry(opts)
}

func openRegistry(opts badger.Options) (*Registry, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open model registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close releases the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// modelKey zero-pads the version so that key order is version order.
func modelKey(name string, version int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", modelKeyPrefix, name, version))
}

func modelPrefix(name string) []byte {
	return []byte(modelKeyPrefix + name + ":")
}

func activeKey(name string) []byte {
	return []byte(activeKeyPrefix + name)
}

// Put stores or replaces the metadata of meta.Name/meta.Version.
//
//nolint:gocritic // metadata is copied into the value anyway
func (r *Registry) Put(_ context.Context, meta ModelMetadata) error {
	if meta.Name == "" || meta.Version < 1 {
		return fmt.Errorf("register model: name and positive version required")
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(modelKey(meta.Name, meta.Version), data); err != nil {
			return fmt.Errorf("set metadata: %w", err)
		}
		return nil
	})
}

// Get returns the metadata of name/version or ErrModelNotFound.
func (r *Registry) Get(_ context.Context, name string, version int) (*ModelMetadata, error) {
	var meta ModelMetadata

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(name, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s v%d: %w", name, version, ErrModelNotFound)
		}
		if err != nil {
			return fmt.Errorf("get metadata: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// List returns every registered version of name, ascending.
func (r *Registry) List(_ context.Context, name string) ([]ModelMetadata, error) {
	models := []ModelMetadata{}

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := modelPrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta ModelMetadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode metadata %s: %w", it.Item().Key(), err)
			}
			models = append(models, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// Delete removes name/version. An active pin on that version is cleared.
func (r *Registry) Delete(_ context.Context, name string, version int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(modelKey(name, version)); err != nil {
			return fmt.Errorf("delete metadata: %w", err)
		}

		active, err := readActive(txn, name)
		if err != nil {
			return err
		}
		if active == version {
			if err := txn.Delete(activeKey(name)); err != nil {
				return fmt.Errorf("clear active version: %w", err)
			}
		}
		return nil
	})
}

// SetActive pins version as the one to serve. It must be registered.
func (r *Registry) SetActive(_ context.Context, name string, version int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(modelKey(name, version)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%s v%d: %w", name, version, ErrModelNotFound)
			}
			return fmt.Errorf("check version: %w", err)
		}
		return txn.Set(activeKey(name), []byte(strconv.Itoa(version)))
	})
}

// Active returns the pinned version of name, or 0 when unpinned.
func (r *Registry) Active(_ context.Context, name string) (int, error) {
	var version int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		version, err = readActive(txn, name)
		return err
	})
	return version, err
}

// ClearActive removes the pin so the latest version is served again.
func (r *Registry) ClearActive(_ context.Context, name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(activeKey(name))
	})
}

func readActive(txn *badger.Txn, name string) (int, error) {
	item, err := txn.Get(activeKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get active version: %w", err)
	}

	var version int
	err = item.Value(func(val []byte) error {
		v, convErr := strconv.Atoi(string(val))
		if convErr != nil {
			return fmt.Errorf("corrupt active version %q: %w", val, convErr)
		}
		version = v
		return nil
	})
	return version, err
}

// SyncReport lists what Sync changed.
type SyncReport struct {
	Adopted []int
	Removed []int
}

// Changed reports whether Sync modified the registry.
func (s SyncReport) Changed() bool {
	return len(s.Adopted) > 0 || len(s.Removed) > 0
}

// Sync reconciles the registry with the model files of name in store.
// Files the registry has not seen are adopted, and registry entries whose
// file disappeared (pruned by another process) are removed.
func (r *Registry) Sync(ctx context.Context, store *Store, name string) (SyncReport, error) {
	var report SyncReport

	onDisk, err := store.Versions(name)
	if err != nil {
		return report, fmt.Errorf("scan model files: %w", err)
	}
	registered, err := r.List(ctx, name)
	if err != nil {
		return report, err
	}

	known := make(map[int]bool, len(registered))
	for i := range registered {
		known[registered[i].Version] = true
	}
	present := make(map[int]bool, len(onDisk))

	for _, v := range onDisk {
		present[v] = true
		if known[v] {
			continue
		}
		meta, err := store.Metadata(ctx, name, v)
		if err != nil {
			// A file being replaced or a corrupt file; retry on next sync.
			continue
		}
		if err := r.Put(ctx, *meta); err != nil {
			return report, err
		}
		report.Adopted = append(report.Adopted, v)
	}

	for i := range registered {
		v := registered[i].Version
		if present[v] {
			continue
		}
		if err := r.Delete(ctx, name, v); err != nil {
			return report, err
		}
		report.Removed = append(report.Removed, v)
	}

	return report, nil
}

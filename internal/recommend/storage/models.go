// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package storage persists mined association-rule models.
//
// Three pieces cooperate:
//
//   - Store writes one file per model version to a directory that the
//     server and the training job may share. Files are named
//     {name}_v{version}.gob.gz and hold gob-encoded metadata plus a
//     gzip-compressed gob payload with a SHA-256 checksum.
//   - Registry is a BadgerDB index of version metadata and the pinned
//     active version. Only the server opens it; files written by other
//     processes are adopted with Registry.Sync.
//   - Repository combines both for the recommendation engine: publish,
//     load current, activate (rollback) and describe.
//
// # Versions
//
// Versions are positive integers. The first model is version 1 and every
// publish uses latest+1. They are shown to API clients as labels of the
// form "N.0" (see VersionLabel).
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// File name layout.
const (
	modelExt       = ".gob.gz"
	versionMarker  = "_v"
	tempFilePrefix = "."
)

var (
	// ErrModelNotFound is returned when a requested model version does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrVersionExists is returned by Save when the target file already exists.
	ErrVersionExists = errors.New("model version already exists")

	// ErrChecksumMismatch is returned when a model payload is corrupted.
	ErrChecksumMismatch = errors.New("model checksum mismatch")
)

// ModelMetadata describes one stored model version.
type ModelMetadata struct {
	// Name is the model family, e.g. "association_rules".
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// TrainedAt is when mining finished.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the file was written.
	SavedAt time.Time `json:"saved_at"`

	// TransactionCount is the number of valid dataset rows.
	TransactionCount int `json:"total_transactions"`

	// PlaylistCount is the number of playlists mined.
	PlaylistCount int `json:"total_playlists"`

	// UniqueItems is the number of distinct songs in the dataset.
	UniqueItems int `json:"unique_items"`

	ItemsetCount int `json:"num_itemsets"`
	RuleCount    int `json:"num_rules"`

	// Thresholds used for mining.
	MinSupport     float64 `json:"min_support"`
	MinConfidence  float64 `json:"min_confidence"`
	MaxItemsetSize int     `json:"max_itemset_size"`

	// Dataset provenance.
	DatasetURL     string `json:"dataset_url"`
	DatasetVersion string `json:"dataset_version"`
	DatasetName    string `json:"dataset_name"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`

	// RunID identifies the training run that produced the model.
	RunID string `json:"run_id"`
}

// VersionLabel formats a version for API clients: 3 -> "3.0".
// Version 0 (no model) yields "".
func VersionLabel(version int) string {
	if version <= 0 {
		return ""
	}
	return strconv.Itoa(version) + ".0"
}

// ParseVersionLabel accepts "3", "3.0" or "v3" and returns 3.
func ParseVersionLabel(label string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(label), "v")
	s = strings.TrimSuffix(s, ".0")
	version, err := strconv.Atoi(s)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid model version %q", label)
	}
	return version, nil
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Store manages model files in one directory.
//
// The directory is the source of truth for which versions exist: other
// processes may add files at any time, so versions are read from a
// directory listing on every call rather than cached.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates the directory if needed and returns a store over it.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	if _, err := os.ReadDir(baseDir); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Dir returns the directory holding model files.
func (s *Store) Dir() string {
	return s.baseDir
}

// ParseModelFilename extracts name and version from a base name such as
// "association_rules_v3.gob.gz". ok is false for anything else, including
// in-progress temporary files.
func ParseModelFilename(base string) (name string, version int, ok bool) {
	if strings.HasPrefix(base, tempFilePrefix) || !strings.HasSuffix(base, modelExt) {
		return "", 0, false
	}
	stem := strings.TrimSuffix(base, modelExt)

	idx := strings.LastIndex(stem, versionMarker)
	if idx <= 0 {
		return "", 0, false
	}

	version, err := strconv.Atoi(stem[idx+len(versionMarker):])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return stem[:idx], version, true
}

// versions lists the versions of name present on disk, ascending.
// Caller holds s.mu.
func (s *Store) versions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		modelName, v, ok := ParseModelFilename(entry.Name())
		if ok && modelName == name {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	return versions, nil
}

// Versions returns the versions of name present on disk, ascending.
func (s *Store) Versions(name string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions(name)
}

// LatestVersion returns the highest version of name, or false if none.
func (s *Store) LatestVersion(name string) (int, bool) {
	versions, err := s.Versions(name)
	if err != nil || len(versions) == 0 {
		return 0, false
	}
	return versions[len(versions)-1], true
}

// NextVersion returns latest+1, or 1 when no version exists.
func (s *Store) NextVersion(name string) int {
	latest, _ := s.LatestVersion(name)
	return latest + 1
}

// Save writes data as version of name. The file is written under a
// temporary name and hard-linked into place, so readers and directory
// watchers never see a partial model. Saving a version that already exists,
// including one written by another process a moment earlier, fails with
// ErrVersionExists. The returned metadata has Name, Version,
// Checksum, SizeBytes and SavedAt filled in.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ModelMetadata) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()
	meta.Name = name
	meta.Version = version

	s.mu.Lock()
	defer s.mu.Unlock()

	finalPath := s.ModelPath(name, version)
	if _, err := os.Stat(finalPath); err == nil {
		return nil, fmt.Errorf("%s v%d: %w", name, version, ErrVersionExists)
	}

	tmp, err := os.CreateTemp(s.baseDir, fmt.Sprintf("%s%s%s%d-*.tmp", tempFilePrefix, name, versionMarker, version))
	if err != nil {
		return nil, fmt.Errorf("create model file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() //nolint:errcheck // the linked final name keeps the data

	sf := storedFile{Metadata: meta, CompressedData: compressed.Bytes()}
	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return nil, fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close model file: %w", err)
	}
	// Link fails when finalPath exists, unlike rename, so a version claimed
	// by another process is never overwritten.
	if err := os.Link(tmpPath, finalPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s v%d: %w", name, version, ErrVersionExists)
		}
		return nil, fmt.Errorf("install model file: %w", err)
	}

	return &meta, nil
}

// readFile decodes the stored file for name/version. Caller holds s.mu.
func (s *Store) readFile(name string, version int) (*storedFile, error) {
	f, err := os.Open(s.ModelPath(name, version))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s v%d: %w", name, version, ErrModelNotFound)
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// resolve maps version 0 to the latest version. Caller holds s.mu.
func (s *Store) resolve(name string, version int) (int, error) {
	if version != 0 {
		return version, nil
	}
	versions, err := s.versions(name)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrModelNotFound)
	}
	return versions[len(versions)-1], nil
}

// Load decodes version of name into target. Version 0 loads the latest.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	version, err := s.resolve(name, version)
	if err != nil {
		return nil, err
	}

	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // in-memory reader

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &sf.Metadata, nil
}

// Metadata reads only the metadata of version of name (0 = latest).
func (s *Store) Metadata(ctx context.Context, name string, version int) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	version, err := s.resolve(name, version)
	if err != nil {
		return nil, err
	}
	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

// ListModels returns the metadata of every readable version of name,
// ascending by version. Unreadable files are skipped.
func (s *Store) ListModels(ctx context.Context, name string) ([]ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}

	models := make([]ModelMetadata, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := s.readFile(name, v)
		if err != nil {
			continue
		}
		models = append(models, sf.Metadata)
	}
	return models, nil
}

// Delete removes one version of name.
func (s *Store) Delete(_ context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.ModelPath(name, version)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s v%d: %w", name, version, ErrModelNotFound)
		}
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// Prune keeps the newest keepVersions versions of name and removes the
// rest, except versions listed in protect. It returns the removed versions.
func (s *Store) Prune(_ context.Context, name string, keepVersions int, protect ...int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}

	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}
	if len(versions) <= keepVersions {
		return nil, nil
	}

	protected := make(map[int]bool, len(protect))
	for _, v := range protect {
		protected[v] = true
	}

	var removed []int
	for _, v := range versions[:len(versions)-keepVersions] {
		if protected[v] {
			continue
		}
		if err := os.Remove(s.ModelPath(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("prune %s v%d: %w", name, v, err)
		}
		removed = append(removed, v)
	}
	return removed, nil
}

// ModelPath returns the file path for version of name.
func (s *Store) ModelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s%s%d%s", name, versionMarker, version, modelExt))
}

//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(ModelMetadata{})
	gob.Register(storedFile{})
}

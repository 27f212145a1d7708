// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"encoding/gob"
	"os"
	"testing"
)

func readStoredFile(t *testing.T, path string) storedFile {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		t.Fatal(err)
	}
	return sf
}

func writeStoredFile(t *testing.T, path string, sf storedFile) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(sf); err != nil {
		t.Fatal(err)
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := OpenInMemoryRegistry()
	if err != nil {
		t.Fatalf("OpenInMemoryRegistry() error = %v", err)
	}
	t.Cleanup(func() { _ = registry.Close() })
	return registry
}

// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/config"
)

const playlistsCSV = `pid,track_name,artist_name
1,Yesterday,The Beatles
1,Let It Be,The Beatles
2,Yesterday,The Beatles
2,Let It Be,The Beatles
3,Yesterday,The Beatles
3,Hey Jude,The Beatles
4,Imagine,John Lennon
`

// setupEnv points the configuration at temp directories and writes the
// playlist CSV. Tests using it call t.Setenv and cannot run in parallel.
func setupEnv(t *testing.T) (modelDir, csvPath string) {
	t.Helper()

	dir := t.TempDir()
	modelDir = filepath.Join(dir, "models")
	csvPath = filepath.Join(dir, "playlists.csv")
	if err := os.WriteFile(csvPath, []byte(playlistsCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("MODEL_PATH", modelDir)
	t.Setenv("MODEL_REGISTRY_PATH", filepath.Join(dir, "registry"))
	t.Setenv("MIN_SUPPORT", "0.5")
	t.Setenv("MIN_CONFIDENCE", "0.5")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATASET_URL", "")
	return modelDir, csvPath
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func TestTrain(t *testing.T) {
	modelDir, csvPath := setupEnv(t)

	out, err := runApp(t, "--dataset-url", csvPath, "--dataset-version", "2024")
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	var result struct {
		Version     string `json:"version"`
		ModelPath   string `json:"model_path"`
		NumRules    int    `json:"num_rules"`
		NumItemsets int    `json:"num_itemsets"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}

	if result.Version != "1.0" {
		t.Errorf("version = %q, want 1.0", result.Version)
	}
	if result.NumRules != 2 || result.NumItemsets != 3 {
		t.Errorf("rules/itemsets = %d/%d, want 2/3", result.NumRules, result.NumItemsets)
	}
	if filepath.Dir(result.ModelPath) != modelDir {
		t.Errorf("model path %q not in %q", result.ModelPath, modelDir)
	}
	if _, err := os.Stat(result.ModelPath); err != nil {
		t.Errorf("model file missing: %v", err)
	}

	// A second run publishes the next version.
	out, err = runApp(t, "--dataset-url", csvPath)
	if err != nil {
		t.Fatalf("second train: %v", err)
	}
	if !strings.Contains(out, `"version": "2.0"`) {
		t.Errorf("second run output %q, want version 2.0", out)
	}
}

func TestTrain_DatasetURLFromEnv(t *testing.T) {
	_, csvPath := setupEnv(t)
	t.Setenv("DATASET_URL", csvPath)

	if _, err := runApp(t); err != nil {
		t.Fatalf("train: %v", err)
	}
}

func TestTrain_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing url", nil, "dataset URL is required"},
		{"missing file", []string{"--dataset-url", "/nonexistent/playlists.csv"}, "load dataset"},
		{"unexpected argument", []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnv(t)

			_, err := runApp(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestTrain_ConfigError(t *testing.T) {
	setupEnv(t)

	var stdout, stderr bytes.Buffer
	app := NewApp().WithOutput(&stdout, &stderr)
	app.loadConfig = func() (*config.Config, error) {
		return nil, errors.New("boom")
	}

	err := app.ExecuteWithArgs(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "load configuration") {
		t.Fatalf("err = %v, want load configuration error", err)
	}
}

func TestMine(t *testing.T) {
	modelDir, csvPath := setupEnv(t)

	tests := []struct {
		name       string
		args       []string
		wantRules  int
		wantResult bool
	}{
		{"summary", []string{"mine", csvPath}, 2, false},
		{"full", []string{"mine", csvPath, "--full"}, 2, true},
		{"confidence override", []string{"mine", csvPath, "--min-confidence", "0.9"}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, tt.args...)
			if err != nil {
				t.Fatalf("mine: %v", err)
			}

			var summary MineSummary
			if err := json.Unmarshal([]byte(out), &summary); err != nil {
				t.Fatalf("decode output %q: %v", out, err)
			}
			if summary.RuleCount != tt.wantRules {
				t.Errorf("rule_count = %d, want %d", summary.RuleCount, tt.wantRules)
			}
			if summary.Dataset.TotalPlaylists != 4 {
				t.Errorf("total_playlists = %d, want 4", summary.Dataset.TotalPlaylists)
			}
			if (summary.Result != nil) != tt.wantResult {
				t.Errorf("result present = %v, want %v", summary.Result != nil, tt.wantResult)
			}
		})
	}

	// Mining never writes models.
	if entries, err := os.ReadDir(modelDir); err == nil && len(entries) > 0 {
		t.Errorf("mine wrote %d files to the model directory", len(entries))
	}
}

func TestMine_ExplicitZeroOverride(t *testing.T) {
	_, csvPath := setupEnv(t)
	t.Setenv("MIN_CONFIDENCE", "0.9")

	tests := []struct {
		name           string
		args           []string
		wantConfidence float64
		wantRules      int
	}{
		{"configured threshold", []string{"mine", csvPath}, 0.9, 1},
		{"zero flag keeps every rule", []string{"mine", csvPath, "--min-confidence", "0"}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runApp(t, tt.args...)
			if err != nil {
				t.Fatalf("mine: %v", err)
			}

			var summary MineSummary
			if err := json.Unmarshal([]byte(out), &summary); err != nil {
				t.Fatalf("decode output %q: %v", out, err)
			}
			if summary.MinConfidence != tt.wantConfidence {
				t.Errorf("min_confidence = %v, want %v", summary.MinConfidence, tt.wantConfidence)
			}
			if summary.RuleCount != tt.wantRules {
				t.Errorf("rule_count = %d, want %d", summary.RuleCount, tt.wantRules)
			}
		})
	}
}

func TestMine_Errors(t *testing.T) {
	setupEnv(t)

	if _, err := runApp(t, "mine"); err == nil {
		t.Error("expected error without a path")
	}
	if _, err := runApp(t, "mine", "/nonexistent/playlists.csv"); err == nil {
		t.Error("expected error for a missing file")
	}
}

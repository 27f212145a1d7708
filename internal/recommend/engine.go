// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/cache"
	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/recommend/eclat"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

var (
	// ErrNoModel is returned when no model has been trained or loaded.
	ErrNoModel = errors.New("no model available")

	// ErrTrainingInProgress is returned when Train is called while
	// another run holds the training lock.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// ModelRepository persists and loads mined models. It is implemented by
// *storage.Repository.
type ModelRepository interface {
	Publish(ctx context.Context, result *eclat.Result, meta storage.ModelMetadata) (*storage.ModelMetadata, error)
	Current(ctx context.Context) (*eclat.Result, *storage.ModelMetadata, error)
	Activate(ctx context.Context, version int) (*storage.ModelMetadata, error)
	Deactivate(ctx context.Context) error
	Versions(ctx context.Context) ([]storage.ModelMetadata, error)
	Info(ctx context.Context) (*storage.ModelInfo, error)
	ModelPath(version int) string
}

// Notifier announces newly published models to other processes.
type Notifier interface {
	PublishModel(ctx context.Context, meta *storage.ModelMetadata) error
}

// Source describes where a training dataset came from.
type Source struct {
	URL     string `json:"dataset_url"`
	Version string `json:"dataset_version"`
	Name    string `json:"dataset_name"`
}

// Model is a loaded model ready for serving.
type Model struct {
	Result   *eclat.Result
	Metadata storage.ModelMetadata
	Rules    *RuleIndex
	LoadedAt time.Time
}

// TrainResult describes a completed training run.
type TrainResult struct {
	Version      string        `json:"version"`
	ModelPath    string        `json:"model_path"`
	Timestamp    time.Time     `json:"timestamp"`
	NumRules     int           `json:"num_rules"`
	NumItemsets  int           `json:"num_itemsets"`
	DatasetStats dataset.Stats `json:"dataset_stats"`
	DurationMS   int64         `json:"duration_ms"`
	RunID        string        `json:"run_id"`
}

// ReloadResult describes the model in service after Reload or Activate.
type ReloadResult struct {
	Version   string    `json:"version"`
	ModelDate time.Time `json:"model_date"`

	// Changed is false when the requested model was already loaded.
	Changed bool `json:"changed"`
}

// Response is the answer to a recommendation request.
type Response struct {
	Songs           []string         `json:"songs"`
	Recommendations []Recommendation `json:"recommendations"`
	Version         string           `json:"version"`
	ModelDate       time.Time        `json:"model_date"`
}

// TrainingStatus reports the state of training runs.
type TrainingStatus struct {
	InProgress     bool      `json:"in_progress"`
	LastRunID      string    `json:"last_run_id,omitempty"`
	LastStartedAt  time.Time `json:"last_started_at,omitempty"`
	LastDurationMS int64     `json:"last_duration_ms"`
	LastError      string    `json:"last_error,omitempty"`
	LastVersion    string    `json:"last_version,omitempty"`
	Runs           int       `json:"runs"`
}

// Engine trains association-rule models and serves recommendations from
// the loaded one. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	repo     ModelRepository
	notifier Notifier

	model atomic.Pointer[Model]

	// trainMu serializes training; Train fails fast instead of queueing.
	trainMu sync.Mutex

	// reloadMu serializes model swaps from Reload and Train.
	reloadMu sync.Mutex

	statusMu sync.RWMutex
	status   TrainingStatus

	cache *cache.LRU[*Response]
}

// NewEngine creates an engine backed by repo. notifier may be nil.
//
//nolint:gocritic // zerolog.Logger is meant to be passed by value
func NewEngine(cfg *Config, repo ModelRepository, notifier Notifier, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if repo == nil {
		return nil, errors.New("model repository is required")
	}

	e := &Engine{
		config:   cfg.Clone(),
		logger:   logger.With().Str("component", "recommend").Logger(),
		repo:     repo,
		notifier: notifier,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Train mines ds, publishes the result as a new model version and serves
// it. Only one run may be active; concurrent calls get ErrTrainingInProgress.
func (e *Engine) Train(ctx context.Context, ds *dataset.Dataset, source Source) (*TrainResult, error) {
	if ds == nil {
		return nil, errors.New("dataset is required")
	}
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	runID := logging.GenerateRequestID()
	start := time.Now()
	logger := e.logger.With().Str("run_id", runID).Logger()

	e.beginRun(runID, start)

	result, err := e.train(ctx, ds, source, runID, start, logger)
	e.endRun(start, result, err)

	if err != nil {
		metrics.RecordTrainingRun("failure")
		logger.Error().Err(err).Str("dataset_url", source.URL).Msg("training failed")
		return nil, err
	}

	metrics.RecordTrainingRun("success")
	logger.Info().
		Str("version", result.Version).
		Int("rules", result.NumRules).
		Int("itemsets", result.NumItemsets).
		Int64("duration_ms", result.DurationMS).
		Msg("training complete")
	return result, nil
}

//nolint:gocritic // zerolog.Logger is meant to be passed by value
func (e *Engine) train(ctx context.Context, ds *dataset.Dataset, source Source, runID string, start time.Time, logger zerolog.Logger) (*TrainResult, error) {
	logger.Info().
		Str("dataset_url", source.URL).
		Int("playlists", ds.Stats.TotalPlaylists).
		Int("unique_items", ds.Stats.UniqueItems).
		Float64("min_support", e.config.Mining.MinSupport).
		Float64("min_confidence", e.config.Mining.MinConfidence).
		Msg("starting training")

	mined, err := e.mine(ctx, ds.Transactions)
	if err != nil {
		return nil, err
	}
	trainedAt := time.Now().UTC()

	meta := storage.ModelMetadata{
		TrainedAt:          trainedAt,
		TransactionCount:   ds.Stats.TotalRows,
		PlaylistCount:      ds.Stats.TotalPlaylists,
		UniqueItems:        ds.Stats.UniqueItems,
		MinSupport:         e.config.Mining.MinSupport,
		MinConfidence:      e.config.Mining.MinConfidence,
		MaxItemsetSize:     e.config.Mining.MaxItemsetSize,
		DatasetURL:         source.URL,
		DatasetVersion:     source.Version,
		DatasetName:        source.Name,
		TrainingDurationMS: time.Since(start).Milliseconds(),
		RunID:              runID,
	}

	saved, err := e.repo.Publish(ctx, mined, meta)
	if err != nil {
		return nil, fmt.Errorf("publish model: %w", err)
	}

	e.swap(mined, saved)

	if e.notifier != nil {
		if err := e.notifier.PublishModel(ctx, saved); err != nil {
			// The model is saved and served; peers pick it up on their next reload.
			logger.Warn().Err(err).Int("version", saved.Version).Msg("failed to announce model")
		}
	}

	return &TrainResult{
		Version:      storage.VersionLabel(saved.Version),
		ModelPath:    e.repo.ModelPath(saved.Version),
		Timestamp:    trainedAt,
		NumRules:     mined.RuleCount,
		NumItemsets:  mined.ItemsetCount,
		DatasetStats: ds.Stats,
		DurationMS:   time.Since(start).Milliseconds(),
		RunID:        runID,
	}, nil
}

// mine runs Eclat in a worker goroutine bounded by the training timeout.
// Mining cannot be interrupted, so on timeout the worker finishes in the
// background and its result is dropped.
func (e *Engine) mine(ctx context.Context, transactions []eclat.Transaction) (*eclat.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mining not started: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	cfg := e.config.Mining
	start := time.Now()
	done := make(chan *eclat.Result, 1)
	go func() {
		done <- eclat.Mine(transactions, cfg.MinSupport, cfg.MinConfidence, cfg.MaxItemsetSize)
	}()

	select {
	case result := <-done:
		metrics.RecordMiningRun(time.Since(start), len(transactions), result.ItemsetCount, result.RuleCount)
		return result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mining aborted after %v: %w", time.Since(start).Round(time.Millisecond), ctx.Err())
	}
}

func (e *Engine) beginRun(runID string, start time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.InProgress = true
	e.status.LastRunID = runID
	e.status.LastStartedAt = start
	e.status.LastError = ""
}

func (e *Engine) endRun(start time.Time, result *TrainResult, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.InProgress = false
	e.status.Runs++
	e.status.LastDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
		return
	}
	e.status.LastVersion = result.Version
}

// TrainingStatus returns a snapshot of the training state.
func (e *Engine) TrainingStatus() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// swap installs a new model and drops cached responses.
func (e *Engine) swap(result *eclat.Result, meta *storage.ModelMetadata) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	e.swapLocked(result, meta)
}

func (e *Engine) swapLocked(result *eclat.Result, meta *storage.ModelMetadata) {
	e.model.Store(&Model{
		Result:   result,
		Metadata: *meta,
		Rules:    NewRuleIndex(result.Rules),
		LoadedAt: time.Now(),
	})
	if e.cache != nil {
		e.cache.Clear()
	}
	metrics.SetModelVersion(meta.Version)
}

// Reload loads the repository's current model. Reloading the model that
// is already served is a no-op with Changed=false.
func (e *Engine) Reload(ctx context.Context) (*ReloadResult, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	result, meta, err := e.repo.Current(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNoModel, err)
		}
		return nil, fmt.Errorf("load model: %w", err)
	}

	if current := e.model.Load(); current != nil &&
		current.Metadata.Version == meta.Version &&
		current.Metadata.Checksum == meta.Checksum {
		return &ReloadResult{
			Version:   storage.VersionLabel(meta.Version),
			ModelDate: meta.SavedAt,
		}, nil
	}

	e.swapLocked(result, meta)
	e.logger.Info().
		Int("version", meta.Version).
		Int("rules", result.RuleCount).
		Time("saved_at", meta.SavedAt).
		Msg("model loaded")

	return &ReloadResult{
		Version:   storage.VersionLabel(meta.Version),
		ModelDate: meta.SavedAt,
		Changed:   true,
	}, nil
}

// Activate pins version in the repository and serves it.
func (e *Engine) Activate(ctx context.Context, version int) (*ReloadResult, error) {
	if _, err := e.repo.Activate(ctx, version); err != nil {
		return nil, err
	}
	e.logger.Info().Int("version", version).Msg("model version activated")
	return e.Reload(ctx)
}

// ActivateLatest removes a pinned version so the newest model is served
// again, including models trained later.
func (e *Engine) ActivateLatest(ctx context.Context) (*ReloadResult, error) {
	if err := e.repo.Deactivate(ctx); err != nil {
		return nil, err
	}
	e.logger.Info().Msg("model pin removed, serving latest version")
	return e.Reload(ctx)
}

// Recommend suggests songs that go together with songs.
func (e *Engine) Recommend(ctx context.Context, songs []string) (*Response, error) {
	model := e.model.Load()
	if model == nil {
		metrics.RecordRecommendation("no_model")
		return nil, ErrNoModel
	}

	var key string
	if e.cache != nil {
		key = cache.GenerateKey("recommend", struct {
			Version int      `json:"v"`
			Songs   []string `json:"s"`
		}{model.Metadata.Version, normalizedKey(songs)})

		if cached, ok := e.cache.Get(key); ok {
			metrics.RecordCacheLookup(true)
			metrics.RecordRecommendation("success")
			return cached.withSongs(songs), nil
		}
		metrics.RecordCacheLookup(false)
	}

	recs := model.Rules.Recommend(songs, e.config.Serving.TopN)
	resp := &Response{
		Songs:           songs,
		Recommendations: recs,
		Version:         storage.VersionLabel(model.Metadata.Version),
		ModelDate:       model.Metadata.SavedAt,
	}

	if e.cache != nil {
		e.cache.Add(key, resp)
	}

	metrics.RecordRecommendation("success")
	logging.Ctx(ctx).Debug().
		Int("songs", len(songs)).
		Int("recommendations", len(recs)).
		Str("version", resp.Version).
		Msg("recommendation served")

	return resp, nil
}

// withSongs copies a cached response for a request whose songs may differ
// in case or order from the one that filled the cache.
func (r *Response) withSongs(songs []string) *Response {
	recs := make([]Recommendation, len(r.Recommendations))
	copy(recs, r.Recommendations)
	return &Response{
		Songs:           songs,
		Recommendations: recs,
		Version:         r.Version,
		ModelDate:       r.ModelDate,
	}
}

// ModelInfo describes the current model and the stored versions.
func (e *Engine) ModelInfo(ctx context.Context) (*storage.ModelInfo, error) {
	info, err := e.repo.Info(ctx)
	if errors.Is(err, storage.ErrModelNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNoModel, err)
	}
	return info, err
}

// Versions lists the metadata of every stored version.
func (e *Engine) Versions(ctx context.Context) ([]storage.ModelMetadata, error) {
	return e.repo.Versions(ctx)
}

// IsLoaded reports whether a model is being served.
func (e *Engine) IsLoaded() bool {
	return e.model.Load() != nil
}

// CurrentVersion returns the served version label, or "" when none.
func (e *Engine) CurrentVersion() string {
	if m := e.model.Load(); m != nil {
		return storage.VersionLabel(m.Metadata.Version)
	}
	return ""
}

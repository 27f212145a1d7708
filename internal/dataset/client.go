// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
)

// BreakerName labels the download circuit breaker in logs and metrics.
const BreakerName = "dataset-download"

var (
	// ErrCircuitOpen is returned while the download breaker rejects requests.
	ErrCircuitOpen = errors.New("dataset downloads temporarily disabled after repeated failures")

	// ErrTooLarge is returned when a download exceeds ClientConfig.MaxBytes.
	ErrTooLarge = errors.New("dataset exceeds size limit")
)

// StatusError reports a non-2xx download response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Code)
}

// ClientConfig configures dataset downloads.
type ClientConfig struct {
	// Timeout bounds one download including the body. Default: 5m
	Timeout time.Duration

	// MaxBytes caps the response body. Default: 512 MiB
	MaxBytes int64

	// MaxFailures consecutive failures open the breaker. Default: 3
	MaxFailures uint32

	// OpenTimeout is how long the breaker stays open. Default: 1m
	OpenTimeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

func (c *ClientConfig) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 512 << 20
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = "setlist-dataset-client"
	}
}

// Client downloads and parses playlist datasets.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	cb     *gobreaker.CircuitBreaker[*Dataset]
	logger zerolog.Logger
}

// NewClient creates a download client with its own circuit breaker.
func NewClient(cfg ClientConfig) *Client {
	cfg.setDefaults()
	logger := logging.WithComponent("dataset")

	metrics.SetCircuitBreakerState(BreakerName, 0)

	cb := gobreaker.NewCircuitBreaker[*Dataset](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},

		// A reachable server returning a bad file is not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrMissingColumns) ||
				errors.Is(err, ErrMalformedCSV) ||
				errors.Is(err, ErrTooLarge) ||
				errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, stateValue(to))
		},
	})

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
		logger: logger,
	}
}

// State returns the breaker state (closed, half-open, open).
func (c *Client) State() string {
	return c.cb.State().String()
}

// Fetch downloads and parses the CSV at url.
func (c *Client) Fetch(ctx context.Context, url string) (*Dataset, error) {
	ds, err := c.cb.Execute(func() (*Dataset, error) {
		return c.download(ctx, url)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(BreakerName, "rejected")
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case err != nil:
		metrics.RecordCircuitBreakerRequest(BreakerName, "failure")
		return nil, err
	}

	metrics.RecordCircuitBreakerRequest(BreakerName, "success")
	return ds, nil
}

func (c *Client) download(ctx context.Context, url string) (*Dataset, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // body fully consumed or abandoned

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body := &limitedReader{r: resp.Body, remaining: c.cfg.MaxBytes}
	ds, err := Parse(body)
	if body.exceeded {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.cfg.MaxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	metrics.RecordDatasetDownload(body.read, time.Since(start))
	c.logger.Info().
		Str("url", url).
		Int64("bytes", body.read).
		Int("playlists", ds.Stats.TotalPlaylists).
		Int("rows", ds.Stats.TotalRows).
		Int("unique_items", ds.Stats.UniqueItems).
		Dur("duration", time.Since(start)).
		Msg("dataset downloaded")

	return ds, nil
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Open loads a dataset from an http(s) URL, a file:// URL or a local path.
func (c *Client) Open(ctx context.Context, source string) (*Dataset, error) {
	if IsRemote(source) {
		return c.Fetch(ctx, source)
	}
	return OpenFile(strings.TrimPrefix(source, "file://"))
}

// OpenFile parses a local CSV file.
func OpenFile(path string) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration or CLI args
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	read      int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		l.exceeded = true
		return 0, ErrTooLarge
	}
	// Read one byte past the limit to tell "exactly at limit" from "over".
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrTooLarge
	}
	return n, err
}

func stateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// stubServer blocks in ListenAndServe until Shutdown, unless listenErr is set.
type stubServer struct {
	listenErr   error
	shutdownErr error

	started  chan struct{}
	released chan struct{}
	once     sync.Once

	mu        sync.Mutex
	shutdowns int
}

func newStubServer() *stubServer {
	return &stubServer{
		started:  make(chan struct{}, 1),
		released: make(chan struct{}),
	}
}

func (s *stubServer) ListenAndServe() error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.released
	return http.ErrServerClosed
}

func (s *stubServer) Shutdown(context.Context) error {
	s.mu.Lock()
	s.shutdowns++
	s.mu.Unlock()
	s.once.Do(func() { close(s.released) })
	return s.shutdownErr
}

func (s *stubServer) shutdownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}

var _ suture.Service = (*HTTPServerService)(nil)

func TestNewHTTPServerService_Timeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"explicit", 3 * time.Second, 3 * time.Second},
		{"zero uses default", 0, 10 * time.Second},
		{"negative uses default", -time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewHTTPServerService(newStubServer(), tt.timeout, zerolog.Nop())
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "http-server" {
				t.Errorf("String() = %q", svc.String())
			}
		})
	}
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		listenErr     error
		shutdownErr   error
		cancel        bool
		wantErr       string
		wantCanceled  bool
		wantShutdowns int
	}{
		{
			name:          "graceful shutdown on cancel",
			cancel:        true,
			wantCanceled:  true,
			wantShutdowns: 1,
		},
		{
			name:      "listen failure",
			listenErr: errors.New("address already in use"),
			wantErr:   "http server failed: address already in use",
		},
		{
			name:          "shutdown failure",
			shutdownErr:   errors.New("connections still open"),
			cancel:        true,
			wantErr:       "http server shutdown failed",
			wantShutdowns: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newStubServer()
			server.listenErr = tt.listenErr
			server.shutdownErr = tt.shutdownErr
			svc := NewHTTPServerService(server, time.Second, zerolog.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			select {
			case <-server.started:
			case <-time.After(2 * time.Second):
				t.Fatal("ListenAndServe was not called")
			}
			if tt.cancel {
				cancel()
			}

			var err error
			select {
			case err = <-done:
			case <-time.After(3 * time.Second):
				t.Fatal("Serve did not return")
			}

			switch {
			case tt.wantCanceled:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("err = %v, want context.Canceled", err)
				}
			case tt.wantErr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want %q", err, tt.wantErr)
				}
			}
			if got := server.shutdownCount(); got != tt.wantShutdowns {
				t.Errorf("Shutdown called %d times, want %d", got, tt.wantShutdowns)
			}
		})
	}
}

func TestHTTPServerService_RealServer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	server := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, time.Second, zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if !strings.Contains(buf.String(), `"addr":"127.0.0.1:0"`) {
		t.Errorf("listen address not logged: %s", buf.String())
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	t.Parallel()

	server := newStubServer()
	sup := suture.New("test", suture.Spec{Timeout: 2 * time.Second})
	sup.Add(NewHTTPServerService(server, time.Second, zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	select {
	case <-server.started:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not start the server")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	if server.shutdownCount() != 1 {
		t.Errorf("Shutdown called %d times, want 1", server.shutdownCount())
	}
}

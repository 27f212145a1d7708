// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
)

// App is the train-job command line.
type App struct {
	root   *cobra.Command
	stdout io.Writer

	// loadConfig is replaced in tests.
	loadConfig func() (*config.Config, error)
	config     *config.Config
}

// NewApp builds the command tree.
func NewApp() *App {
	app := &App{
		stdout:     os.Stdout,
		loadConfig: config.Load,
	}

	app.root = app.newTrainCmd()
	app.root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := app.loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logging.Init(logging.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			Caller:    cfg.Logging.Caller,
			Timestamp: true,
			Output:    cmd.ErrOrStderr(),
		})
		app.config = cfg
		return nil
	}
	app.root.AddCommand(app.newMineCmd())

	return app
}

// WithOutput redirects command output, mainly for tests.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the command line until done or interrupted.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the command line with explicit arguments.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// engineConfig maps the application configuration onto the engine.
func engineConfig(cfg *config.Config) *recommend.Config {
	engineCfg := recommend.DefaultConfig()
	engineCfg.Mining.MinSupport = cfg.Mining.MinSupport
	engineCfg.Mining.MinConfidence = cfg.Mining.MinConfidence
	engineCfg.Mining.MaxItemsetSize = cfg.Mining.MaxItemsetSize
	engineCfg.Training.Timeout = cfg.Training.Timeout
	// The job never serves recommendations.
	engineCfg.Cache.Enabled = false
	return engineCfg
}

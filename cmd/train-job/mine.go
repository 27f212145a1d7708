// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

type mineOptions struct {
	full          bool
	minSupport    float64
	minConfidence float64
	maxSize       int
}

// MineSummary is printed by the mine command.
type MineSummary struct {
	Dataset        dataset.Stats `json:"dataset"`
	MinSupport     float64       `json:"min_support"`
	MinConfidence  float64       `json:"min_confidence"`
	MaxItemsetSize int           `json:"max_itemset_size"`
	ItemsetCount   int           `json:"itemset_count"`
	RuleCount      int           `json:"rule_count"`
	DurationMS     int64         `json:"duration_ms"`

	// Result is only set with --full.
	Result *eclat.Result `json:"result,omitempty"`
}

func (a *App) newMineCmd() *cobra.Command {
	opts := &mineOptions{}

	cmd := &cobra.Command{
		Use:   "mine <csv-path>",
		Short: "Mine a local CSV and print the result as JSON",
		Long: `Mine frequent itemsets and association rules from a local playlist CSV
with the configured thresholds and print a JSON summary. Nothing is saved.

Examples:
  train-job mine playlists.csv
  train-job mine playlists.csv --min-support 0.01 --full`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mine(cmd.Flags(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.full, "full", false, "Include every itemset and rule")
	cmd.Flags().Float64Var(&opts.minSupport, "min-support", 0, "Override MIN_SUPPORT when set")
	cmd.Flags().Float64Var(&opts.minConfidence, "min-confidence", 0, "Override MIN_CONFIDENCE when set")
	cmd.Flags().IntVar(&opts.maxSize, "max-size", 0, "Override MAX_ITEMSET_SIZE when set (below 1 means 5)")

	return cmd
}

func (a *App) mine(flags *pflag.FlagSet, path string, opts *mineOptions) error {
	ds, err := dataset.OpenFile(path)
	if err != nil {
		return err
	}

	summary := MineSummary{
		Dataset:        ds.Stats,
		MinSupport:     a.config.Mining.MinSupport,
		MinConfidence:  a.config.Mining.MinConfidence,
		MaxItemsetSize: a.config.Mining.MaxItemsetSize,
	}
	// Explicit flags win even when zero; --min-confidence 0 keeps every rule.
	if flags.Changed("min-support") {
		summary.MinSupport = opts.minSupport
	}
	if flags.Changed("min-confidence") {
		summary.MinConfidence = opts.minConfidence
	}
	if flags.Changed("max-size") {
		summary.MaxItemsetSize = opts.maxSize
	}

	start := time.Now()
	result := eclat.Mine(ds.Transactions, summary.MinSupport, summary.MinConfidence, summary.MaxItemsetSize)
	summary.DurationMS = time.Since(start).Milliseconds()
	summary.ItemsetCount = result.ItemsetCount
	summary.RuleCount = result.RuleCount
	if opts.full {
		summary.Result = result
	}

	return a.printJSON(summary)
}

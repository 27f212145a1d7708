// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package dataset loads playlist datasets for mining.
//
// A dataset is a CSV file with one row per playlist entry. The columns
// pid, track_name and artist_name are required (any order, other columns
// ignored). Every row becomes the item "track_name,artist_name" and rows
// are grouped by pid into one transaction per playlist.
//
// Datasets are read from http(s) URLs through Client, which caps the body
// size and wraps downloads in a circuit breaker, or from local files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

// Required CSV columns.
const (
	ColumnPlaylistID = "pid"
	ColumnTrackName  = "track_name"
	ColumnArtistName = "artist_name"
)

// RequiredColumns lists the columns every dataset must have.
var RequiredColumns = []string{ColumnPlaylistID, ColumnTrackName, ColumnArtistName}

var (
	// ErrMissingColumns means the header lacks a required column.
	ErrMissingColumns = errors.New("dataset is missing required columns")

	// ErrMalformedCSV means the file could not be parsed as CSV.
	ErrMalformedCSV = errors.New("malformed dataset CSV")
)

// Stats summarizes a parsed dataset.
type Stats struct {
	// TotalRows is the number of valid playlist entries.
	TotalRows int `json:"total_transactions"`

	// TotalPlaylists is the number of distinct pids.
	TotalPlaylists int `json:"total_playlists"`

	// UniqueItems is the number of distinct track,artist items.
	UniqueItems int `json:"unique_items"`

	// SkippedRows counts rows with an empty pid, track or artist.
	SkippedRows int `json:"skipped_rows"`
}

// Dataset is a parsed playlist dataset ready for mining.
type Dataset struct {
	// Transactions holds one item list per playlist, ordered by pid.
	Transactions []eclat.Transaction

	Stats Stats
}

// ItemKey builds the item identifier for a track.
func ItemKey(track, artist string) string {
	return track + "," + artist
}

type playlist struct {
	pid   string
	items eclat.Transaction
}

// Parse reads a playlist CSV from r.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedCSV, err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		stats     Stats
		playlists []*playlist
		byPID     = make(map[string]*playlist)
		unique    = make(map[string]struct{})
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		pid, track, artist := cols.field(record, cols.pid), cols.field(record, cols.track), cols.field(record, cols.artist)
		if strings.TrimSpace(pid) == "" || track == "" || artist == "" {
			stats.SkippedRows++
			continue
		}
		pid = strings.TrimSpace(pid)

		item := ItemKey(track, artist)
		p, ok := byPID[pid]
		if !ok {
			p = &playlist{pid: pid}
			byPID[pid] = p
			playlists = append(playlists, p)
		}
		p.items = append(p.items, item)
		unique[item] = struct{}{}
		stats.TotalRows++
	}

	sortPlaylists(playlists)

	transactions := make([]eclat.Transaction, len(playlists))
	for i, p := range playlists {
		transactions[i] = p.items
	}

	stats.TotalPlaylists = len(playlists)
	stats.UniqueItems = len(unique)

	return &Dataset{Transactions: transactions, Stats: stats}, nil
}

type columns struct {
	pid, track, artist int
}

func (c columns) field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func locateColumns(header []string) (columns, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return columns{
		pid:    positions[ColumnPlaylistID],
		track:  positions[ColumnTrackName],
		artist: positions[ColumnArtistName],
	}, nil
}

// sortPlaylists orders playlists by pid: numerically when every pid is a
// number, lexically otherwise.
func sortPlaylists(playlists []*playlist) {
	numeric := make(map[string]float64, len(playlists))
	for _, p := range playlists {
		v, err := strconv.ParseFloat(p.pid, 64)
		if err != nil {
			sort.SliceStable(playlists, func(i, j int) bool {
				return playlists[i].pid < playlists[j].pid
			})
			return
		}
		numeric[p.pid] = v
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		return numeric[playlists[i].pid] < numeric[playlists[j].pid]
	})
}

// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"sort"
	"strings"

	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

// Recommendation is a suggested song with the score of the best rule
// that produced it.
type Recommendation struct {
	Song  string  `json:"song"`
	Score float64 `json:"score"`
}

// SongName extracts the song from an item "track,artist". Case is kept
// for display.
func SongName(item string) string {
	if i := strings.IndexByte(item, ','); i >= 0 {
		item = item[:i]
	}
	return strings.TrimSpace(item)
}

func normalizeSong(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type indexedRule struct {
	antecedent  []string // normalized song names
	consequents []string // display song names
	score       float64
}

// RuleIndex holds the rules of one model, pre-normalized for matching.
// It is immutable after construction and safe for concurrent use.
type RuleIndex struct {
	rules []indexedRule
}

// NewRuleIndex prepares rules for matching. Rule order is preserved so
// that ties rank in the order the miner produced them.
func NewRuleIndex(rules []eclat.Rule) *RuleIndex {
	idx := &RuleIndex{rules: make([]indexedRule, len(rules))}
	for i := range rules {
		r := &rules[i]
		ir := indexedRule{
			antecedent:  make([]string, len(r.Antecedent)),
			consequents: make([]string, len(r.Consequent)),
			score:       r.Score(),
		}
		for j, item := range r.Antecedent {
			ir.antecedent[j] = normalizeSong(SongName(item))
		}
		for j, item := range r.Consequent {
			ir.consequents[j] = SongName(item)
		}
		idx.rules[i] = ir
	}
	return idx
}

// Len returns the number of indexed rules.
func (idx *RuleIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.rules)
}

// Recommend returns up to topN songs suggested by rules whose whole
// antecedent is among songs. Input songs are never suggested and each
// song keeps the highest score of any rule that produced it.
func (idx *RuleIndex) Recommend(songs []string, topN int) []Recommendation {
	recs := make([]Recommendation, 0, topN)
	if idx == nil || topN < 1 {
		return recs
	}

	input := make(map[string]struct{}, len(songs))
	for _, s := range songs {
		input[normalizeSong(s)] = struct{}{}
	}

	position := make(map[string]int)
	for i := range idx.rules {
		r := &idx.rules[i]
		if !r.matches(input) {
			continue
		}
		for _, song := range r.consequents {
			if _, given := input[normalizeSong(song)]; given {
				continue
			}
			if pos, seen := position[song]; seen {
				if r.score > recs[pos].Score {
					recs[pos].Score = r.score
				}
				continue
			}
			position[song] = len(recs)
			recs = append(recs, Recommendation{Song: song, Score: r.score})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > topN {
		recs = recs[:topN]
	}
	return recs
}

func (r *indexedRule) matches(input map[string]struct{}) bool {
	for _, name := range r.antecedent {
		if _, ok := input[name]; !ok {
			return false
		}
	}
	return true
}

// normalizedKey is the cache identity of an input: normalized, sorted,
// de-duplicated song names.
func normalizedKey(songs []string) []string {
	seen := make(map[string]struct{}, len(songs))
	out := make([]string, 0, len(songs))
	for _, s := range songs {
		n := normalizeSong(s)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

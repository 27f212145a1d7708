// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"math"
	"sort"
)

// MaxItemsetSize is the largest itemset the miner will ever emit.
const MaxItemsetSize = 5

// Itemset is a frequent itemset with its support.
// Items are in canonical (lexicographic) order.
type Itemset struct {
	// Items are the members of the itemset.
	Items []string

	// Support is the fraction of transactions containing every item.
	Support float64

	// tids are the transactions containing every item.
	tids TIDList
}

// Size returns the number of items in the itemset.
func (is Itemset) Size() int {
	return len(is.Items)
}

// MinCount converts a relative support threshold into a transaction count.
// The product is truncated, so 0.05 of 39 transactions is 1, not 2.
func MinCount(minSupport float64, n int) int {
	return int(math.Floor(minSupport * float64(n)))
}

// miner carries the per-run state of one depth-first search.
type miner struct {
	index    Index
	n        int
	minCount int
	maxSize  int
	out      []Itemset
}

// MineItemsets returns every itemset of size 1..maxSize whose tid-list
// reaches floor(minSupport * n) transactions. A maxSize below 1 means
// MaxItemsetSize.
func MineItemsets(index Index, n int, minSupport float64, maxSize int) []Itemset {
	if maxSize < 1 {
		maxSize = MaxItemsetSize
	}

	m := &miner{
		index:    index,
		n:        n,
		minCount: MinCount(minSupport, n),
		maxSize:  maxSize,
		out:      make([]Itemset, 0, len(index)),
	}

	// Size-1 candidates, in canonical order
	items := make([]string, 0, len(index))
	for item, tids := range index {
		if len(tids) >= m.minCount {
			items = append(items, item)
		}
	}
	sort.Strings(items)

	for _, item := range items {
		m.emit([]string{item}, index[item])
	}

	if maxSize < 2 {
		return m.out
	}

	for i, item := range items {
		m.expand([]string{item}, index[item], items[i+1:])
	}

	return m.out
}

// expand extends prefix with each candidate in order. Candidates all sort
// after the last prefix item, so every itemset is produced exactly once.
func (m *miner) expand(prefix []string, prefixTIDs TIDList, candidates []string) {
	for i, item := range candidates {
		tids := prefixTIDs.Intersect(m.index[item])
		if len(tids) < m.minCount {
			// No superset reached through this item can be frequent
			continue
		}

		itemset := make([]string, len(prefix)+1)
		copy(itemset, prefix)
		itemset[len(prefix)] = item

		m.emit(itemset, tids)

		if len(itemset) < m.maxSize {
			m.expand(itemset, tids, candidates[i+1:])
		}
	}
}

func (m *miner) emit(items []string, tids TIDList) {
	m.out = append(m.out, Itemset{
		Items:   items,
		Support: m.support(len(tids)),
		tids:    tids,
	})
}

func (m *miner) support(count int) float64 {
	if m.n == 0 {
		return 0
	}
	return float64(count) / float64(m.n)
}

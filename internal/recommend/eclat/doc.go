// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package eclat mines frequent itemsets and association rules from playlists.
//
// # Algorithm
//
// Eclat works on a vertical layout: instead of scanning transactions, it
// keeps for every item the sorted list of transaction ids (tid-list) that
// contain it. The support of an itemset is the length of the intersection
// of its members' tid-lists.
//
//  1. BuildIndex turns the transactions into item -> tid-list.
//  2. MineItemsets keeps the items reaching min_count = floor(min_support * N),
//     sorts them, and extends prefixes depth-first with strictly later items.
//     A branch whose intersection falls below min_count is pruned, since
//     support is anti-monotonic.
//  3. GenerateRules splits every itemset of size >= 2 into every
//     antecedent/consequent pair and keeps those reaching min_confidence.
//  4. NewResult drops the tid-lists and packages itemsets, rules and counts.
//
// # Usage
//
//	result := eclat.Mine(transactions, 0.05, 0.3, eclat.MaxItemsetSize)
//	for _, rule := range result.Rules {
//	    fmt.Println(rule.Antecedent, "=>", rule.Consequent, rule.Confidence)
//	}
//
// # Thread Safety
//
// Every call allocates its own index, itemsets and rules. There is no
// package-level mutable state, so concurrent calls are safe as long as
// each caller owns its input. Mining is synchronous and not cancellable;
// callers needing a deadline run it in a worker goroutine and discard the
// result on timeout.
package eclat

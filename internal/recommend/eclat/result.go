// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

// FrequentItemset is the persisted view of an Itemset, without its tid-list.
type FrequentItemset struct {
	// Items are the members of the itemset in canonical order.
	Items []string `json:"items"`

	// Support is the fraction of transactions containing every item.
	Support float64 `json:"support"`
}

// Result is the outcome of one mining run.
type Result struct {
	// FrequentItemsets are all itemsets reaching the support threshold.
	FrequentItemsets []FrequentItemset `json:"frequent_itemsets"`

	// Rules are all rules reaching the confidence threshold.
	Rules []Rule `json:"rules"`

	// ItemsetCount is len(FrequentItemsets).
	ItemsetCount int `json:"itemset_count"`

	// RuleCount is len(Rules).
	RuleCount int `json:"rule_count"`
}

// NewResult packages itemsets and rules, dropping the tid-lists.
func NewResult(itemsets []Itemset, rules []Rule) *Result {
	frequent := make([]FrequentItemset, len(itemsets))
	for i, is := range itemsets {
		frequent[i] = FrequentItemset{
			Items:   is.Items,
			Support: is.Support,
		}
	}

	if rules == nil {
		rules = []Rule{}
	}

	return &Result{
		FrequentItemsets: frequent,
		Rules:            rules,
		ItemsetCount:     len(frequent),
		RuleCount:        len(rules),
	}
}

// Mine runs the full pipeline: vertical index, frequent itemsets, rules.
func Mine(transactions []Transaction, minSupport, minConfidence float64, maxItemsetSize int) *Result {
	index := BuildIndex(transactions)
	itemsets := MineItemsets(index, len(transactions), minSupport, maxItemsetSize)
	rules := GenerateRules(itemsets, minConfidence)
	return NewResult(itemsets, rules)
}

// Normalize replaces nil slices with empty ones so the result encodes as
// [] rather than null. Decoders such as gob drop empty slices.
func (r *Result) Normalize() *Result {
	if r.FrequentItemsets == nil {
		r.FrequentItemsets = []FrequentItemset{}
	}
	if r.Rules == nil {
		r.Rules = []Rule{}
	}
	r.ItemsetCount = len(r.FrequentItemsets)
	r.RuleCount = len(r.Rules)
	return r
}

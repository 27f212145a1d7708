// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"sort"
	"strings"
)

// DefaultConsequentSupport replaces the support of a consequent that is
// not a known frequent itemset when computing lift.
const DefaultConsequentSupport = 1e-4

// keySeparator joins items into a set key. Item keys are printable text.
const keySeparator = "\x1f"

// Rule is an association rule antecedent => consequent.
type Rule struct {
	// Antecedent is the condition side, in itemset order.
	Antecedent []string `json:"antecedent"`

	// Consequent is the remainder of the itemset, in itemset order.
	Consequent []string `json:"consequent"`

	// Support is the support of the whole itemset.
	Support float64 `json:"support"`

	// Confidence is support(itemset) / support(antecedent).
	Confidence float64 `json:"confidence"`

	// Lift is confidence / support(consequent).
	Lift float64 `json:"lift"`
}

// Score ranks a rule for recommendation purposes.
func (r Rule) Score() float64 {
	return r.Confidence * r.Lift
}

// GenerateRules enumerates every antecedent/consequent split of every
// itemset with at least two items and keeps the rules whose confidence
// reaches minConfidence. Duplicate rules are not removed.
func GenerateRules(itemsets []Itemset, minConfidence float64) []Rule {
	supports := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		supports[setKey(is.Items)] = is.Support
	}

	rules := make([]Rule, 0)
	for _, is := range itemsets {
		k := len(is.Items)
		if k < 2 {
			continue
		}

		for size := 1; size < k; size++ {
			forEachCombination(k, size, func(picked []int) {
				antecedent, consequent := split(is.Items, picked)

				// A zero support counts as missing; it only occurs when
				// minCount is 0 and would otherwise divide by zero.
				antecedentSupport, ok := supports[setKey(antecedent)]
				if !ok || antecedentSupport == 0 {
					return
				}

				confidence := is.Support / antecedentSupport
				if confidence < minConfidence {
					return
				}

				consequentSupport, ok := supports[setKey(consequent)]
				if !ok || consequentSupport == 0 {
					consequentSupport = DefaultConsequentSupport
				}

				rules = append(rules, Rule{
					Antecedent: antecedent,
					Consequent: consequent,
					Support:    is.Support,
					Confidence: confidence,
					Lift:       confidence / consequentSupport,
				})
			})
		}
	}

	return rules
}

// setKey identifies an itemset by its content regardless of item order.
func setKey(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return strings.Join(sorted, keySeparator)
}

// split partitions items into the picked positions and the rest,
// both keeping the original order.
func split(items []string, picked []int) (antecedent, consequent []string) {
	antecedent = make([]string, 0, len(picked))
	consequent = make([]string, 0, len(items)-len(picked))

	next := 0
	for i, item := range items {
		if next < len(picked) && picked[next] == i {
			antecedent = append(antecedent, item)
			next++
			continue
		}
		consequent = append(consequent, item)
	}

	return antecedent, consequent
}

// forEachCombination calls fn with every size-element subset of 0..n-1
// as ascending indices, in lexicographic order. The slice passed to fn is
// reused between calls.
func forEachCombination(n, size int, fn func(picked []int)) {
	if size < 1 || size > n {
		return
	}

	picked := make([]int, size)
	for i := range picked {
		picked[i] = i
	}

	for {
		fn(picked)

		// Find the rightmost position that can still advance
		i := size - 1
		for i >= 0 && picked[i] == n-size+i {
			i--
		}
		if i < 0 {
			return
		}

		picked[i]++
		for j := i + 1; j < size; j++ {
			picked[j] = picked[j-1] + 1
		}
	}
}

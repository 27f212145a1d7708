// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"sort"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestMine_WorkedExample(t *testing.T) {
	t.Parallel()

	result := Mine(workedExample(), 0.4, 0.5, MaxItemsetSize)

	if result.ItemsetCount != 6 {
		t.Errorf("ItemsetCount = %d, want 6", result.ItemsetCount)
	}
	if result.RuleCount != 6 {
		t.Errorf("RuleCount = %d, want 6", result.RuleCount)
	}
	if result.ItemsetCount != len(result.FrequentItemsets) {
		t.Errorf("ItemsetCount %d != len(FrequentItemsets) %d", result.ItemsetCount, len(result.FrequentItemsets))
	}
	if result.RuleCount != len(result.Rules) {
		t.Errorf("RuleCount %d != len(Rules) %d", result.RuleCount, len(result.Rules))
	}

	var found bool
	for _, r := range result.Rules {
		if ruleKey(r) == "A=>B" {
			found = true
			if !almostEqual(r.Confidence, 0.75) || !almostEqual(r.Lift, 0.9375) {
				t.Errorf("A=>B confidence=%v lift=%v, want 0.75 and 0.9375", r.Confidence, r.Lift)
			}
		}
	}
	if !found {
		t.Error("rule A=>B not generated")
	}
}

func TestMine_EmptyInput(t *testing.T) {
	t.Parallel()

	result := Mine([]Transaction{}, 0.05, 0.3, MaxItemsetSize)

	if result.ItemsetCount != 0 || result.RuleCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", result.ItemsetCount, result.RuleCount)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"frequent_itemsets":[],"rules":[],"itemset_count":0,"rule_count":0}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestMine_Deterministic(t *testing.T) {
	t.Parallel()

	txns := syntheticPlaylists(250, 3)

	canonical := func(r *Result) (itemsets, rules []string) {
		for _, is := range r.FrequentItemsets {
			itemsets = append(itemsets, strings.Join(is.Items, "|"))
		}
		for _, rule := range r.Rules {
			rules = append(rules, ruleKey(rule))
		}
		sort.Strings(itemsets)
		sort.Strings(rules)
		return itemsets, rules
	}

	firstSets, firstRules := canonical(Mine(txns, 0.2, 0.4, MaxItemsetSize))
	secondSets, secondRules := canonical(Mine(txns, 0.2, 0.4, MaxItemsetSize))

	if strings.Join(firstSets, ";") != strings.Join(secondSets, ";") {
		t.Error("itemsets differ between identical runs")
	}
	if strings.Join(firstRules, ";") != strings.Join(secondRules, ";") {
		t.Error("rules differ between identical runs")
	}
}

func TestMine_SizeCapPropagates(t *testing.T) {
	t.Parallel()

	items := Transaction{"a", "b", "c", "d"}
	result := Mine([]Transaction{items, items}, 0.5, 0, 2)

	for _, is := range result.FrequentItemsets {
		if len(is.Items) > 2 {
			t.Errorf("itemset %v exceeds max size 2", is.Items)
		}
	}
	for _, r := range result.Rules {
		if len(r.Antecedent)+len(r.Consequent) > 2 {
			t.Errorf("rule %s comes from an itemset above max size", ruleKey(r))
		}
	}
}

func TestResult_Normalize(t *testing.T) {
	t.Parallel()

	r := (&Result{ItemsetCount: 9, RuleCount: 9}).Normalize()
	if r.FrequentItemsets == nil || r.Rules == nil {
		t.Fatal("Normalize() left nil slices")
	}
	if r.ItemsetCount != 0 || r.RuleCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", r.ItemsetCount, r.RuleCount)
	}
}

func BenchmarkMine(b *testing.B) {
	txns := syntheticPlaylists(2000, 42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Mine(txns, 0.1, 0.3, MaxItemsetSize)
	}
}

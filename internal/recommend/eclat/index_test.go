// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"reflect"
	"testing"
)

// workedExample is the five-playlist fixture used across the package tests.
func workedExample() []Transaction {
	return []Transaction{
		{"A", "B"},
		{"A", "B"},
		{"A", "C"},
		{"B", "C"},
		{"A", "B", "C"},
	}
}

func TestBuildIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		transactions []Transaction
		want         Index
	}{
		{
			name:         "empty input",
			transactions: nil,
			want:         Index{},
		},
		{
			name:         "worked example",
			transactions: workedExample(),
			want: Index{
				"A": {0, 1, 2, 4},
				"B": {0, 1, 3, 4},
				"C": {2, 3, 4},
			},
		},
		{
			name: "duplicate items within a transaction are recorded once",
			transactions: []Transaction{
				{"x", "x", "y"},
				{"y", "y"},
			},
			want: Index{
				"x": {0},
				"y": {0, 1},
			},
		},
		{
			name: "items are case-sensitive",
			transactions: []Transaction{
				{"Yesterday,Beatles", "yesterday,beatles"},
			},
			want: Index{
				"Yesterday,Beatles": {0},
				"yesterday,beatles": {0},
			},
		},
		{
			name:         "empty transaction keeps its id",
			transactions: []Transaction{{}, {"a"}},
			want:         Index{"a": {1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := BuildIndex(tt.transactions)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTIDList_Intersect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b TIDList
		want TIDList
	}{
		{"both empty", TIDList{}, TIDList{}, TIDList{}},
		{"one empty", TIDList{1, 2}, TIDList{}, TIDList{}},
		{"disjoint", TIDList{0, 2, 4}, TIDList{1, 3, 5}, TIDList{}},
		{"identical", TIDList{1, 2, 3}, TIDList{1, 2, 3}, TIDList{1, 2, 3}},
		{"A and B", TIDList{0, 1, 2, 4}, TIDList{0, 1, 3, 4}, TIDList{0, 1, 4}},
		{"different lengths", TIDList{4}, TIDList{0, 1, 2, 3, 4, 5}, TIDList{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.a.Intersect(tt.b)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Intersect() = %v, want %v", got, tt.want)
			}
			// Intersection is symmetric
			if rev := tt.b.Intersect(tt.a); !reflect.DeepEqual(rev, tt.want) {
				t.Errorf("reverse Intersect() = %v, want %v", rev, tt.want)
			}
		})
	}
}

func TestTIDList_IntersectDoesNotAlias(t *testing.T) {
	t.Parallel()

	a := TIDList{1, 2, 3}
	b := TIDList{2, 3}
	got := a.Intersect(b)
	got[0] = 99

	if a[1] != 2 || b[0] != 2 {
		t.Errorf("Intersect() result aliases its inputs: a=%v b=%v", a, b)
	}
}

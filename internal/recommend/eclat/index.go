// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

// Transaction is an unordered collection of items, such as one playlist.
// Its id is its position in the input slice.
type Transaction []string

// TIDList is an ascending list of transaction ids without duplicates.
type TIDList []int

// Len returns the number of transactions in the list.
func (t TIDList) Len() int {
	return len(t)
}

// Intersect returns the ids present in both lists.
// Both inputs must be sorted ascending; the result is sorted too.
func (t TIDList) Intersect(other TIDList) TIDList {
	// Size the result by the shorter list
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	out := make(TIDList, 0, n)

	i, j := 0, 0
	for i < len(t) && j < len(other) {
		switch {
		case t[i] == other[j]:
			out = append(out, t[i])
			i++
			j++
		case t[i] < other[j]:
			i++
		default:
			j++
		}
	}

	return out
}

// Index maps every item to the tid-list of transactions containing it.
type Index map[string]TIDList

// BuildIndex builds the vertical index for the given transactions.
// Repeated items within one transaction are recorded once.
func BuildIndex(transactions []Transaction) Index {
	index := make(Index)

	for tid, txn := range transactions {
		for _, item := range txn {
			tids := index[item]
			// tids are appended in ascending order, so a duplicate can only be the tail
			if n := len(tids); n > 0 && tids[n-1] == tid {
				continue
			}
			index[item] = append(tids, tid)
		}
	}

	return index
}

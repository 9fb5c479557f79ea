package listview

import (
	"cmp"
	"slices"
	"strings"
)

// Rank of each kind in the ascending column order. Absent values sort after
// everything else.
var kindRank = map[Kind]int{
	KindNumber: 0,
	KindBool:   1,
	KindString: 2,
	KindList:   3,
	KindRecord: 4,
	KindNull:   5,
}

const missingRank = 6

// SortByColumn returns a copy of items sorted by the value at key.
// The ascending sort is stable. Descending is the reverse of the ascending
// result, so tied items appear in reverse of their original order.
func SortByColumn(items []FlatItem, key string, descending bool) []FlatItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b FlatItem) int {
		av, aok := a[key]
		bv, bok := b[key]
		return compareField(av, aok, bv, bok)
	})
	if descending {
		slices.Reverse(sorted)
	}
	return sorted
}

func compareField(a Value, aok bool, b Value, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return CompareValues(a, b)
}

// CompareValues is the ascending column order: numbers, then false before
// true, then strings byte-wise, then lists element by element, then null.
func CompareValues(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(kindRank[a.kind], kindRank[b.kind])
	}
	switch a.kind {
	case KindNumber:
		return cmp.Compare(a.num, b.num)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindList:
		for i := 0; i < len(a.list) && i < len(b.list); i++ {
			if c := CompareValues(a.list[i], b.list[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a.list), len(b.list))
	}
	return 0
}

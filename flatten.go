package listview

import (
	"maps"
	"slices"
)

// Flatten converts an item into a single-level record. Nested records are
// expanded in place, each child keyed as "<parent>.<child>". Lists and null
// values are leaves and are copied under their own key.
//
// Keys are visited in byte order at every level and later writes win, so a
// literal dotted key such as "a.b" replaces the nested path a -> b.
func Flatten(item Item) FlatItem {
	flat := make(FlatItem, len(item))
	flattenInto(flat, "", item)
	return flat
}

func flattenInto(dst FlatItem, prefix string, item Item) {
	for _, key := range slices.Sorted(maps.Keys(item)) {
		val := item[key]
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		if val.kind == KindRecord {
			flattenInto(dst, name, val.rec)
			continue
		}
		dst[name] = val
	}
}

// FlattenAll flattens every item independently, preserving order.
func FlattenAll(items []Item) []FlatItem {
	flat := make([]FlatItem, len(items))
	for i, item := range items {
		flat[i] = Flatten(item)
	}
	return flat
}

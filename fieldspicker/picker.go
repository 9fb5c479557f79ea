// Package fieldspicker keeps the ordered selection behind the list fields
// picker: which fields of a list are selected and in which order.
package fieldspicker

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/gnemet/listview"
)

// ErrOutOfRange is returned for an entry index or rank outside the entries.
var ErrOutOfRange = errors.New("out of range")

// Entry is one selectable field. Ranks of all entries form a dense
// zero-based permutation.
type Entry struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Rank     int    `json:"orderIndex"`
	Selected bool   `json:"selected"`
}

// Selection is the picker state: the field catalog in load order and one
// entry per catalog field, at the same index.
type Selection struct {
	Fields  []listview.Field `json:"fields"`
	Entries []Entry          `json:"entries"`
}

// Load orders the catalog with the selected fields first, in the order
// given, followed by the remaining fields by title. A nil selected list
// selects nothing.
func Load(fields []listview.Field, selected []listview.Field) Selection {
	pos := make(map[string]int, len(selected))
	for i, f := range selected {
		if _, dup := pos[f.InternalName]; !dup {
			pos[f.InternalName] = i
		}
	}
	position := func(f listview.Field) (int, bool) {
		i, ok := pos[f.InternalName]
		return i, ok
	}

	ordered := slices.Clone(fields)
	slices.SortStableFunc(ordered, func(a, b listview.Field) int {
		ai, aok := position(a)
		bi, bok := position(b)
		switch {
		case aok && bok:
			return cmp.Compare(ai, bi)
		case aok:
			return -1
		case bok:
			return 1
		}
		return cmp.Compare(a.Title, b.Title)
	})

	entries := make([]Entry, len(ordered))
	for i, f := range ordered {
		_, sel := position(f)
		entries[i] = Entry{
			Key:      f.InternalName,
			Text:     f.Title,
			Rank:     i,
			Selected: sel,
		}
	}
	return Selection{Fields: ordered, Entries: entries}
}

// Reorder moves the entry at index to newRank. Entries ranked between the
// old and new rank shift one slot toward the old rank; everything else
// keeps its rank. The input slice is not modified.
func Reorder(entries []Entry, index, newRank int) ([]Entry, error) {
	if index < 0 || index >= len(entries) {
		return nil, fmt.Errorf("%w: entry %d of %d", ErrOutOfRange, index, len(entries))
	}
	if newRank < 0 || newRank >= len(entries) {
		return nil, fmt.Errorf("%w: rank %d of %d", ErrOutOfRange, newRank, len(entries))
	}

	out := slices.Clone(entries)
	oldRank := out[index].Rank
	switch {
	case newRank == oldRank:
		return out, nil
	case newRank < oldRank:
		for i := range out {
			if i != index && out[i].Rank >= newRank && out[i].Rank < oldRank {
				out[i].Rank++
			}
		}
	default:
		for i := range out {
			if i != index && out[i].Rank > oldRank && out[i].Rank <= newRank {
				out[i].Rank--
			}
		}
	}
	out[index].Rank = newRank
	return out, nil
}

// Reorder applies Reorder to the entries and returns the new state with the
// resulting field selection.
func (s Selection) Reorder(index, newRank int) (Selection, []listview.Field, error) {
	entries, err := Reorder(s.Entries, index, newRank)
	if err != nil {
		return s, nil, err
	}
	next := Selection{Fields: s.Fields, Entries: entries}
	return next, next.Selected(), nil
}

// Toggle sets the selection flag of the entry at index.
func (s Selection) Toggle(index int, selected bool) (Selection, []listview.Field, error) {
	if index < 0 || index >= len(s.Entries) {
		return s, nil, fmt.Errorf("%w: entry %d of %d", ErrOutOfRange, index, len(s.Entries))
	}
	entries := slices.Clone(s.Entries)
	entries[index].Selected = selected
	next := Selection{Fields: s.Fields, Entries: entries}
	return next, next.Selected(), nil
}

// Selected returns the catalog records of the selected entries by rank.
func (s Selection) Selected() []listview.Field {
	byKey := make(map[string]listview.Field, len(s.Fields))
	for _, f := range s.Fields {
		byKey[f.InternalName] = f
	}

	picked := make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.Selected {
			picked = append(picked, e)
		}
	}
	slices.SortStableFunc(picked, func(a, b Entry) int { return cmp.Compare(a.Rank, b.Rank) })

	out := make([]listview.Field, 0, len(picked))
	for _, e := range picked {
		if f, ok := byKey[e.Key]; ok {
			out = append(out, f)
		}
	}
	return out
}

// RankOption is one choice of the rank dropdown. Keys are 1-based.
type RankOption struct {
	Key  int    `json:"key"`
	Text string `json:"text"`
}

// RankOptions lists the rank choices for n entries.
func RankOptions(n int) []RankOption {
	opts := make([]RankOption, n)
	for i := range opts {
		opts[i] = RankOption{Key: i + 1, Text: strconv.Itoa(i + 1)}
	}
	return opts
}

// SelectedKey is the rank dropdown key of the entry at index.
func (s Selection) SelectedKey(index int) (int, error) {
	if index < 0 || index >= len(s.Entries) {
		return 0, fmt.Errorf("%w: entry %d of %d", ErrOutOfRange, index, len(s.Entries))
	}
	return s.Entries[index].Rank + 1, nil
}

// RankFromKey converts a 1-based dropdown key into a rank.
func RankFromKey(key int) int { return key - 1 }

// Validate checks that entry ranks form a dense permutation of 0..len-1.
func Validate(entries []Entry) error {
	seen := make([]bool, len(entries))
	for i, e := range entries {
		if e.Rank < 0 || e.Rank >= len(entries) {
			return fmt.Errorf("%w: entry %d has rank %d", ErrOutOfRange, i, e.Rank)
		}
		if seen[e.Rank] {
			return fmt.Errorf("%w: rank %d is used twice", listview.ErrInvalidArgument, e.Rank)
		}
		seen[e.Rank] = true
	}
	return nil
}

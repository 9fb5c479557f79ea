package fieldspicker

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/gnemet/listview"
)

func catalog() []listview.Field {
	return []listview.Field{
		{InternalName: "Title", Title: "Title"},
		{InternalName: "Modified", Title: "Modified"},
		{InternalName: "Author", Title: "Created By"},
		{InternalName: "Status", Title: "Approval Status"},
	}
}

func keys(fields []listview.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.InternalName
	}
	return out
}

func TestLoadOrdersSelectedFirst(t *testing.T) {
	sel := Load(catalog(), []listview.Field{{InternalName: "Modified"}, {InternalName: "Title"}})

	assert.Equal(t, []string{"Modified", "Title", "Status", "Author"}, keys(sel.Fields))
	require.Len(t, sel.Entries, 4)
	for i, e := range sel.Entries {
		assert.Equal(t, i, e.Rank)
		assert.Equal(t, sel.Fields[i].InternalName, e.Key)
	}
	assert.True(t, sel.Entries[0].Selected)
	assert.True(t, sel.Entries[1].Selected)
	assert.False(t, sel.Entries[2].Selected)
	assert.Equal(t, []string{"Modified", "Title"}, keys(sel.Selected()))
}

func TestLoadWithoutSelection(t *testing.T) {
	sel := Load(catalog(), nil)
	assert.Equal(t, []string{"Status", "Author", "Modified", "Title"}, keys(sel.Fields))
	assert.Empty(t, sel.Selected())
}

func TestReorderMovesDown(t *testing.T) {
	entries := []Entry{
		{Key: "a", Rank: 0, Selected: true},
		{Key: "b", Rank: 1, Selected: true},
		{Key: "c", Rank: 2, Selected: false},
	}
	s := Selection{
		Fields:  []listview.Field{{InternalName: "a"}, {InternalName: "b"}, {InternalName: "c"}},
		Entries: entries,
	}

	next, selected, err := s.Reorder(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, ranks(next.Entries))
	assert.Equal(t, []string{"b", "a"}, keys(selected))

	// The input state is left untouched.
	assert.Equal(t, []int{0, 1, 2}, ranks(s.Entries))
}

func TestReorderMovesUp(t *testing.T) {
	entries := []Entry{{Rank: 0}, {Rank: 1}, {Rank: 2}, {Rank: 3}}
	got, err := Reorder(entries, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3, 1}, ranks(got))
}

func TestReorderSameRank(t *testing.T) {
	entries := []Entry{{Rank: 1}, {Rank: 0}}
	got, err := Reorder(entries, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ranks(got))
}

func TestReorderOutOfRange(t *testing.T) {
	entries := []Entry{{Rank: 0}, {Rank: 1}}
	_, err := Reorder(entries, 2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = Reorder(entries, -1, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = Reorder(entries, 0, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, _, err = Selection{Entries: entries}.Reorder(5, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestToggle(t *testing.T) {
	sel := Load(catalog(), []listview.Field{{InternalName: "Title"}})

	next, selected, err := sel.Toggle(2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", sel.Fields[2].InternalName}, keys(selected))

	next, selected, err = next.Toggle(0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{sel.Fields[2].InternalName}, keys(selected))
	assert.False(t, next.Entries[0].Selected)
	assert.True(t, sel.Entries[0].Selected)

	_, _, err = next.Toggle(9, true)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRankOptions(t *testing.T) {
	opts := RankOptions(3)
	require.Len(t, opts, 3)
	assert.Equal(t, RankOption{Key: 1, Text: "1"}, opts[0])
	assert.Equal(t, RankOption{Key: 3, Text: "3"}, opts[2])

	sel := Load(catalog(), nil)
	key, err := sel.SelectedKey(2)
	require.NoError(t, err)
	assert.Equal(t, 3, key)
	assert.Equal(t, 2, RankFromKey(key))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]Entry{{Rank: 1}, {Rank: 0}}))
	assert.ErrorIs(t, Validate([]Entry{{Rank: 0}, {Rank: 0}}), listview.ErrInvalidArgument)
	assert.ErrorIs(t, Validate([]Entry{{Rank: 0}, {Rank: 2}}), ErrOutOfRange)
}

func TestReorderKeepsPermutation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		perm := rapid.Permutation(seq(n)).Draw(t, "perm")
		entries := make([]Entry, n)
		for i, r := range perm {
			entries[i] = Entry{Rank: r, Selected: rapid.Bool().Draw(t, "selected")}
		}
		index := rapid.IntRange(0, n-1).Draw(t, "index")
		newRank := rapid.IntRange(0, n-1).Draw(t, "rank")

		got, err := Reorder(entries, index, newRank)
		if err != nil {
			t.Fatalf("Reorder failed: %v", err)
		}
		if err := Validate(got); err != nil {
			t.Fatalf("Ranks are no longer a permutation: %v", err)
		}
		if got[index].Rank != newRank {
			t.Fatalf("Expected entry %d at rank %d, got %d", index, newRank, got[index].Rank)
		}

		// Relative order of the other entries is unchanged.
		others := func(es []Entry) []int {
			idx := []int{}
			for i := range es {
				if i != index {
					idx = append(idx, i)
				}
			}
			slices.SortFunc(idx, func(a, b int) int { return es[a].Rank - es[b].Rank })
			return idx
		}
		if !slices.Equal(others(entries), others(got)) {
			t.Fatalf("Other entries changed relative order")
		}
	})
}

func ranks(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Package listpicker builds the options and selection of the list picker.
package listpicker

import (
	"slices"

	"github.com/sahilm/fuzzy"

	"github.com/gnemet/listview"
)

// EmptyListKey is the key of the blank option offered in single-select mode.
const EmptyListKey = "NO_LIST_SELECTED"

// Option is one entry of the list dropdown.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Options maps lists to dropdown options in the order received. Single-select
// pickers get a leading blank option so the selection can be cleared.
func Options(lists []listview.List, multiSelect bool) []Option {
	opts := make([]Option, 0, len(lists)+1)
	if !multiSelect {
		opts = append(opts, Option{Key: EmptyListKey, Text: ""})
	}
	for _, l := range lists {
		opts = append(opts, Option{Key: l.ID, Text: l.Title})
	}
	return opts
}

// Selection is the picked list id, or ids in multi-select mode.
type Selection struct {
	Multi bool     `json:"multi"`
	Keys  []string `json:"keys"`
}

// Change applies a dropdown change and returns the new selection. In
// single-select mode the option replaces the selection; picking the blank
// option clears it.
func (s Selection) Change(opt Option, selected bool) Selection {
	if !s.Multi {
		if opt.Key == EmptyListKey || !selected {
			return Selection{}
		}
		return Selection{Keys: []string{opt.Key}}
	}

	keys := slices.DeleteFunc(slices.Clone(s.Keys), func(k string) bool { return k == opt.Key })
	if selected {
		keys = append(keys, opt.Key)
	}
	return Selection{Multi: true, Keys: keys}
}

// Value returns the single selected id, or "" when nothing is selected.
func (s Selection) Value() string {
	if len(s.Keys) == 0 {
		return ""
	}
	return s.Keys[0]
}

type optionTexts []Option

func (o optionTexts) String(i int) string { return o[i].Text }
func (o optionTexts) Len() int            { return len(o) }

// Search returns the options whose text fuzzily matches query, best match
// first. The blank option never matches. An empty query returns options unchanged.
func Search(options []Option, query string) []Option {
	if query == "" {
		return slices.Clone(options)
	}
	matches := fuzzy.FindFrom(query, optionTexts(options))
	out := make([]Option, 0, len(matches))
	for _, m := range matches {
		if options[m.Index].Key == EmptyListKey {
			continue
		}
		out = append(out, options[m.Index])
	}
	return out
}

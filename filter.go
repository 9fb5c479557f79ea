package listview

import (
	"regexp"
	"slices"
	"unicode/utf8"
)

// MinFilterLength is the shortest search text that filters anything.
const MinFilterLength = 3

// FilterItems keeps the items where at least one column holds a non-empty
// string matching text as a case-insensitive regular expression. Text that
// does not compile is matched literally. Text shorter than MinFilterLength
// keeps every item.
func FilterItems(items []FlatItem, columns []Column, text string) []FlatItem {
	if utf8.RuneCountInString(text) < MinFilterLength {
		return slices.Clone(items)
	}
	re := compileFilter(text)

	filtered := []FlatItem{}
	for _, item := range items {
		for _, col := range columns {
			v, ok := item[col.Key]
			if ok && v.kind == KindString && v.str != "" && re.MatchString(v.str) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}

func compileFilter(text string) *regexp.Regexp {
	if re, err := regexp.Compile("(?i)" + text); err == nil {
		return re
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))
}

package listview

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestSortByColumnStable(t *testing.T) {
	items := FlattenAll([]Item{
		{"Name": StringValue("a"), "Size": NumberValue(2)},
		{"Name": StringValue("b"), "Size": NumberValue(1)},
		{"Name": StringValue("c"), "Size": NumberValue(2)},
		{"Name": StringValue("d")},
		{"Name": StringValue("e"), "Size": NumberValue(1)},
	})

	asc := SortByColumn(items, "Size", false)
	if diff := cmp.Diff([]string{"b", "e", "a", "c", "d"}, names(asc)); diff != "" {
		t.Errorf("Ascending mismatch (-want +got):\n%s", diff)
	}

	desc := SortByColumn(items, "Size", true)
	if diff := cmp.Diff([]string{"d", "c", "a", "e", "b"}, names(desc)); diff != "" {
		t.Errorf("Descending mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, names(items)); diff != "" {
		t.Errorf("Expected input to be left untouched (-want +got):\n%s", diff)
	}
}

func TestSortByColumnMixedKinds(t *testing.T) {
	items := FlattenAll([]Item{
		{"Name": StringValue("missing")},
		{"Name": StringValue("null"), "V": NullValue()},
		{"Name": StringValue("str"), "V": StringValue("abc")},
		{"Name": StringValue("true"), "V": BoolValue(true)},
		{"Name": StringValue("false"), "V": BoolValue(false)},
		{"Name": StringValue("num"), "V": NumberValue(-1)},
		{"Name": StringValue("list"), "V": ListValue(StringValue("x"))},
	})
	got := SortByColumn(items, "V", false)
	want := []string{"num", "false", "true", "str", "list", "null", "missing"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("Mixed kind order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortByColumnDescendingIsReverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := flatItemsGen().Draw(t, "items")
		key := rapid.SampledFrom(groupFields).Draw(t, "key")

		asc := SortByColumn(items, key, false)
		desc := SortByColumn(items, key, true)
		slices.Reverse(asc)
		if diff := cmp.Diff(ids(asc), ids(desc)); diff != "" {
			t.Fatalf("Descending is not the reverse of ascending:\n%s", diff)
		}
	})
}

func TestCompareValuesTotalOrder(t *testing.T) {
	values := []Value{
		NullValue(), StringValue(""), StringValue("b"), NumberValue(0),
		NumberValue(3), BoolValue(true), ListValue(), ListValue(NumberValue(1)),
	}
	for _, a := range values {
		for _, b := range values {
			if CompareValues(a, b) != -CompareValues(b, a) {
				t.Errorf("Expected antisymmetric order for %v and %v", a, b)
			}
		}
	}
}

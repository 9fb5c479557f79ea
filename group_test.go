package listview

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func names(items []FlatItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it["Name"].Text()
	}
	return out
}

func TestGroupItemsSingleLevel(t *testing.T) {
	items := FlattenAll([]Item{
		{"Category": StringValue("B"), "Name": StringValue("x")},
		{"Category": StringValue("A"), "Name": StringValue("y")},
		{"Category": StringValue("A"), "Name": StringValue("z")},
	})

	got := GroupItems(items, []GroupSpec{{Field: "Category", Order: Ascending}})

	wantGroups := []*Group{
		{Key: StringKey("A"), Name: "A", StartIndex: 0, Count: 2},
		{Key: StringKey("B"), Name: "B", StartIndex: 2, Count: 1},
	}
	if diff := cmp.Diff(wantGroups, got.Groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y", "z", "x"}, names(got.Items)); diff != "" {
		t.Errorf("Item order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupItemsDescending(t *testing.T) {
	items := FlattenAll([]Item{
		{"Category": StringValue("A"), "Name": StringValue("a1")},
		{"Category": StringValue("C"), "Name": StringValue("c1")},
		{"Name": StringValue("none")},
		{"Category": StringValue("B"), "Name": StringValue("b1")},
		{"Category": StringValue("A"), "Name": StringValue("a2")},
	})

	got := GroupItems(items, []GroupSpec{{Field: "Category", Order: Descending}})

	var keys []string
	for _, g := range got.Groups {
		keys = append(keys, g.Name)
	}
	if diff := cmp.Diff([]string{EmptyGroupLabel, "C", "B", "A"}, keys); diff != "" {
		t.Errorf("Group order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"none", "c1", "b1", "a1", "a2"}, names(got.Items)); diff != "" {
		t.Errorf("Item order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupItemsNested(t *testing.T) {
	items := FlattenAll([]Item{
		{"Dept": StringValue("Ops"), "Level": NumberValue(2), "Name": StringValue("o2")},
		{"Dept": StringValue("Dev"), "Level": NumberValue(10), "Name": StringValue("d10")},
		{"Dept": StringValue("Dev"), "Level": NumberValue(2), "Name": StringValue("d2")},
		{"Dept": StringValue("Ops"), "Level": NumberValue(1), "Name": StringValue("o1")},
		{"Dept": StringValue("Dev"), "Level": NumberValue(2), "Name": StringValue("d2b")},
	})

	got := GroupItems(items, []GroupSpec{
		{Field: "Dept"},
		{Field: "Level", Order: Ascending},
	})

	want := []*Group{
		{Key: StringKey("Dev"), Name: "Dev", StartIndex: 0, Count: 3, Children: []*Group{
			{Key: NumberKey(2), Name: "2", StartIndex: 0, Count: 2, Level: 1},
			{Key: NumberKey(10), Name: "10", StartIndex: 2, Count: 1, Level: 1},
		}},
		{Key: StringKey("Ops"), Name: "Ops", StartIndex: 3, Count: 2, Children: []*Group{
			{Key: NumberKey(1), Name: "1", StartIndex: 3, Count: 1, Level: 1},
			{Key: NumberKey(2), Name: "2", StartIndex: 4, Count: 1, Level: 1},
		}},
	}
	if diff := cmp.Diff(want, got.Groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d2", "d2b", "d10", "o1", "o2"}, names(got.Items)); diff != "" {
		t.Errorf("Item order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupItemsNumbersBeforeStrings(t *testing.T) {
	items := FlattenAll([]Item{
		{"Code": StringValue("10"), "Name": StringValue("s10")},
		{"Code": NumberValue(9), "Name": StringValue("n9")},
		{"Code": NumberValue(10), "Name": StringValue("n10")},
		{"Code": NullValue(), "Name": StringValue("null")},
	})
	got := GroupItems(items, []GroupSpec{{Field: "Code"}})

	var keys []string
	for _, g := range got.Groups {
		keys = append(keys, g.Name)
	}
	if diff := cmp.Diff([]string{"9", "10", "10", EmptyGroupLabel}, keys); diff != "" {
		t.Errorf("Group order mismatch (-want +got):\n%s", diff)
	}
	if got.Groups[1].Key.Equal(got.Groups[2].Key) {
		t.Errorf("Expected number 10 and string \"10\" to be distinct groups")
	}
}

func TestGroupItemsMissingField(t *testing.T) {
	items := FlattenAll([]Item{
		{"Name": StringValue("a")},
		{"Name": StringValue("b")},
		{"Name": StringValue("c")},
	})
	got := GroupItems(items, []GroupSpec{{Field: "Nope"}})

	if len(got.Groups) != 1 {
		t.Fatalf("Expected a single group, got %d", len(got.Groups))
	}
	g := got.Groups[0]
	if !g.Key.IsEmpty() || g.Name != EmptyGroupLabel {
		t.Errorf("Expected the empty group, got %q", g.Name)
	}
	if g.StartIndex != 0 || g.Count != 3 {
		t.Errorf("Expected startIndex 0 count 3, got %d/%d", g.StartIndex, g.Count)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(got.Items)); diff != "" {
		t.Errorf("Item order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupItemsNoSpecs(t *testing.T) {
	items := FlattenAll([]Item{{"Name": StringValue("b")}, {"Name": StringValue("a")}})
	got := GroupItems(items, nil)
	if len(got.Groups) != 0 {
		t.Errorf("Expected no groups, got %d", len(got.Groups))
	}
	if diff := cmp.Diff([]string{"b", "a"}, names(got.Items)); diff != "" {
		t.Errorf("Item order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGroupSpecs(t *testing.T) {
	specs, err := ParseGroupSpecs([]string{"Dept:DESC,Level", "Author.Title:ascending"})
	if err != nil {
		t.Fatalf("ParseGroupSpecs failed: %v", err)
	}
	want := []GroupSpec{
		{Field: "Dept", Order: Descending},
		{Field: "Level", Order: Ascending},
		{Field: "Author.Title", Order: Ascending},
	}
	if diff := cmp.Diff(want, specs); diff != "" {
		t.Errorf("Specs mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseGroupSpecs([]string{"Dept:sideways"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a bad direction, got %v", err)
	}
}

func TestValidateGroupSpecs(t *testing.T) {
	known := []string{"Title", "Author", "Status"}

	if err := ValidateGroupSpecs([]GroupSpec{{Field: "Status"}, {Field: "Author.Title", Order: "descending"}}, known); err != nil {
		t.Errorf("Expected valid specs, got %v", err)
	}

	bad := [][]GroupSpec{
		{{Field: ""}},
		{{Field: "Status", Order: "up"}},
		{{Field: "Status"}, {Field: "Status"}},
		{{Field: "Priority"}},
	}
	for _, specs := range bad {
		if err := ValidateGroupSpecs(specs, known); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument for %v, got %v", specs, err)
		}
	}

	// Without a field catalog only the structure is checked.
	if err := ValidateGroupSpecs([]GroupSpec{{Field: "Priority"}}, nil); err != nil {
		t.Errorf("Expected unknown field to pass without catalog, got %v", err)
	}
}

var groupFields = []string{"Category", "Status", "Rank"}

func flatItemsGen() *rapid.Generator[[]FlatItem] {
	item := rapid.Custom(func(t *rapid.T) FlatItem {
		it := FlatItem{}
		for _, f := range groupFields {
			switch rapid.IntRange(0, 3).Draw(t, f+" kind") {
			case 1:
				it[f] = StringValue(rapid.SampledFrom([]string{"A", "B", "C", ""}).Draw(t, f))
			case 2:
				it[f] = NumberValue(float64(rapid.IntRange(-2, 3).Draw(t, f)))
			case 3:
				it[f] = NullValue()
			}
		}
		return it
	})
	return rapid.Custom(func(t *rapid.T) []FlatItem {
		items := rapid.SliceOfN(item, 0, 30).Draw(t, "items")
		for i := range items {
			items[i]["ID"] = NumberValue(float64(i))
		}
		return items
	})
}

func groupSpecsGen() *rapid.Generator[[]GroupSpec] {
	return rapid.Custom(func(t *rapid.T) []GroupSpec {
		fields := rapid.SliceOfNDistinct(rapid.SampledFrom(groupFields), 0, len(groupFields), rapid.ID[string]).Draw(t, "fields")
		specs := make([]GroupSpec, len(fields))
		for i, f := range fields {
			specs[i] = GroupSpec{Field: f, Order: Ascending}
			if rapid.Bool().Draw(t, "descending") {
				specs[i].Order = Descending
			}
		}
		return specs
	})
}

func ids(items []FlatItem) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it["ID"].AsNumber()
	}
	return out
}

func TestGroupItemsLeafSlicesReproduceOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := flatItemsGen().Draw(t, "items")
		specs := groupSpecsGen().Draw(t, "specs")
		got := GroupItems(items, specs)

		if len(got.Items) != len(items) {
			t.Fatalf("Expected %d items, got %d", len(items), len(got.Items))
		}
		if len(specs) == 0 {
			if len(got.Groups) != 0 {
				t.Fatalf("Expected no groups without specs")
			}
			if diff := cmp.Diff(ids(items), ids(got.Items)); diff != "" {
				t.Fatalf("Expected original order without specs:\n%s", diff)
			}
			return
		}

		var concat []FlatItem
		next := 0
		for _, leaf := range Leaves(got.Groups) {
			if leaf.StartIndex != next {
				t.Fatalf("Leaf %q starts at %d, expected %d", leaf.Name, leaf.StartIndex, next)
			}
			slice := got.Items[leaf.StartIndex : leaf.StartIndex+leaf.Count]
			for i := 1; i < len(slice); i++ {
				if slice[i-1]["ID"].AsNumber() > slice[i]["ID"].AsNumber() {
					t.Fatalf("Leaf %q does not keep the original relative order", leaf.Name)
				}
			}
			concat = append(concat, slice...)
			next += leaf.Count
		}
		if diff := cmp.Diff(ids(got.Items), ids(concat)); diff != "" {
			t.Fatalf("Leaf slices do not reproduce the item order:\n%s", diff)
		}
	})
}

func TestGroupItemsCountsSum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := flatItemsGen().Draw(t, "items")
		specs := groupSpecsGen().Draw(t, "specs")
		if len(specs) == 0 {
			return
		}
		got := GroupItems(items, specs)

		var check func(groups []*Group, start, count int)
		check = func(groups []*Group, start, count int) {
			sum := 0
			for _, g := range groups {
				if g.StartIndex != start+sum {
					t.Fatalf("Group %q starts at %d, expected %d", g.Name, g.StartIndex, start+sum)
				}
				if len(g.Children) > 0 {
					check(g.Children, g.StartIndex, g.Count)
				}
				sum += g.Count
			}
			if sum != count {
				t.Fatalf("Group counts sum to %d, expected %d", sum, count)
			}
		}
		check(got.Groups, 0, len(items))
	})
}

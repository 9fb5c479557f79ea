package listview

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// EmptyGroupLabel names the group of items that have no value for the grouped field.
const EmptyGroupLabel = "Empty Group Label"

// Direction is the sort order of one grouping level.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc, ascending, desc and descending in any case.
// An empty string means ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
}

// IsDescending reports whether d orders groups from high to low.
func (d Direction) IsDescending() bool {
	dir, err := ParseDirection(string(d))
	return err == nil && dir == Descending
}

// GroupSpec is one level of nesting. Index 0 of a spec list is the outermost group.
type GroupSpec struct {
	Field string    `json:"name" yaml:"name"`
	Order Direction `json:"order,omitempty" yaml:"order,omitempty"`
}

func (s GroupSpec) String() string {
	if s.IsDescending() {
		return s.Field + ":desc"
	}
	return s.Field + ":asc"
}

// IsDescending reports whether the level is ordered high to low.
func (s GroupSpec) IsDescending() bool {
	return s.Order.IsDescending()
}

// ParseGroupSpecs reads "field:dir" terms. Each argument may hold several
// comma separated terms; the direction part is optional.
func ParseGroupSpecs(terms []string) ([]GroupSpec, error) {
	var specs []GroupSpec
	for _, t := range terms {
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			field, dir, _ := strings.Cut(part, ":")
			order, err := ParseDirection(dir)
			if err != nil {
				return nil, err
			}
			specs = append(specs, GroupSpec{Field: strings.TrimSpace(field), Order: order})
		}
	}
	return specs, nil
}

// ValidateGroupSpecs rejects specs that would otherwise be silently grouped
// under the empty label. When known is non-empty every field must be one of
// its entries, or a dotted path below one of them.
func ValidateGroupSpecs(specs []GroupSpec, known []string) error {
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if strings.TrimSpace(s.Field) == "" {
			return fmt.Errorf("%w: group spec %d has no field", ErrInvalidArgument, i)
		}
		if _, err := ParseDirection(string(s.Order)); err != nil {
			return fmt.Errorf("group spec %q: %w", s.Field, err)
		}
		if seen[s.Field] {
			return fmt.Errorf("%w: field %q is grouped twice", ErrInvalidArgument, s.Field)
		}
		seen[s.Field] = true
		if len(known) > 0 && !knownField(s.Field, known) {
			return fmt.Errorf("%w: unknown group field %q", ErrInvalidArgument, s.Field)
		}
	}
	return nil
}

func knownField(field string, known []string) bool {
	for _, k := range known {
		if field == k || strings.HasPrefix(field, k+".") {
			return true
		}
	}
	return false
}

type keyKind int

const (
	keyNumber keyKind = iota
	keyString
	keyEmpty
)

// GroupKey identifies a partition. Keys order numbers first (numerically),
// then strings (byte-wise), then the empty group.
type GroupKey struct {
	kind keyKind
	num  float64
	str  string
}

// EmptyKey is the key of items lacking a value for the grouped field.
func EmptyKey() GroupKey { return GroupKey{kind: keyEmpty} }

// StringKey builds a string key.
func StringKey(s string) GroupKey { return GroupKey{kind: keyString, str: s} }

// NumberKey builds a numeric key. NaN is keyed by its text so it stays comparable.
func NumberKey(f float64) GroupKey {
	if math.IsNaN(f) {
		return StringKey(formatNumber(f))
	}
	return GroupKey{kind: keyNumber, num: f}
}

// KeyOf derives the group key for a field value. Bools and lists group by
// their text; null, records and absent values fall into the empty group.
func KeyOf(v Value, present bool) GroupKey {
	if !present {
		return EmptyKey()
	}
	switch v.kind {
	case KindString:
		return StringKey(v.str)
	case KindNumber:
		return NumberKey(v.num)
	case KindBool, KindList:
		return StringKey(v.Text())
	default:
		return EmptyKey()
	}
}

func (k GroupKey) IsEmpty() bool { return k.kind == keyEmpty }

func (k GroupKey) String() string {
	switch k.kind {
	case keyNumber:
		return formatNumber(k.num)
	case keyString:
		return k.str
	default:
		return EmptyGroupLabel
	}
}

// Compare orders keys; it returns -1, 0 or +1.
func (k GroupKey) Compare(o GroupKey) int {
	if k.kind != o.kind {
		return cmp.Compare(k.kind, o.kind)
	}
	switch k.kind {
	case keyNumber:
		return cmp.Compare(k.num, o.num)
	case keyString:
		return strings.Compare(k.str, o.str)
	}
	return 0
}

func (k GroupKey) Equal(o GroupKey) bool { return k.Compare(o) == 0 }

func (k GroupKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Group is one partition of the reordered item sequence.
type Group struct {
	Key        GroupKey `json:"key"`
	Name       string   `json:"name"`
	StartIndex int      `json:"startIndex"`
	Count      int      `json:"count"`
	Level      int      `json:"level"`
	Children   []*Group `json:"children,omitempty"`
}

// Grouping is the output of GroupItems: the items reordered so that every
// group is a contiguous slice, plus the group tree describing those slices.
type Grouping struct {
	Items  []FlatItem `json:"items"`
	Groups []*Group   `json:"groups,omitempty"`
}

// GroupItems partitions items by each spec in turn. Items keep their
// relative order inside a group. With no specs the items are returned in
// their original order and no groups are produced.
func GroupItems(items []FlatItem, specs []GroupSpec) Grouping {
	return groupLevel(items, specs, 0, 0)
}

func groupLevel(items []FlatItem, specs []GroupSpec, level, startIndex int) Grouping {
	if len(specs) == 0 || level >= len(specs) {
		return Grouping{Items: slices.Clone(items)}
	}

	spec := specs[level]
	partitions := make(map[GroupKey][]FlatItem)
	keys := []GroupKey{}
	for _, item := range items {
		v, ok := item[spec.Field]
		key := KeyOf(v, ok)
		if _, exists := partitions[key]; !exists {
			keys = append(keys, key)
		}
		partitions[key] = append(partitions[key], item)
	}

	slices.SortFunc(keys, GroupKey.Compare)
	if spec.IsDescending() {
		slices.Reverse(keys)
	}

	out := Grouping{
		Items:  make([]FlatItem, 0, len(items)),
		Groups: make([]*Group, 0, len(keys)),
	}
	for _, key := range keys {
		part := partitions[key]
		group := &Group{
			Key:        key,
			Name:       key.String(),
			StartIndex: startIndex,
			Count:      len(part),
			Level:      level,
		}
		if level+1 < len(specs) {
			sub := groupLevel(part, specs, level+1, startIndex)
			out.Items = append(out.Items, sub.Items...)
			group.Children = sub.Groups
		} else {
			out.Items = append(out.Items, part...)
		}
		startIndex += len(part)
		out.Groups = append(out.Groups, group)
	}
	return out
}

// Leaves returns the innermost groups in display order.
func Leaves(groups []*Group) []*Group {
	var leaves []*Group
	for _, g := range groups {
		if len(g.Children) == 0 {
			leaves = append(leaves, g)
			continue
		}
		leaves = append(leaves, Leaves(g.Children)...)
	}
	return leaves
}

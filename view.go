package listview

import (
	"slices"
	"unicode/utf8"
)

// Icon column constants, matching the fileType column of the list view.
const (
	IconColumnKey   = "fileType"
	IconColumnName  = "File Type"
	IconColumnIcon  = "Page"
	IconColumnWidth = 16
)

// ViewField configures one displayed column.
type ViewField struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Sorting     bool   `json:"sorting,omitempty" yaml:"sorting,omitempty"`
	MaxWidth    int    `json:"maxWidth,omitempty" yaml:"maxWidth,omitempty"`
}

// Label is the column header text.
func (f ViewField) Label() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Name
}

// Column describes how a column is rendered in the list view
type Column struct {
	Key                string `json:"key"`
	Name               string `json:"name"`
	FieldName          string `json:"fieldName"`
	IconName           string `json:"iconName,omitempty"`
	IconOnly           bool   `json:"isIconOnly,omitempty"`
	IconField          string `json:"iconField,omitempty"` // item field holding the file path
	MinWidth           int    `json:"minWidth"`
	MaxWidth           int    `json:"maxWidth"`
	Sortable           bool   `json:"sortable"`
	IsSorted           bool   `json:"isSorted"`
	IsSortedDescending bool   `json:"isSortedDescending"`

	sortSet bool
}

// Props is the input of a list view. A new set of props rebuilds the view.
type Props struct {
	List             string      `json:"list,omitempty"`
	Items            []Item      `json:"items"`
	ViewFields       []ViewField `json:"viewFields,omitempty"`
	GroupByFields    []GroupSpec `json:"groupByFields,omitempty"`
	IconFieldName    string      `json:"iconFieldName,omitempty"`
	ShowFilter       bool        `json:"showFilter,omitempty"`
	ContainerWidth   int         `json:"containerWidth,omitempty"`
	DefaultSelection []int       `json:"defaultSelection,omitempty"`

	// KnownFields are the fields of the list that may be grouped by. Empty
	// means the group fields are not checked against the list.
	KnownFields []string `json:"knownFields,omitempty"`
}

// View is the processed state of a list view: flattened items in display
// order, the column set and the group tree.
type View struct {
	props      Props
	items      []FlatItem
	columns    []Column
	groups     []*Group
	filterText string
}

// NewView validates the group specs and processes props.
func NewView(p Props) (*View, error) {
	v := &View{}
	if err := v.Update(p); err != nil {
		return nil, err
	}
	return v, nil
}

// Update replaces the props and rebuilds items, columns and groups.
// Any sort applied through ColumnClick is discarded.
func (v *View) Update(p Props) error {
	if err := ValidateGroupSpecs(p.GroupByFields, nil); err != nil {
		return err
	}
	v.props = p
	v.columns = buildColumns(p)
	v.applyGrouping(FlattenAll(p.Items))
	return nil
}

func buildColumns(p Props) []Column {
	var columns []Column
	if p.IconFieldName != "" {
		columns = append(columns, Column{
			Key:       IconColumnKey,
			Name:      IconColumnName,
			FieldName: IconColumnKey,
			IconName:  IconColumnIcon,
			IconOnly:  true,
			IconField: p.IconFieldName,
			MinWidth:  IconColumnWidth,
			MaxWidth:  IconColumnWidth,
		})
	}
	if len(p.ViewFields) == 0 {
		return columns
	}

	maxWidth := p.ContainerWidth / len(p.ViewFields)
	for _, f := range p.ViewFields {
		col := Column{
			Key:       f.Name,
			Name:      f.Label(),
			FieldName: f.Name,
			MinWidth:  utf8.RuneCountInString(f.Label()) * 6,
			MaxWidth:  maxWidth,
			Sortable:  f.Sorting,
		}
		if f.MaxWidth > 0 {
			col.MaxWidth = f.MaxWidth
		}
		columns = append(columns, col)
	}
	return columns
}

func (v *View) applyGrouping(items []FlatItem) {
	g := GroupItems(items, v.props.GroupByFields)
	if len(g.Groups) > 0 {
		v.items = g.Items
		v.groups = g.Groups
		return
	}
	v.items = items
	v.groups = nil
}

// ColumnClick sorts by the clicked column when its view field allows sorting.
// A column is sorted ascending the first time; afterwards each click flips
// its direction. It reports whether the items were re-sorted.
func (v *View) ColumnClick(key string) bool {
	idx := v.columnIndex(key)
	if idx < 0 || !v.sortable(key) {
		return false
	}
	col := v.columns[idx]
	descending := false
	if col.sortSet {
		descending = !col.IsSortedDescending
	}
	return v.SortBy(key, descending)
}

// SortBy sorts by key in the given direction and regroups the result.
func (v *View) SortBy(key string, descending bool) bool {
	if !v.sortable(key) {
		return false
	}
	sorted := SortByColumn(v.items, key, descending)
	for i := range v.columns {
		c := &v.columns[i]
		c.IsSorted = c.Key == key
		c.IsSortedDescending = c.Key == key && descending
		c.sortSet = true
	}
	v.applyGrouping(sorted)
	return true
}

func (v *View) sortable(key string) bool {
	i := slices.IndexFunc(v.props.ViewFields, func(f ViewField) bool { return f.Name == key })
	return i >= 0 && v.props.ViewFields[i].Sorting
}

func (v *View) columnIndex(key string) int {
	return slices.IndexFunc(v.columns, func(c Column) bool { return c.Key == key })
}

// SetFilter stores the search box text.
func (v *View) SetFilter(text string) { v.filterText = text }

func (v *View) FilterText() string { return v.filterText }

func (v *View) filtering() bool {
	return v.props.ShowFilter && utf8.RuneCountInString(v.filterText) >= MinFilterLength
}

// Items returns the items in display order, ignoring the filter.
func (v *View) Items() []FlatItem { return v.items }

// Groups returns the group tree, or nil when the view is not grouped.
func (v *View) Groups() []*Group { return v.groups }

// Columns returns a copy of the column set.
func (v *View) Columns() []Column { return slices.Clone(v.columns) }

// Props returns the props the view was built from.
func (v *View) Props() Props { return v.props }

// Visible returns what should be rendered: the items passing the filter,
// regrouped so that group offsets address the filtered sequence.
func (v *View) Visible() Grouping {
	if !v.filtering() {
		return Grouping{Items: v.items, Groups: v.groups}
	}
	filtered := FilterItems(v.items, v.columns, v.filterText)
	if v.groups == nil {
		return Grouping{Items: filtered}
	}
	return GroupItems(filtered, v.props.GroupByFields)
}

// DefaultSelection returns the requested default selection indices that
// address an existing item.
func (v *View) DefaultSelection() []int {
	var sel []int
	for _, i := range v.props.DefaultSelection {
		if i > -1 && i < len(v.items) {
			sel = append(sel, i)
		}
	}
	return sel
}

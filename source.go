package listview

import "context"

// OrderBy selects the ordering of Source.Lists.
type OrderBy int

const (
	ByTitle OrderBy = iota
	ByID
)

// LibsOptions filters and orders the lists returned by a Source.
type LibsOptions struct {
	OrderBy       OrderBy
	BaseTemplate  int   // 0 means any template
	IncludeHidden *bool // nil leaves hidden lists in
}

// List is a list or library of the site.
type List struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	BaseTemplate int    `json:"baseTemplate"`
}

// Field is one column definition of a list.
type Field struct {
	ID                           string   `json:"id"`
	InternalName                 string   `json:"internalName"`
	Title                        string   `json:"title"`
	TypeName                     string   `json:"typeName"`
	Sortable                     bool     `json:"sortable"`
	IsDependentLookup            bool     `json:"isDependentLookup,omitempty"`
	LookupField                  string   `json:"lookupField,omitempty"`
	LookupList                   string   `json:"lookupList,omitempty"`
	PrimaryFieldID               string   `json:"primaryFieldId,omitempty"`
	DependentLookupInternalNames []string `json:"dependentLookupInternalNames,omitempty"`
}

// Source retrieves lists, their fields and their items.
type Source interface {
	Lists(ctx context.Context, opts LibsOptions) ([]List, error)
	Fields(ctx context.Context, listTitle string) ([]Field, error)
	Items(ctx context.Context, listTitle string) ([]Item, error)
}

// SessionStore keeps views between requests. With runs fn while holding the
// session exclusively and returns ErrUnknownSession for unknown ids.
type SessionStore interface {
	Open(v *View) (string, error)
	With(id string, fn func(*View) error) error
}

// ViewFieldsFromCatalog maps list fields to view fields, one column per field.
func ViewFieldsFromCatalog(fields []Field) []ViewField {
	out := make([]ViewField, 0, len(fields))
	for _, f := range fields {
		out = append(out, ViewField{
			Name:        f.InternalName,
			DisplayName: f.Title,
			Sorting:     f.Sortable,
		})
	}
	return out
}

// FieldNames returns the internal names of fields.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.InternalName
	}
	return names
}

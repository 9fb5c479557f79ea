package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// RequestParams captures list, search, sort and grouping from the request
type RequestParams struct {
	List    string
	Search  string
	Sort    string // "field" behaves like a column click, "field:dir" is explicit
	Group   []GroupSpec
	Session string
}

// TableResult is the JSON document answered by the Handler
type TableResult struct {
	Session          string     `json:"session,omitempty"`
	List             string     `json:"list"`
	Items            []FlatItem `json:"items"`
	Groups           []*Group   `json:"groups,omitempty"`
	Columns          []Column   `json:"columns"`
	DefaultSelection []int      `json:"defaultSelection,omitempty"`
	TotalCount       int        `json:"totalCount"`
}

// Handler serves grouped, sorted and filtered list items as JSON
type Handler struct {
	Source         Source
	Sessions       SessionStore // optional; without it every request reloads
	ViewFields     []ViewField  // nil derives one column per list field
	GroupBy        []GroupSpec  // used when the request names no grouping
	IconFieldName  string
	ShowFilter     bool
	ContainerWidth int

	// Layouts replaces the settings above for the lists it names. Its List,
	// Items and KnownFields are ignored.
	Layouts map[string]Props
}

func NewHandler(src Source, sessions SessionStore) *Handler {
	return &Handler{
		Source:     src,
		Sessions:   sessions,
		ShowFilter: true,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := h.ParseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.FetchData(r.Context(), params)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidArgument):
			status = http.StatusBadRequest
		case errors.Is(err, ErrNotFound):
			status = http.StatusNotFound
		}
		slog.Error("List view request failed", "list", params.List, "session", params.Session, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Failed to encode list view", "list", result.List, "error", err)
	}
}

func (h *Handler) ParseParams(r *http.Request) (RequestParams, error) {
	q := r.URL.Query()
	groups, err := ParseGroupSpecs(q["group"])
	if err != nil {
		return RequestParams{}, err
	}
	return RequestParams{
		List:    strings.TrimSpace(q.Get("list")),
		Search:  q.Get("search"),
		Sort:    strings.TrimSpace(q.Get("sort")),
		Group:   groups,
		Session: q.Get("session"),
	}, nil
}

// FetchData resumes the view of p.Session when it is still alive, otherwise
// loads the list and opens a new session.
func (h *Handler) FetchData(ctx context.Context, p RequestParams) (*TableResult, error) {
	if p.Session != "" && h.Sessions != nil {
		var result *TableResult
		err := h.Sessions.With(p.Session, func(v *View) error {
			if p.List != "" && p.List != v.Props().List {
				return fmt.Errorf("%w: session %s belongs to list %q", ErrInvalidArgument, p.Session, v.Props().List)
			}
			if err := h.apply(v, p); err != nil {
				return err
			}
			result = newTableResult(p.Session, v)
			return nil
		})
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrUnknownSession) {
			return nil, err
		}
		slog.Info("Session expired, reloading list", "session", p.Session, "list", p.List)
	}

	if p.List == "" {
		return nil, fmt.Errorf("%w: list is required", ErrInvalidArgument)
	}
	v, err := h.load(ctx, p)
	if err != nil {
		return nil, err
	}

	sid := ""
	if h.Sessions != nil {
		if sid, err = h.Sessions.Open(v); err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
	}
	return newTableResult(sid, v), nil
}

func (h *Handler) load(ctx context.Context, p RequestParams) (*View, error) {
	var (
		fields []Field
		items  []Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if fields, err = h.Source.Fields(gctx, p.List); err != nil {
			return fmt.Errorf("load fields of %q: %w", p.List, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = h.Source.Items(gctx, p.List); err != nil {
			return fmt.Errorf("load items of %q: %w", p.List, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	props, ok := h.Layouts[p.List]
	if !ok {
		props = Props{
			ViewFields:     h.ViewFields,
			GroupByFields:  h.GroupBy,
			IconFieldName:  h.IconFieldName,
			ShowFilter:     h.ShowFilter,
			ContainerWidth: h.ContainerWidth,
		}
	}
	props.List = p.List
	props.Items = items
	props.KnownFields = FieldNames(fields)
	if len(p.Group) > 0 {
		props.GroupByFields = p.Group
	}
	specs := props.GroupByFields
	if err := ValidateGroupSpecs(specs, props.KnownFields); err != nil {
		return nil, err
	}
	if props.ViewFields == nil {
		props.ViewFields = ViewFieldsFromCatalog(fields)
	}

	v, err := NewView(props)
	if err != nil {
		return nil, err
	}
	p.Group = nil
	if err := h.apply(v, p); err != nil {
		return nil, err
	}
	slog.Info("Loaded list view", "list", p.List, "items", len(items), "fields", len(fields), "groups", len(specs))
	return v, nil
}

// apply carries the request's grouping, sort and search onto an existing view.
func (h *Handler) apply(v *View, p RequestParams) error {
	if len(p.Group) > 0 {
		props := v.Props()
		if err := ValidateGroupSpecs(p.Group, props.KnownFields); err != nil {
			return err
		}
		props.GroupByFields = p.Group
		if err := v.Update(props); err != nil {
			return err
		}
	}
	if p.Sort != "" {
		field, dir, explicit := strings.Cut(p.Sort, ":")
		var sorted bool
		if !explicit {
			sorted = v.ColumnClick(field)
		} else {
			d, err := ParseDirection(dir)
			if err != nil {
				return err
			}
			sorted = v.SortBy(field, d.IsDescending())
		}
		if !sorted {
			return fmt.Errorf("%w: column %q is not sortable", ErrInvalidArgument, field)
		}
	}
	v.SetFilter(p.Search)
	return nil
}

func newTableResult(sid string, v *View) *TableResult {
	visible := v.Visible()
	return &TableResult{
		Session:          sid,
		List:             v.Props().List,
		Items:            visible.Items,
		Groups:           visible.Groups,
		Columns:          v.Columns(),
		DefaultSelection: v.DefaultSelection(),
		TotalCount:       len(v.Items()),
	}
}

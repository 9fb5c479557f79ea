package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/gnemet/listview"
	"github.com/gnemet/listview/fieldspicker"
	"github.com/gnemet/listview/listpicker"
)

// pickerAPI serves the list and fields pickers.
type pickerAPI struct {
	source listview.Source
}

type listsResponse struct {
	Options  []listpicker.Option `json:"options"`
	Selected string              `json:"selected,omitempty"`
}

type fieldsResponse struct {
	Selection   fieldspicker.Selection    `json:"selection"`
	RankOptions []fieldspicker.RankOption `json:"rankOptions"`
	Selected    []listview.Field          `json:"selected"`
}

type reorderRequest struct {
	Selection fieldspicker.Selection `json:"selection"`
	Index     int                    `json:"index"`
	Key       int                    `json:"key"` // 1-based rank option key
}

type toggleRequest struct {
	Selection fieldspicker.Selection `json:"selection"`
	Index     int                    `json:"index"`
	Selected  bool                   `json:"selected"`
}

func parseLibsOptions(r *http.Request) (listview.LibsOptions, error) {
	q := r.URL.Query()
	var opts listview.LibsOptions
	if t := q.Get("template"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil {
			return opts, fmt.Errorf("%w: template %q", listview.ErrInvalidArgument, t)
		}
		opts.BaseTemplate = n
	}
	if h := q.Get("hidden"); h != "" {
		b, err := strconv.ParseBool(h)
		if err != nil {
			return opts, fmt.Errorf("%w: hidden %q", listview.ErrInvalidArgument, h)
		}
		opts.IncludeHidden = &b
	}
	if strings.EqualFold(q.Get("order"), "id") {
		opts.OrderBy = listview.ByID
	}
	return opts, nil
}

func (a *pickerAPI) lists(w http.ResponseWriter, r *http.Request) {
	opts, err := parseLibsOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lists, err := a.source.Lists(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	multi, _ := strconv.ParseBool(q.Get("multi"))
	options := listpicker.Search(listpicker.Options(lists, multi), q.Get("q"))

	resp := listsResponse{Options: options}
	if !multi {
		sel := listpicker.Selection{}
		if cur := q.Get("selected"); cur != "" {
			sel = sel.Change(listpicker.Option{Key: cur}, true)
		}
		resp.Selected = sel.Value()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *pickerAPI) fields(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list := strings.TrimSpace(q.Get("list"))
	if list == "" {
		writeError(w, fmt.Errorf("%w: list is required", listview.ErrInvalidArgument))
		return
	}
	catalog, err := a.source.Fields(r.Context(), list)
	if err != nil {
		writeError(w, err)
		return
	}

	var selected []listview.Field
	for _, name := range strings.Split(q.Get("selected"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			selected = append(selected, listview.Field{InternalName: name})
		}
	}

	sel := fieldspicker.Load(catalog, selected)
	writeJSON(w, http.StatusOK, fieldsResponse{
		Selection:   sel,
		RankOptions: fieldspicker.RankOptions(len(sel.Entries)),
		Selected:    sel.Selected(),
	})
}

func (a *pickerAPI) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", listview.ErrInvalidArgument, err))
		return
	}
	if err := fieldspicker.Validate(req.Selection.Entries); err != nil {
		writeError(w, err)
		return
	}
	next, selected, err := req.Selection.Reorder(req.Index, fieldspicker.RankFromKey(req.Key))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{
		Selection:   next,
		RankOptions: fieldspicker.RankOptions(len(next.Entries)),
		Selected:    selected,
	})
}

func (a *pickerAPI) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", listview.ErrInvalidArgument, err))
		return
	}
	next, selected, err := req.Selection.Toggle(req.Index, req.Selected)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fieldsResponse{
		Selection:   next,
		RankOptions: fieldspicker.RankOptions(len(next.Entries)),
		Selected:    selected,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, listview.ErrInvalidArgument), errors.Is(err, fieldspicker.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, listview.ErrNotFound):
		status = http.StatusNotFound
	default:
		slog.Error("Picker request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

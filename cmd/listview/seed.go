package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gnemet/listview"
	"github.com/gnemet/listview/database/spstore"
)

type seedOptions struct {
	dsn          string
	list         string
	baseTemplate int
	hidden       bool
}

var seedOpts seedOptions

var seedCmd = &cobra.Command{
	Use:   "seed <items.json>",
	Short: "Load an item file into the Postgres store as a new list",
	Long: `Creates the store schema when missing, registers the list and one
field per top-level item key, then inserts the items in file order.
The connection string defaults to $LISTVIEW_DSN (read from .env if present).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		dsn := seedOpts.dsn
		if dsn == "" {
			dsn = os.Getenv("LISTVIEW_DSN")
		}
		if dsn == "" {
			return fmt.Errorf("%w: no --dsn given and LISTVIEW_DSN is empty", listview.ErrInvalidArgument)
		}
		if seedOpts.list == "" {
			return fmt.Errorf("%w: --list is required", listview.ErrInvalidArgument)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		items, err := listview.ParseItems(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		store, err := spstore.Open(dsn, 2, time.Minute, time.Hour)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		id, err := seed(ctx, store, seedOpts, items)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Seeded %d items into %q (%s)\n", len(items), seedOpts.list, id)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedOpts.dsn, "dsn", "", "Postgres connection string")
	f.StringVar(&seedOpts.list, "list", "", "title of the list to create")
	f.IntVar(&seedOpts.baseTemplate, "template", 100, "base template of the list")
	f.BoolVar(&seedOpts.hidden, "hidden", false, "mark the list hidden")
}

// seedStore is the part of spstore.Store used for seeding.
type seedStore interface {
	EnsureSchema(ctx context.Context) error
	AddList(ctx context.Context, l listview.List, hidden bool) error
	AddField(ctx context.Context, listID string, position int, f listview.Field) error
	AddItems(ctx context.Context, listID string, items []listview.Item) error
}

func seed(ctx context.Context, store seedStore, opts seedOptions, items []listview.Item) (string, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := store.AddList(ctx, listview.List{ID: id, Title: opts.list, BaseTemplate: opts.baseTemplate}, opts.hidden); err != nil {
		return "", err
	}
	for i, f := range inferFields(items) {
		if err := store.AddField(ctx, id, i, f); err != nil {
			return "", err
		}
	}
	if err := store.AddItems(ctx, id, items); err != nil {
		return "", err
	}
	return id, nil
}

// inferFields derives one field per top-level key in first-seen order, keys
// of one item taken alphabetically. Lists and records are not sortable.
func inferFields(items []listview.Item) []listview.Field {
	var fields []listview.Field
	index := map[string]int{}
	for _, it := range items {
		for _, key := range slices.Sorted(maps.Keys(it)) {
			v := it[key]
			if i, ok := index[key]; ok {
				if fields[i].TypeName == "Null" && !v.IsNull() {
					fields[i].TypeName, fields[i].Sortable = typeOf(v)
				}
				continue
			}
			typeName, sortable := typeOf(v)
			index[key] = len(fields)
			fields = append(fields, listview.Field{
				ID:           fmt.Sprintf("f%d", len(fields)+1),
				InternalName: key,
				Title:        key,
				TypeName:     typeName,
				Sortable:     sortable,
			})
		}
	}
	return fields
}

func typeOf(v listview.Value) (string, bool) {
	switch v.Kind() {
	case listview.KindString:
		return "Text", true
	case listview.KindNumber:
		return "Number", true
	case listview.KindBool:
		return "Boolean", true
	case listview.KindList:
		return "MultiChoice", false
	case listview.KindRecord:
		return "Lookup", false
	}
	return "Null", true
}

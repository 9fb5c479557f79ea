// Package spstore implements listview.Source over a Postgres database that
// mirrors the lists, fields and items of a site.
package spstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/gnemet/listview"
)

//go:embed schema.sql
var schemaSQL string

// ErrListNotFound is returned when no list has the requested title. It
// wraps listview.ErrNotFound.
var ErrListNotFound = fmt.Errorf("list %w", listview.ErrNotFound)

// Store reads lists, fields and items from Postgres.
type Store struct {
	db *sql.DB
}

var _ listview.Source = (*Store)(nil)

// Open connects to Postgres and tunes the connection pool.
func Open(connStr string, maxConns int, idleTimeout, maxLifetime time.Duration) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(idleTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the lists, fields and list_items tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// buildListsQuery renders the lists query for opts.
func buildListsQuery(opts listview.LibsOptions) (string, []interface{}) {
	var where []string
	var args []interface{}

	if opts.BaseTemplate != 0 {
		args = append(args, opts.BaseTemplate)
		where = append(where, fmt.Sprintf("base_template = $%d", len(args)))
	}
	if opts.IncludeHidden != nil && !*opts.IncludeHidden {
		where = append(where, "hidden = false")
	}

	query := "SELECT id, title, base_template FROM lists"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if opts.OrderBy == listview.ByID {
		query += " ORDER BY id"
	} else {
		query += " ORDER BY title"
	}
	return query, args
}

// Lists returns the lists matching opts.
func (s *Store) Lists(ctx context.Context, opts listview.LibsOptions) ([]listview.List, error) {
	query, args := buildListsQuery(opts)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lists query failed: %w", err)
	}
	defer rows.Close()

	var lists []listview.List
	for rows.Next() {
		var l listview.List
		if err := rows.Scan(&l.ID, &l.Title, &l.BaseTemplate); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

const fieldsQuery = `SELECT f.id, f.internal_name, f.title, f.type_name, f.sortable,
       f.is_dependent_lookup, f.lookup_field, f.lookup_list, f.primary_field_id,
       f.dependent_lookup_internal_names
  FROM fields f
  JOIN lists l ON l.id = f.list_id
 WHERE l.title = $1 AND f.hidden = false
 ORDER BY f.position, f.internal_name`

// Fields returns the visible fields of the list titled listTitle.
func (s *Store) Fields(ctx context.Context, listTitle string) ([]listview.Field, error) {
	rows, err := s.db.QueryContext(ctx, fieldsQuery, listTitle)
	if err != nil {
		return nil, fmt.Errorf("fields query failed: %w", err)
	}
	defer rows.Close()

	var fields []listview.Field
	for rows.Next() {
		var f listview.Field
		var deps []string
		if err := rows.Scan(&f.ID, &f.InternalName, &f.Title, &f.TypeName, &f.Sortable,
			&f.IsDependentLookup, &f.LookupField, &f.LookupList, &f.PrimaryFieldID,
			pq.Array(&deps)); err != nil {
			return nil, err
		}
		if len(deps) > 0 {
			f.DependentLookupInternalNames = deps
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		if err := s.requireList(ctx, listTitle); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

const itemsQuery = `SELECT i.data
  FROM list_items i
  JOIN lists l ON l.id = i.list_id
 WHERE l.title = $1
 ORDER BY i.id`

// Items returns the items of the list titled listTitle in storage order.
func (s *Store) Items(ctx context.Context, listTitle string) ([]listview.Item, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, itemsQuery, listTitle)
	if err != nil {
		return nil, fmt.Errorf("items query failed: %w", err)
	}
	defer rows.Close()

	var items []listview.Item
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		item, err := listview.ParseItem(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d of %q: %w", len(items), listTitle, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if err := s.requireList(ctx, listTitle); err != nil {
			return nil, err
		}
	}

	slog.Debug("Loaded list items", "list", listTitle, "count", len(items), "elapsed", time.Since(start))
	return items, nil
}

// AddList inserts or updates a list row.
func (s *Store) AddList(ctx context.Context, l listview.List, hidden bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (id, title, base_template, hidden) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, base_template = EXCLUDED.base_template, hidden = EXCLUDED.hidden`,
		l.ID, l.Title, l.BaseTemplate, hidden)
	if err != nil {
		return fmt.Errorf("failed to save list %q: %w", l.Title, err)
	}
	return nil
}

// AddField inserts or updates a field of list listID at position.
func (s *Store) AddField(ctx context.Context, listID string, position int, f listview.Field) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fields (id, list_id, internal_name, title, type_name, sortable, position,
		                     is_dependent_lookup, lookup_field, lookup_list, primary_field_id,
		                     dependent_lookup_internal_names)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (list_id, id) DO UPDATE SET internal_name = EXCLUDED.internal_name,
		     title = EXCLUDED.title, type_name = EXCLUDED.type_name, sortable = EXCLUDED.sortable,
		     position = EXCLUDED.position`,
		f.ID, listID, f.InternalName, f.Title, f.TypeName, f.Sortable, position,
		f.IsDependentLookup, f.LookupField, f.LookupList, f.PrimaryFieldID,
		pq.Array(f.DependentLookupInternalNames))
	if err != nil {
		return fmt.Errorf("failed to save field %q: %w", f.InternalName, err)
	}
	return nil
}

// AddItems appends items to list listID in a single transaction.
func (s *Store) AddItems(ctx context.Context, listID string, items []listview.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO list_items (list_id, data) VALUES ($1, $2)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		data, err := listview.RecordValue(item).MarshalJSON()
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, listID, string(data)); err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Store) requireList(ctx context.Context, listTitle string) error {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM lists WHERE title = $1", listTitle).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: list %q does not exist", ErrListNotFound, listTitle)
	}
	return err
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrDuplicate is returned by Create when the primary key already exists.
var ErrDuplicate = errors.New("record already exists")

// Filter is an exact-match conjunction over named columns.
type Filter map[string]any

// Patch is a partial update keyed by column name.
type Patch map[string]any

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// collection implements find/create/update for one table. Records of
// type T are moved in and out through the scan and values funcs, which
// must agree with columns on order.
type collection[T any] struct {
	table   string
	key     string
	columns []string
	// json columns are marshaled on write and unmarshaled by scan.
	json map[string]bool
	// mutable columns may appear in a Patch; every column may filter.
	mutable map[string]bool
	scan    func(rows *sql.Rows) (*T, error)
	values  func(*T) []any

	q   querier
	now func() time.Time
}

func (c *collection[T]) find(ctx context.Context, f Filter, limit int) ([]*T, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(c.columns...).
		From(entsql.Table(c.table)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("rowid"))

	if len(f) > 0 {
		preds := make([]*entsql.Predicate, 0, len(f))
		for _, col := range sortedKeys(f) {
			if !slices.Contains(c.columns, col) {
				return nil, fmt.Errorf("%s: unknown filter column %q", c.table, col)
			}
			preds = append(preds, entsql.EQ(col, f[col]))
		}
		sel.Where(entsql.And(preds...))
	}
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table, err)
	}
	return out, nil
}

// findOne returns the newest match or nil when nothing matches.
func (c *collection[T]) findOne(ctx context.Context, f Filter) (*T, error) {
	recs, err := c.find(ctx, f, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (c *collection[T]) create(ctx context.Context, rec *T) error {
	vals := c.values(rec)
	for i, col := range c.columns {
		if c.json[col] {
			enc, err := encodeJSON(vals[i])
			if err != nil {
				return fmt.Errorf("encode %s.%s: %w", c.table, col, err)
			}
			vals[i] = enc
		}
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(c.table).
		Columns(c.columns...).
		Values(vals...).
		Query()
	if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

// updateByID applies p to the record keyed by id, refreshing updated_at.
// It returns nil when no record has that id.
func (c *collection[T]) updateByID(ctx context.Context, id string, p Patch) (*T, error) {
	upd := entsql.Dialect(dialect.SQLite).
		Update(c.table).
		Set("updated_at", c.now().UTC()).
		Where(entsql.EQ(c.key, id))

	for _, col := range sortedKeys(p) {
		if !c.mutable[col] {
			return nil, fmt.Errorf("%s: column %q is not updatable", c.table, col)
		}
		v := p[col]
		if c.json[col] {
			enc, err := encodeJSON(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", c.table, col, err)
			}
			v = enc
		}
		upd.Set(col, v)
	}

	query, args := upd.Query()
	res, err := c.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return c.findOne(ctx, Filter{c.key: id})
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY must be unique")
}

// sortedKeys gives builders a stable argument order.
func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

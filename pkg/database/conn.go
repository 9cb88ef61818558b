package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// runner is satisfied by *sql.DB and *sql.Tx
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn executes ent-built statements against a database or a transaction
type Conn struct {
	q       runner
	dialect string
}

// Scanner is implemented by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// Dialect returns the ent dialect name
func (c *Conn) Dialect() string {
	return c.dialect
}

// Builder returns an ent SQL builder for the connection's dialect
func (c *Conn) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

// Exec runs a statement built with the ent SQL builder
func (c *Conn) Exec(ctx context.Context, stmt entsql.Querier) (sql.Result, error) {
	query, args := stmt.Query()
	return c.q.ExecContext(ctx, query, args...)
}

// QueryRow runs a single-row query built with the ent SQL builder
func (c *Conn) QueryRow(ctx context.Context, stmt entsql.Querier) *sql.Row {
	query, args := stmt.Query()
	return c.q.QueryRowContext(ctx, query, args...)
}

// QueryEach runs a query and calls scan for every row. Rows are closed
// before QueryEach returns, so scan must not issue further queries.
func (c *Conn) QueryEach(ctx context.Context, stmt entsql.Querier, scan func(Scanner) error) error {
	query, args := stmt.Query()
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of rows in table matching the predicates
func (c *Conn) Count(ctx context.Context, table string, preds ...*entsql.Predicate) (int, error) {
	b := c.Builder()
	sel := b.Select(entsql.Count("*")).From(b.Table(table))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	var n int
	if err := c.QueryRow(ctx, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Exists reports whether a row with the given id exists in table
func (c *Conn) Exists(ctx context.Context, table, id string) (bool, error) {
	n, err := c.Count(ctx, table, entsql.EQ("id", id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountBy returns row counts grouped by column
func (c *Conn) CountBy(ctx context.Context, table, column string, preds ...*entsql.Predicate) (map[string]int, error) {
	b := c.Builder()
	sel := b.Select(column, entsql.Count("*")).From(b.Table(table)).GroupBy(column)
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	counts := make(map[string]int)
	err := c.QueryEach(ctx, sel, func(s Scanner) error {
		var (
			key string
			n   int
		)
		if err := s.Scan(&key, &n); err != nil {
			return err
		}
		counts[key] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by %s: %w", table, column, err)
	}
	return counts, nil
}

// JSON encodes v for a JSON column. Values are sent as text so that both
// Postgres jsonb and SQLite accept them.
func JSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// DecodeJSON decodes a nullable JSON column into v. NULL leaves v untouched.
func DecodeJSON(raw sql.NullString, v any) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), v)
}

// NullString converts an optional reference into a column value
func NullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// StringPtr converts a nullable column into an optional reference
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// NullTime converts an optional timestamp into a column value
func NullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// TimePtr converts a nullable timestamp column into an optional time
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

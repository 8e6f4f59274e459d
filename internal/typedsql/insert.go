package typedsql

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// InsertOptions shape an INSERT.
type InsertOptions struct {
	// DisallowColumns may not be set by callers (ids, audit columns).
	DisallowColumns []string
}

// InsertQuery inserts rows into one table and returns them as T.
type InsertQuery[T any] struct {
	table      string
	columns    []string
	allowed    []string
	disallowed []string
}

// Insert prepares an INSERT ... RETURNING * for table. The table must
// declare its columns.
func Insert[T any](schema Schema, table string, opts InsertOptions) (*InsertQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	if err := t.checkColumns(table, opts.DisallowColumns...); err != nil {
		return nil, err
	}
	allowed := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !slices.Contains(opts.DisallowColumns, c) {
			allowed = append(allowed, c)
		}
	}
	return &InsertQuery[T]{
		table:      table,
		columns:    t.Columns,
		allowed:    allowed,
		disallowed: opts.DisallowColumns,
	}, nil
}

// check rejects disallowed and unknown keys of rows.
func (q *InsertQuery[T]) check(rows ...Values) error {
	var illegal []string
	for _, c := range q.disallowed {
		for _, row := range rows {
			if _, ok := row[c]; ok {
				illegal = append(illegal, c)
				break
			}
		}
	}
	if len(illegal) > 0 {
		return fmt.Errorf("%w(s) %s", ErrDisallowedColumn, strings.Join(illegal, ","))
	}
	for _, row := range rows {
		for k := range row {
			if !slices.Contains(q.columns, k) {
				return fmt.Errorf("%w %s.%s", ErrUnknownColumn, q.table, k)
			}
		}
	}
	return nil
}

// keys lists the allowed columns present in row, in schema order.
func (q *InsertQuery[T]) keys(row Values) []string {
	var keys []string
	for _, c := range q.allowed {
		if _, ok := row[c]; ok {
			keys = append(keys, c)
		}
	}
	return keys
}

// Build returns the statement inserting row.
func (q *InsertQuery[T]) Build(row Values) (string, []any, error) {
	if err := q.check(row); err != nil {
		return "", nil, err
	}
	keys := q.keys(row)
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[k]
	}
	sql := fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s) RETURNING *", q.table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	return sql, args, nil
}

// Exec inserts row and returns it as stored, or nil when the database
// returned nothing.
func (q *InsertQuery[T]) Exec(ctx context.Context, db Queryable, row Values) (*T, error) {
	sql, args, err := q.Build(row)
	if err != nil {
		return nil, err
	}
	rows, err := collect[T](ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

// BuildMultiple returns one statement inserting every row. The columns are
// those present in the first row.
func (q *InsertQuery[T]) BuildMultiple(rows []Values) (string, []any, error) {
	if err := q.check(rows...); err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return "", nil, nil
	}
	keys := q.keys(rows[0])
	tuples := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(keys))
	placeholder := 1
	for _, row := range rows {
		ph := make([]string, len(keys))
		for i, k := range keys {
			ph[i] = fmt.Sprintf("$%d", placeholder+i)
			args = append(args, row[k])
		}
		placeholder += len(keys)
		tuples = append(tuples, "("+strings.Join(ph, ",")+")")
	}
	sql := fmt.Sprintf("INSERT INTO %s(%s) VALUES %s RETURNING *", q.table, strings.Join(keys, ", "), strings.Join(tuples, ", "))
	return sql, args, nil
}

// ExecMultiple inserts rows with one statement. No rows is a no-op.
func (q *InsertQuery[T]) ExecMultiple(ctx context.Context, db Queryable, rows []Values) ([]T, error) {
	sql, args, err := q.BuildMultiple(rows)
	if err != nil {
		return nil, err
	}
	if sql == "" {
		return []T{}, nil
	}
	return collect[T](ctx, db, sql, args)
}

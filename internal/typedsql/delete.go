package typedsql

import (
	"context"
	"fmt"
)

// DeleteQuery is a prepared DELETE ... RETURNING *.
type DeleteQuery[T any] struct {
	sql      string
	where    whereClause
	singular bool
}

// Delete prepares a DELETE from table. Without where columns it deletes
// every row.
func Delete[T any](schema Schema, table string, where []WhereColumn, limitOne bool) (*DeleteQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	cols := splitWhere(where)
	if err := t.checkColumns(table, whereNames(cols)...); err != nil {
		return nil, err
	}
	wc := buildWhere(cols, 1, "")
	return &DeleteQuery[T]{
		sql:      fmt.Sprintf("DELETE FROM %s%s RETURNING *", table, wc.sql),
		where:    wc,
		singular: limitOne,
	}, nil
}

// DeleteByPrimaryKey prepares a singular DELETE matching the primary key.
func DeleteByPrimaryKey[T any](schema Schema, table string) (*DeleteQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	pk, err := t.primaryKey(table)
	if err != nil {
		return nil, err
	}
	return Delete[T](schema, table, []WhereColumn{Col(pk)}, true)
}

// SQL returns the statement before NULL rewriting.
func (q *DeleteQuery[T]) SQL() string { return q.sql }

// Build returns the statement and arguments for the where values.
func (q *DeleteQuery[T]) Build(where Values) (string, []any, error) {
	args, err := q.where.values(where)
	if err != nil {
		return "", nil, err
	}
	sql, err := rewriteNulls(q.sql, args, q.where.names)
	if err != nil {
		return "", nil, err
	}
	return sql, args, nil
}

// All deletes the matching rows and returns them.
func (q *DeleteQuery[T]) All(ctx context.Context, db Queryable, where Values) ([]T, error) {
	sql, args, err := q.Build(where)
	if err != nil {
		return nil, err
	}
	rows, err := collect[T](ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	if q.singular && len(rows) > 1 {
		rows = rows[:1]
	}
	return rows, nil
}

// One deletes the matching rows and returns the first, or nil.
func (q *DeleteQuery[T]) One(ctx context.Context, db Queryable, where Values) (*T, error) {
	rows, err := q.All(ctx, db, where)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

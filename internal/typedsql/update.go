package typedsql

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// UpdateOptions shape an UPDATE.
type UpdateOptions struct {
	// Set fixes the assigned columns. When empty the assigned columns are
	// the keys of the update values, in schema order.
	Set   []string
	Where []WhereColumn
	// LimitOne makes All return at most the first row.
	LimitOne bool
}

// UpdateQuery is a prepared UPDATE ... RETURNING *.
type UpdateQuery[T any] struct {
	table    string
	columns  []string
	set      []string
	where    []WhereColumn
	singular bool
}

// Update prepares an UPDATE of table.
func Update[T any](schema Schema, table string, opts UpdateOptions) (*UpdateQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	where := splitWhere(opts.Where)
	if err := t.checkColumns(table, opts.Set...); err != nil {
		return nil, err
	}
	if err := t.checkColumns(table, whereNames(where)...); err != nil {
		return nil, err
	}
	return &UpdateQuery[T]{
		table:    table,
		columns:  t.Columns,
		set:      opts.Set,
		where:    where,
		singular: opts.LimitOne,
	}, nil
}

// UpdateByPrimaryKey prepares a singular UPDATE matching the primary key.
func UpdateByPrimaryKey[T any](schema Schema, table string, set ...string) (*UpdateQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	pk, err := t.primaryKey(table)
	if err != nil {
		return nil, err
	}
	return Update[T](schema, table, UpdateOptions{Set: set, Where: []WhereColumn{Col(pk)}, LimitOne: true})
}

// Build returns the statement and arguments. With a fixed set list the
// SET placeholders come first; a dynamic SET is numbered after WHERE.
func (q *UpdateQuery[T]) Build(where, update Values) (string, []any, error) {
	if len(q.set) > 0 {
		vals := make([]any, 0, len(q.set)+len(q.where))
		assign := make([]string, len(q.set))
		for i, c := range q.set {
			v, ok := update[c]
			if !ok {
				return "", nil, fmt.Errorf("%w for set column %s", ErrMissingValue, c)
			}
			assign[i] = fmt.Sprintf("%s = $%d", c, i+1)
			vals = append(vals, v)
		}
		wc := buildWhere(q.where, len(q.set)+1, "")
		whereVals, err := wc.values(where)
		if err != nil {
			return "", nil, err
		}
		sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", q.table, strings.Join(assign, ", "), wc.sql)
		if sql, err = rewriteNulls(sql, whereVals, wc.names); err != nil {
			return "", nil, err
		}
		return sql, append(vals, whereVals...), nil
	}

	cols, err := q.dynamicSet(update)
	if err != nil {
		return "", nil, err
	}
	wc := buildWhere(q.where, 1, "")
	vals, err := wc.values(where)
	if err != nil {
		return "", nil, err
	}
	assign := make([]string, len(cols))
	for i, c := range cols {
		assign[i] = fmt.Sprintf("%s = $%d", c, len(wc.keys)+i+1)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", q.table, strings.Join(assign, ", "), wc.sql)
	if sql, err = rewriteNulls(sql, vals, wc.names); err != nil {
		return "", nil, err
	}
	for _, c := range cols {
		vals = append(vals, update[c])
	}
	return sql, vals, nil
}

// dynamicSet orders the keys of update by the schema.
func (q *UpdateQuery[T]) dynamicSet(update Values) ([]string, error) {
	if len(update) == 0 {
		return nil, ErrEmptyUpdate
	}
	cols := make([]string, 0, len(update))
	for _, c := range q.columns {
		if _, ok := update[c]; ok {
			cols = append(cols, c)
		}
	}
	if len(cols) != len(update) {
		for k := range update {
			if !slices.Contains(q.columns, k) {
				return nil, fmt.Errorf("%w %s.%s", ErrUnknownColumn, q.table, k)
			}
		}
	}
	return cols, nil
}

// All runs the update and returns the changed rows.
func (q *UpdateQuery[T]) All(ctx context.Context, db Queryable, where, update Values) ([]T, error) {
	sql, args, err := q.Build(where, update)
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

// One runs the update and returns the first changed row, or nil.
func (q *UpdateQuery[T]) One(ctx context.Context, db Queryable, where, update Values) (*T, error) {
	rows, err := q.All(ctx, db, where, update)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

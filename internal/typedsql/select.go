package typedsql

import (
	"context"
	"fmt"
	"strings"
)

// SelectOptions shape a SELECT. Zero options select every row and column.
type SelectOptions struct {
	// Columns limits the selected columns; nil means `*`.
	Columns []string
	Where   []WhereColumn
	// Join embeds referenced rows as JSON objects, in order.
	Join    []Join
	OrderBy []Order
	// LimitOne makes All fail with ErrMultipleRows on more than one row.
	LimitOne bool
}

// SelectQuery is a prepared SELECT returning rows of type T. T is a struct
// whose fields match the selected columns by name or `db` tag.
type SelectQuery[T any] struct {
	sql      string
	where    whereClause
	singular bool
}

// Select builds a SELECT over table.
func Select[T any](schema Schema, table string, opts SelectOptions) (*SelectQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	if err := t.checkColumns(table, opts.Columns...); err != nil {
		return nil, err
	}
	where := splitWhere(opts.Where)
	if err := t.checkColumns(table, whereNames(where)...); err != nil {
		return nil, err
	}

	what := []string{"*"}
	if opts.Columns != nil {
		what = opts.Columns
	}
	var b strings.Builder
	prefix := ""
	if len(opts.Join) == 0 {
		fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(what, ", "), table)
	} else {
		prefix = "t1."
		cols := make([]string, len(what))
		for i, c := range what {
			cols[i] = prefix + c
		}
		embeds := make([]string, len(opts.Join))
		joins := make([]string, len(opts.Join))
		for i, j := range opts.Join {
			fk, ok := t.ForeignKeys[j.Column]
			if !ok {
				return nil, fmt.Errorf("%w %s.%s", ErrUnknownForeignKey, table, j.Column)
			}
			n := i + 2
			embeds[i] = fmt.Sprintf("to_jsonb(t%d.*) as %s", n, j.Name)
			joins[i] = fmt.Sprintf(" JOIN %s AS t%d ON t1.%s = t%d.%s", fk.Table, n, j.Column, n, fk.Column)
		}
		fmt.Fprintf(&b, "SELECT %s, %s FROM %s as t1%s", strings.Join(cols, ", "), strings.Join(embeds, ", "), table, strings.Join(joins, ""))
	}

	wc := buildWhere(where, 1, prefix)
	b.WriteString(wc.sql)
	if len(opts.OrderBy) > 0 {
		terms := make([]string, len(opts.OrderBy))
		for i, o := range opts.OrderBy {
			if err := t.checkColumns(table, o.Column); err != nil {
				return nil, err
			}
			dir := o.Dir
			if dir == "" {
				dir = Asc
			}
			terms[i] = fmt.Sprintf("%s %s", o.Column, dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(terms, ","))
	}
	return &SelectQuery[T]{sql: b.String(), where: wc, singular: opts.LimitOne}, nil
}

// SelectByPrimaryKey builds a singular SELECT matching the primary key.
func SelectByPrimaryKey[T any](schema Schema, table string, columns []string, join ...Join) (*SelectQuery[T], error) {
	t, err := schema.table(table)
	if err != nil {
		return nil, err
	}
	pk, err := t.primaryKey(table)
	if err != nil {
		return nil, err
	}
	return Select[T](schema, table, SelectOptions{
		Columns:  columns,
		Where:    []WhereColumn{Col(pk)},
		Join:     join,
		LimitOne: true,
	})
}

// SQL returns the query text before NULL rewriting.
func (q *SelectQuery[T]) SQL() string { return q.sql }

// Build returns the query text and arguments for the where values.
func (q *SelectQuery[T]) Build(where Values) (string, []any, error) {
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

// All runs the query and returns every row.
func (q *SelectQuery[T]) All(ctx context.Context, db Queryable, where Values) ([]T, error) {
	sql, args, err := q.Build(where)
	if err != nil {
		return nil, err
	}
	rows, err := collect[T](ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	if q.singular && len(rows) > 1 {
		return nil, ErrMultipleRows
	}
	return rows, nil
}

// One runs the query and returns its only row, or nil when nothing
// matched.
func (q *SelectQuery[T]) One(ctx context.Context, db Queryable, where Values) (*T, error) {
	sql, args, err := q.Build(where)
	if err != nil {
		return nil, err
	}
	rows, err := collect[T](ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	}
	return nil, ErrMultipleRows
}

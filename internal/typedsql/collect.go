package typedsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// collect runs sql and scans every returned row into a T by column name.
func collect[T any](ctx context.Context, db Queryable, sql string, args []any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("typedsql: query %q: %w", sql, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("typedsql: collect %q: %w", sql, err)
	}
	return out, nil
}

// first returns the first row, or nil.
func first[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

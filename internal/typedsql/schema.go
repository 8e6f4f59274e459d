// Package typedsql builds parameterized PostgreSQL queries from a schema
// description and runs them against a pgx connection, pool or transaction,
// collecting rows into Go structs.
package typedsql

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrMultipleRows is returned by singular queries that matched more
	// than one row.
	ErrMultipleRows = errors.New("typedsql: got multiple results for singular query")
	// ErrAmbiguousNullMatch is returned when a NULL where value cannot be
	// folded into an IS NULL test.
	ErrAmbiguousNullMatch = errors.New("typedsql: unable to match null")
	// ErrDisallowedColumn is returned when an insert sets a column the
	// query was built to reject.
	ErrDisallowedColumn = errors.New("typedsql: cannot insert disallowed column")

	ErrUnknownTable      = errors.New("typedsql: unknown table")
	ErrUnknownColumn     = errors.New("typedsql: unknown column")
	ErrUnknownForeignKey = errors.New("typedsql: unknown foreign key")
	ErrNoPrimaryKey      = errors.New("typedsql: table has no primary key")
	ErrMissingValue      = errors.New("typedsql: missing value")
	ErrEmptyUpdate       = errors.New("typedsql: nothing to update")
)

// Queryable runs a query. *pgx.Conn, *pgxpool.Pool and pgx.Tx satisfy it.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Schema maps table names to their description.
type Schema map[string]Table

// Table describes one table. Columns are listed in declaration order,
// which is the order inserts and dynamic updates use.
type Table struct {
	Columns     []string
	PrimaryKey  string
	ForeignKeys map[string]ForeignKey
}

// ForeignKey is the target of a foreign key column.
type ForeignKey struct {
	Table  string
	Column string
}

// Values carries where values, insert rows and update sets by column name.
type Values map[string]any

// WhereColumn is one equality test of a WHERE clause.
type WhereColumn struct {
	Name string
	// Any matches the column against a list with `= ANY($n)`.
	Any bool
}

// Col matches name with `= $n`.
func Col(name string) WhereColumn { return WhereColumn{Name: name} }

// Any matches name with `= ANY($n)`. The where value is a slice or a set
// (map with the element as key).
func Any(name string) WhereColumn { return WhereColumn{Name: name, Any: true} }

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY term.
type Order struct {
	Column string
	Dir    Direction
}

// Join embeds the row referenced by a foreign key column as a JSON object
// named Name.
type Join struct {
	Name   string
	Column string
}

func (s Schema) table(name string) (Table, error) {
	t, ok := s[name]
	if !ok {
		return Table{}, fmt.Errorf("%w %q", ErrUnknownTable, name)
	}
	return t, nil
}

// checkColumns verifies that every name is a column of t. A table without
// declared columns accepts anything.
func (t Table) checkColumns(table string, names ...string) error {
	if len(t.Columns) == 0 {
		return nil
	}
	for _, n := range names {
		if !slices.Contains(t.Columns, n) {
			return fmt.Errorf("%w %s.%s", ErrUnknownColumn, table, n)
		}
	}
	return nil
}

func (t Table) primaryKey(table string) (string, error) {
	if t.PrimaryKey == "" {
		return "", fmt.Errorf("%w: %s", ErrNoPrimaryKey, table)
	}
	return t.PrimaryKey, nil
}

// splitWhere orders plain columns before ANY columns; placeholders are
// numbered in that order.
func splitWhere(where []WhereColumn) []WhereColumn {
	out := make([]WhereColumn, 0, len(where))
	for _, w := range where {
		if !w.Any {
			out = append(out, w)
		}
	}
	for _, w := range where {
		if w.Any {
			out = append(out, w)
		}
	}
	return out
}

func whereNames(where []WhereColumn) []string {
	out := make([]string, len(where))
	for i, w := range where {
		out[i] = w.Name
	}
	return out
}

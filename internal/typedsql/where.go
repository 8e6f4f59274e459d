package typedsql

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// whereClause holds a rendered WHERE clause and the keys of its values in
// placeholder order.
type whereClause struct {
	sql  string // " WHERE ..." or ""
	keys []string
	// names are the qualified column names used in sql.
	names []string
}

// buildWhere renders cols with placeholders starting at first. prefix
// qualifies column names (`t1.`).
func buildWhere(cols []WhereColumn, first int, prefix string) whereClause {
	var wc whereClause
	clauses := make([]string, 0, len(cols))
	for i, c := range cols {
		name := prefix + c.Name
		n := first + i
		if c.Any {
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", name, n))
		} else {
			clauses = append(clauses, fmt.Sprintf("%s = $%d", name, n))
		}
		wc.keys = append(wc.keys, c.Name)
		wc.names = append(wc.names, name)
	}
	if len(clauses) > 0 {
		wc.sql = " WHERE " + strings.Join(clauses, " AND ")
	}
	return wc
}

// values picks the where values in placeholder order. Sets become slices.
func (wc whereClause) values(where Values) ([]any, error) {
	out := make([]any, 0, len(wc.keys))
	for _, k := range wc.keys {
		v, ok := where[k]
		if !ok {
			return nil, fmt.Errorf("%w for where column %s", ErrMissingValue, k)
		}
		out = append(out, setToSlice(v))
	}
	return out, nil
}

// setToSlice turns a map used as a set into a slice of its keys, ordered by
// their printed form so the generated arguments are stable.
func setToSlice(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return v
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Key()), 0, len(keys))
	for _, k := range keys {
		out = reflect.Append(out, k)
	}
	return out.Interface()
}

// isNull reports whether v is nil, a nil pointer, or a list holding one.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			e := rv.Index(i)
			if (e.Kind() == reflect.Pointer || e.Kind() == reflect.Interface) && e.IsNil() {
				return true
			}
		}
	}
	return false
}

// rewriteNulls turns `col = $n` (or `col = ANY($n`) into
// `(col IS NULL OR col = $n)` for every where value that is or contains
// NULL. The equality stays so placeholders need no renumbering. Only the
// text after WHERE is touched, which keeps UPDATE ... SET intact.
func rewriteNulls(query string, vals []any, names []string) (string, error) {
	whereIdx := strings.Index(query, " WHERE ")
	if whereIdx < 0 {
		return query, nil
	}
	for i, v := range vals {
		if !isNull(v) {
			continue
		}
		name := names[i]
		pat := name + " = $"
		idx := indexColumn(query, pat, whereIdx)
		if idx < 0 {
			pat = name + " = ANY($"
			idx = indexColumn(query, pat, whereIdx)
		}
		if idx < 0 {
			continue
		}
		post := query[idx+len(pat):]
		digits := len(post) - len(strings.TrimLeft(post, "0123456789"))
		if digits == 0 {
			return "", fmt.Errorf("%w in %s", ErrAmbiguousNullMatch, query)
		}
		query = fmt.Sprintf("%s(%s IS NULL OR %s%s)%s", query[:idx], name, pat, post[:digits], post[digits:])
	}
	return query, nil
}

// indexColumn finds pat at or after from where it starts a column
// reference, so `id = $` does not match inside `user_id = $`.
func indexColumn(s, pat string, from int) int {
	for from <= len(s) {
		i := strings.Index(s[from:], pat)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || !isIdentByte(s[i-1]) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

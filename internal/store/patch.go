package store

import (
	"fmt"
	"strings"
	"time"
)

// Column names a writable column. Only columns listed in a table's whitelist can be patched.
type Column string

// Patch maps columns to their new values. Values are always bound, never inlined.
type Patch map[Column]any

func (p Patch) Set(column Column, value any) Patch {
	p[column] = value
	return p
}

func (p Patch) Empty() bool {
	return len(p) == 0
}

type updateBuilder struct {
	table   string
	columns []Column
}

// build renders UPDATE ... SET with the patched columns in whitelist order and
// refreshes updated_at. Columns outside the whitelist are rejected.
func (b updateBuilder) build(id int64, patch Patch, at time.Time) (string, []any, error) {
	allowed := make(map[Column]bool, len(b.columns))
	for _, column := range b.columns {
		allowed[column] = true
	}
	for column := range patch {
		if !allowed[column] {
			return "", nil, fmt.Errorf("%s: column %q is not writable", b.table, column)
		}
	}
	sets := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+2)
	for _, column := range b.columns {
		value, ok := patch[column]
		if !ok {
			continue
		}
		sets = append(sets, string(column)+" = ?")
		args = append(args, value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, at, id)
	query := "UPDATE " + b.table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	return query, args, nil
}

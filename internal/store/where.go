package store

import (
	"fmt"
	"strings"
)

// whereBuilder assembles a WHERE clause from optional equality filters.
type whereBuilder struct {
	conditions []string
	args       []any
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{}
}

// Add filters column = value. Empty values are skipped.
func (w *whereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

// Build returns the clause, with a leading space, and its arguments.
func (w *whereBuilder) Build() (string, []any) {
	if len(w.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conditions, " AND "), w.args
}

// NextArgIndex returns the placeholder number for the next argument.
func (w *whereBuilder) NextArgIndex() int {
	return len(w.args) + 1
}

package storage

import (
	"strconv"
	"strings"
)

// Where folds predicates with AND into a WHERE clause. Predicates are
// written with ? placeholders which are numbered ($1, $2, ...) in the order
// they are added, so optional filters can be skipped without renumbering.
type Where struct {
	clauses []string
	args    []any
}

// NewWhere starts a predicate list.
func NewWhere() *Where {
	return &Where{}
}

// And adds expr unconditionally.
func (w *Where) And(expr string, args ...any) *Where {
	w.clauses = append(w.clauses, w.number(expr, args))
	return w
}

// AndIf adds expr only when cond holds.
func (w *Where) AndIf(cond bool, expr string, args ...any) *Where {
	if cond {
		return w.And(expr, args...)
	}
	return w
}

// In adds "column IN (...)". An empty list matches nothing.
func (w *Where) In(column string, values []string) *Where {
	if len(values) == 0 {
		w.clauses = append(w.clauses, "1 = 0")
		return w
	}
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return w.And(column+" IN ("+strings.Join(marks, ", ")+")", args...)
}

// Arg appends a value outside any predicate (LIMIT, SET, ...) and returns
// its placeholder.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// String renders " WHERE a AND b", or "" without predicates.
func (w *Where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns the bound values in placeholder order.
func (w *Where) Args() []any {
	return w.args
}

func (w *Where) number(expr string, args []any) string {
	var b strings.Builder
	i := 0
	for _, r := range expr {
		if r == '?' && i < len(args) {
			b.WriteString(w.Arg(args[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package querybuilder

import (
	"strconv"
	"strings"
)

// Condition is one predicate of a WHERE clause. Conditions are joined
// with AND.
type Condition interface {
	writeTo(w *sqlWriter)
}

// sqlWriter accumulates statement text and its positional arguments.
// Placeholders are numbered ($1, $2, ...) which both lib/pq and SQLite
// accept as long as each one is used once and in order.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) WriteString(s string) {
	w.buf.WriteString(s)
}

func (w *sqlWriter) bind(v any) {
	w.args = append(w.args, v)
	w.buf.WriteByte('$')
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expr copies expr, binding exprArgs in order to its '?' marks. Extra
// marks are kept verbatim.
func (w *sqlWriter) expr(expr string, exprArgs []any) {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(exprArgs) {
			w.bind(exprArgs[next])
			next++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.WriteString(" AND ")
		}
		c.writeTo(w)
	}
}

func (w *sqlWriter) result() (string, []any) {
	return w.buf.String(), w.args
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func (c compareCondition) writeTo(w *sqlWriter) {
	w.WriteString(c.column)
	w.WriteString(c.op)
	w.bind(c.value)
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: " = ", value: value}
}

// Gte renders column >= value.
func Gte(column string, value any) Condition {
	return compareCondition{column: column, op: " >= ", value: value}
}

type inCondition struct {
	column string
	values []any
}

// In renders column IN (...). An empty list matches nothing.
func In[T any](column string, values []T) Condition {
	c := inCondition{column: column, values: make([]any, len(values))}
	for i, v := range values {
		c.values[i] = v
	}
	return c
}

func (c inCondition) writeTo(w *sqlWriter) {
	if len(c.values) == 0 {
		w.WriteString("1 = 0")
		return
	}
	w.WriteString(c.column)
	w.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.bind(v)
	}
	w.WriteString(")")
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) writeTo(w *sqlWriter) {
	w.WriteString(c.column)
	w.WriteString(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate; each '?' binds the next arg.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) writeTo(w *sqlWriter) {
	w.expr(c.expr, c.args)
}

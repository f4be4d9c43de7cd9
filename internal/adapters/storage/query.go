package storage

import "strings"

// Conds accumulates optional WHERE predicates for list queries.
type Conds struct {
	parts []string
	args  []any
}

// Eq adds "col = ?" when v is non-empty.
func (c *Conds) Eq(col, v string) {
	if v == "" {
		return
	}
	c.Add(col+" = ?", v)
}

// Add appends a raw predicate with its arguments.
func (c *Conds) Add(expr string, args ...any) {
	c.parts = append(c.parts, expr)
	c.args = append(c.args, args...)
}

// Where renders the clause, or "" when nothing was added.
func (c *Conds) Where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

// Args returns the bound arguments in predicate order.
func (c *Conds) Args() []any {
	return c.args
}

// Page appends LIMIT/OFFSET when limit is positive.
func (c *Conds) Page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	c.args = append(c.args, limit, offset)
	return " LIMIT ? OFFSET ?"
}

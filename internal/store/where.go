package store

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder accumulates parameterized WHERE conditions.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder creates an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

func (wb *WhereBuilder) push(cond string, args ...any) {
	wb.conditions = append(wb.conditions, cond)
	wb.args = append(wb.args, args...)
	wb.argIndex += len(args)
}

// Add appends "column = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.push(fmt.Sprintf("%s = $%d", column, wb.argIndex), value)
}

// AddInt appends "column = $n". Zero is skipped.
func (wb *WhereBuilder) AddInt(column string, value int64) {
	if value == 0 {
		return
	}
	wb.push(fmt.Sprintf("%s = $%d", column, wb.argIndex), value)
}

// AddDateRange appends whichever bounds are set.
func (wb *WhereBuilder) AddDateRange(column string, from, to *time.Time) {
	if from != nil {
		wb.push(fmt.Sprintf("%s >= $%d", column, wb.argIndex), toPgDate(from))
	}
	if to != nil {
		wb.push(fmt.Sprintf("%s <= $%d", column, wb.argIndex), toPgDate(to))
	}
}

// AddSearch appends a case-insensitive substring match over columns,
// sharing one placeholder. An empty query is skipped.
func (wb *WhereBuilder) AddSearch(query string, columns ...string) {
	query = strings.TrimSpace(query)
	if query == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(col), wb.argIndex)
	}
	wb.push("("+strings.Join(parts, " OR ")+")", "%"+escapeLike(query)+"%")
}

// Build returns the WHERE clause (with a leading space) and its arguments.
// With no conditions both are empty.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex is the placeholder number for the next argument.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// quoteIdentifier quotes a possibly table-qualified identifier.
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

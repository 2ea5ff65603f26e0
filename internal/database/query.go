package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/sqlsheet/internal/errs"
)

// Dialect controls identifier quoting and row limiting.
type Dialect int

const (
	// DialectSQLServer quotes [ident] and limits with TOP (n).
	DialectSQLServer Dialect = iota

	// DialectPostgres quotes "ident" and limits with LIMIT n.
	DialectPostgres

	// DialectMySQL quotes `ident` and limits with LIMIT n.
	DialectMySQL
)

// Placeholder returns the bind parameter marker for the n-th argument,
// counting from 1.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case DialectSQLServer:
		return fmt.Sprintf("@p%d", n)
	case DialectPostgres:
		return fmt.Sprintf("$%d", n)
	default:
		return "?"
	}
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

// SelectBuilder constructs a whole-table SELECT for exports that name a
// table instead of a query file. Every identifier is quoted; the only
// literal is the integer limit.
//
// Usage:
//
//	sql, err := Select("dbo.orders", DialectSQLServer).
//	    Columns("id", "placed_at").
//	    OrderBy("placed_at", Desc).
//	    Limit(100).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	orderBy []orderClause
	limit   *int
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table and dialect.
// A dotted name ("dbo.orders") is quoted part by part.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build produces the final SQL text.
func (b *SelectBuilder) Build() (string, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "table name is required")
	}
	if b.limit != nil && *b.limit < 0 {
		return "", errs.Newf(errs.ErrKindInvalidInput, "negative limit %d", *b.limit)
	}

	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.quote(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.limit != nil && b.dialect == DialectSQLServer {
		fmt.Fprintf(&sb, "TOP (%d) ", *b.limit)
	}
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.quoteQualified(b.table))

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", b.quote(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	if b.limit != nil && b.dialect != DialectSQLServer {
		fmt.Fprintf(&sb, " LIMIT %d", *b.limit)
	}

	return sb.String(), nil
}

func (b *SelectBuilder) quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = b.quote(p)
	}
	return strings.Join(parts, ".")
}

// quote wraps an identifier in the dialect's delimiters, doubling any
// embedded closing delimiter.
func (b *SelectBuilder) quote(name string) string {
	switch b.dialect {
	case DialectSQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	case DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

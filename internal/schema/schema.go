// Package schema lists the tables and columns an export can target. It
// reads information_schema through database.DB, so every driver shares one
// implementation.
package schema

import (
	"context"
	"strings"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/decode"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
)

// TableRef names a table.
type TableRef struct {
	Schema string
	Name   string
}

// Qualified returns "schema.name", the form the query builder accepts.
func (t TableRef) Qualified() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name     string
	DataType string // information_schema data_type, e.g. int, nvarchar
	Nullable bool
}

// TableInfo describes a table and its columns.
type TableInfo struct {
	TableRef
	Columns []ColumnInfo
}

// Reader introspects the database behind db.
type Reader struct {
	db database.DB
}

// NewReader returns a Reader.
func NewReader(db database.DB) *Reader {
	return &Reader{db: db}
}

// ListTables returns the user tables visible to the connection, ordered by
// schema and name.
func (r *Reader) ListTables(ctx context.Context) ([]TableRef, error) {
	q := `
		SELECT ` + r.text("table_schema") + `, ` + r.text("table_name") + `
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND ` + r.userSchemas() + `
		ORDER BY table_schema, table_name`

	rows, err := r.rowsOf(ctx, q, nil, 2)
	if err != nil {
		return nil, err
	}
	tables := make([]TableRef, len(rows))
	for i, row := range rows {
		tables[i] = TableRef{Schema: row[0], Name: row[1]}
	}
	return tables, nil
}

// TableExists reports whether a table named "name" or "schema.name" exists.
func (r *Reader) TableExists(ctx context.Context, name string) (bool, error) {
	ref := parseRef(name)
	p := r.params()
	q := `
		SELECT ` + r.text("table_name") + `
		FROM information_schema.tables
		WHERE table_name = ` + p.bind(ref.Name) + r.schemaFilter(p, ref)

	rows, err := r.rowsOf(ctx, q, p.args, 1)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// InspectTable returns the columns of a table in ordinal order. A table
// that does not exist is a not_found error.
func (r *Reader) InspectTable(ctx context.Context, name string) (*TableInfo, error) {
	ref := parseRef(name)
	p := r.params()
	q := `
		SELECT ` + r.text("column_name") + `, ` + r.text("data_type") + `, ` + r.text("is_nullable") + `
		FROM information_schema.columns
		WHERE table_name = ` + p.bind(ref.Name) + r.schemaFilter(p, ref) + `
		ORDER BY ordinal_position`

	rows, err := r.rowsOf(ctx, q, p.args, 3)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %s not found", name)
	}

	info := &TableInfo{TableRef: ref, Columns: make([]ColumnInfo, len(rows))}
	for i, row := range rows {
		info.Columns[i] = ColumnInfo{
			Name:     row[0],
			DataType: row[1],
			Nullable: strings.EqualFold(row[2], "YES"),
		}
	}
	return info, nil
}

// --- query helpers ---

// text renders a column as plain text. PostgreSQL's information_schema
// uses its own domain types, so they are cast.
func (r *Reader) text(col string) string {
	if r.db.Dialect() == database.DialectPostgres {
		return col + "::text"
	}
	return col
}

func (r *Reader) userSchemas() string {
	switch r.db.Dialect() {
	case database.DialectPostgres:
		return "table_schema NOT IN ('pg_catalog', 'information_schema')"
	case database.DialectMySQL:
		return "table_schema = DATABASE()"
	default:
		return "table_schema <> 'sys'"
	}
}

func (r *Reader) schemaFilter(p *params, ref TableRef) string {
	if ref.Schema != "" {
		return " AND table_schema = " + p.bind(ref.Schema)
	}
	return " AND " + r.userSchemas()
}

// params collects bind arguments for one query. Names supplied by the
// caller only ever reach the database as arguments.
type params struct {
	dialect database.Dialect
	args    []any
}

func (r *Reader) params() *params {
	return &params{dialect: r.db.Dialect()}
}

// bind appends v and returns its placeholder.
func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return p.dialect.Placeholder(len(p.args))
}

// rowsOf runs q and returns the first result as text, width columns per row.
func (r *Reader) rowsOf(ctx context.Context, q string, args []any, width int) ([][]string, error) {
	results, err := r.db.QueryResults(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	out := make([][]string, 0, rs.Len())
	for _, row := range rs.Rows() {
		if row.Len() < width {
			return nil, errs.Newf(errs.ErrKindQueryFailed, "expected %d columns, got %d", width, row.Len())
		}
		vals := make([]string, width)
		for i := 0; i < width; i++ {
			s, err := asText(row.At(i))
			if err != nil {
				return nil, err
			}
			vals[i] = s
		}
		out = append(out, vals)
	}
	return out, nil
}

func asText(v resultset.Value) (string, error) {
	res := decode.Str(v)
	switch res.Outcome {
	case decode.Decoded:
		return res.Value, nil
	case decode.NoValue:
		return "", nil
	case decode.Structural:
		return "", res.Err
	default:
		return "", errs.Newf(errs.ErrKindQueryFailed, "expected text, got %v", v.Wire)
	}
}

func parseRef(name string) TableRef {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return TableRef{Schema: schema, Name: table}
	}
	return TableRef{Name: name}
}

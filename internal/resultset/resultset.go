// Package resultset models a fully drained query result: shared column
// metadata plus rows of raw wire values.
//
// Drivers build a ResultSet with New and Append while draining their
// cursor; once handed to the transcription engine it is only read.
package resultset

import (
	"time"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/shopspring/decimal"
)

// Column is immutable metadata shared by every row of a result.
type Column struct {
	Name string
	Type TypeTag

	// DatabaseType is the driver's native type name ("INT", "int4", ...),
	// kept for diagnostics.
	DatabaseType string
}

// Value is one raw cell as it came off the wire. Data is nil for SQL NULL;
// Wire is set even then.
type Value struct {
	Wire Wire
	Data any
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.Data == nil }

// --- Value constructors used by drivers and tests ---

func U8(v uint8) Value                { return Value{Wire: WireU8, Data: v} }
func I16(v int16) Value               { return Value{Wire: WireI16, Data: v} }
func I32(v int32) Value               { return Value{Wire: WireI32, Data: v} }
func I64(v int64) Value               { return Value{Wire: WireI64, Data: v} }
func Bit(v bool) Value                { return Value{Wire: WireBit, Data: v} }
func Numeric(v decimal.Decimal) Value { return Value{Wire: WireNumeric, Data: v} }
func String(v string) Value           { return Value{Wire: WireString, Data: v} }
func DateTime(v time.Time) Value      { return Value{Wire: WireDateTime, Data: v} }
func Float(v float64) Value           { return Value{Wire: WireFloat, Data: v} }
func Binary(v []byte) Value           { return Value{Wire: WireBinary, Data: v} }

// Null returns a NULL value that still remembers its wire width.
func Null(w Wire) Value { return Value{Wire: w} }

// Raw builds a value from driver output that has not been converted yet,
// such as DECIMAL text. Decoders validate Data against Wire.
func Raw(w Wire, data any) Value { return Value{Wire: w, Data: data} }

// Row is one source row. It shares its column metadata with the result.
type Row struct {
	columns []Column
	values  []Value
}

// Columns returns the shared column metadata.
func (r Row) Columns() []Column { return r.columns }

// Values returns the raw values, one per column.
func (r Row) Values() []Value { return r.values }

// Len returns the number of values in the row.
func (r Row) Len() int { return len(r.values) }

// At returns the value of column i.
func (r Row) At(i int) Value { return r.values[i] }

// ResultSet is an ordered, finite sequence of rows sharing one column list.
type ResultSet struct {
	columns []Column
	rows    []Row
}

// New starts an empty result with the given columns.
func New(columns []Column) *ResultSet {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &ResultSet{columns: cols}
}

// Append adds a row. The number of values must match the column count.
func (rs *ResultSet) Append(values ...Value) error {
	if len(values) != len(rs.columns) {
		return errs.Newf(errs.ErrKindInvalidInput,
			"row has %d values, result has %d columns", len(values), len(rs.columns))
	}
	vals := make([]Value, len(values))
	copy(vals, values)
	rs.rows = append(rs.rows, Row{columns: rs.columns, values: vals})
	return nil
}

// Columns returns the column metadata.
func (rs *ResultSet) Columns() []Column { return rs.columns }

// Rows returns the rows in source order.
func (rs *ResultSet) Rows() []Row { return rs.rows }

// Len returns the number of rows.
func (rs *ResultSet) Len() int { return len(rs.rows) }

package transcribe

import (
	"fmt"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/decode"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
)

// Entry is one decoded cell paired with its grid coordinate.
type Entry struct {
	Row   uint32
	Col   uint32
	Value cell.Value
}

// Diagnostic describes a cell that was not written because its column type
// has no decoding strategy.
type Diagnostic struct {
	Row          int // source row index
	Column       int
	Name         string
	Type         resultset.TypeTag
	DatabaseType string
}

// DecodedRow is the output of RowDecoder.Decode for one source row.
type DecodedRow struct {
	Entries     []Entry
	Skipped     int // NULL or width-mismatched cells
	Diagnostics []Diagnostic
}

// RowDecoder decodes rows of one result. Strategies are chosen once from
// the column metadata and reused for every row.
type RowDecoder struct {
	columns    []resultset.Column
	strategies []decode.Strategy
}

// NewRowDecoder classifies every column up front.
func NewRowDecoder(columns []resultset.Column) *RowDecoder {
	strategies := make([]decode.Strategy, len(columns))
	for i, col := range columns {
		strategies[i] = decode.Classify(col.Type)
	}
	return &RowDecoder{columns: columns, strategies: strategies}
}

// Strategies returns the per-column strategies in column order.
func (d *RowDecoder) Strategies() []decode.Strategy { return d.strategies }

// Decode turns source row index into entries at grid row index+1, in column
// order. Skipped cells are omitted. Only a structural decode failure is
// returned as an error.
func (d *RowDecoder) Decode(index int, row resultset.Row) (DecodedRow, error) {
	var out DecodedRow
	if row.Len() != len(d.columns) {
		return out, errs.Newf(errs.ErrKindDecodeFailed,
			"row %d has %d values, expected %d", index, row.Len(), len(d.columns))
	}

	gridRow := uint32(index) + 1
	out.Entries = make([]Entry, 0, len(d.columns))

	for i, strategy := range d.strategies {
		if strategy == decode.StrategyUnknown {
			col := d.columns[i]
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Row:          index,
				Column:       i,
				Name:         col.Name,
				Type:         col.Type,
				DatabaseType: col.DatabaseType,
			})
			continue
		}

		res := strategy.Decode(row.At(i))
		switch res.Outcome {
		case decode.Decoded:
			out.Entries = append(out.Entries, Entry{Row: gridRow, Col: uint32(i), Value: res.Value})
		case decode.NoValue, decode.Mismatch:
			out.Skipped++
		case decode.Structural:
			return out, errs.Wrap(errs.ErrKindDecodeFailed,
				columnContext(index, i, d.columns[i].Name), res.Err)
		}
	}
	return out, nil
}

func columnContext(row, col int, name string) string {
	return fmt.Sprintf("row %d, column %d (%s)", row, col, name)
}

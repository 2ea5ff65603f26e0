// Package transcribe copies one query result into a spreadsheet grid.
//
// The engine writes the column names at grid row 0 and the decoded cells
// of source row i at grid row i+1. Cells that are NULL, width-mismatched or
// of an unsupported column type are skipped; a structural decode failure or
// a sink failure aborts the pass.
package transcribe

import (
	"context"
	"fmt"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"golang.org/x/sync/errgroup"
)

// Report summarises one transcription.
type Report struct {
	Columns          int
	Rows             int
	CellsWritten     int // including the header
	Skipped          int
	Diagnostics      []Diagnostic
	DiscardedResults int // result sets after the first
}

// Engine transcribes results into a Sink. The zero value is not usable;
// call New.
type Engine struct {
	log     *logger.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets where diagnostics go.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithWorkers decodes rows on n goroutines. Cells are still emitted in row
// order. n <= 1 decodes sequentially.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop(), workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transcribe writes the first result of a query response into sink. Later
// results are counted in the report and otherwise ignored.
func (e *Engine) Transcribe(results []*resultset.ResultSet, sink Sink) (*Report, error) {
	if len(results) == 0 || results[0] == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "query produced no result set")
	}
	if len(results) > 1 {
		e.log.Warnf("query returned %d result sets, only the first is exported", len(results))
	}

	report, err := e.TranscribeSet(results[0], sink)
	if report != nil {
		report.DiscardedResults = len(results) - 1
	}
	return report, err
}

// TranscribeSet writes one result into sink.
func (e *Engine) TranscribeSet(rs *resultset.ResultSet, sink Sink) (*Report, error) {
	columns := rs.Columns()
	report := &Report{Columns: len(columns), Rows: rs.Len()}

	for i, col := range columns {
		if err := write(sink, 0, uint32(i), cell.Text(col.Name)); err != nil {
			return report, err
		}
		report.CellsWritten++
	}

	dec := NewRowDecoder(columns)
	emit := func(row DecodedRow) error {
		for _, d := range row.Diagnostics {
			e.diagnose(d)
		}
		report.Diagnostics = append(report.Diagnostics, row.Diagnostics...)
		report.Skipped += row.Skipped
		for _, entry := range row.Entries {
			if err := write(sink, entry.Row, entry.Col, entry.Value); err != nil {
				return err
			}
			report.CellsWritten++
		}
		return nil
	}

	if e.workers > 1 && rs.Len() > 1 {
		return report, e.parallel(dec, rs.Rows(), emit)
	}

	for i, row := range rs.Rows() {
		decoded, err := dec.Decode(i, row)
		if err != nil {
			return report, err
		}
		if err := emit(decoded); err != nil {
			return report, err
		}
	}
	return report, nil
}

// parallel decodes rows concurrently, then emits them in order. Once any
// row fails no new rows are scheduled; rows below the failure that were
// skipped are decoded on the way out, so the error reported is always the
// one from the lowest failing row.
func (e *Engine) parallel(dec *RowDecoder, rows []resultset.Row, emit func(DecodedRow) error) error {
	decoded := make([]DecodedRow, len(rows))
	done := make([]bool, len(rows))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.workers)
	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			row, err := dec.Decode(i, rows[i])
			if err != nil {
				return err
			}
			decoded[i], done[i] = row, true
			return nil
		})
	}
	_ = g.Wait() // recovered below, in row order

	for i := range rows {
		if !done[i] {
			row, err := dec.Decode(i, rows[i])
			if err != nil {
				return err
			}
			decoded[i] = row
		}
		if err := emit(decoded[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) diagnose(d Diagnostic) {
	e.log.WarnWith("unsupported column type, cell skipped", map[string]interface{}{
		"column":        d.Name,
		"column_index":  d.Column,
		"row":           d.Row,
		"type":          d.Type.String(),
		"database_type": d.DatabaseType,
	})
}

func write(sink Sink, row, col uint32, v cell.Value) error {
	if err := sink.Write(row, col, v); err != nil {
		return errs.Wrap(errs.ErrKindWriteFailed, fmt.Sprintf("write cell (%d,%d)", row, col), err)
	}
	return nil
}

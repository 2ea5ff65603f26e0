package transcribe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/koustreak/sqlsheet/internal/sheet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResult(t testing.TB, cols []resultset.Column, rows ...[]resultset.Value) *resultset.ResultSet {
	t.Helper()
	rs := resultset.New(cols)
	for _, r := range rows {
		require.NoError(t, rs.Append(r...))
	}
	return rs
}

func transcribe(t *testing.T, e *Engine, results ...*resultset.ResultSet) (*sheet.Grid, *Report) {
	t.Helper()
	g := sheet.NewGrid()
	report, err := e.Transcribe(results, g)
	require.NoError(t, err)
	return g, report
}

func assertCell(t *testing.T, g *sheet.Grid, row, col uint32, want cell.Value) {
	t.Helper()
	got, ok := g.Get(row, col)
	require.True(t, ok, "cell (%d,%d) missing", row, col)
	assert.Equal(t, want, got, "cell (%d,%d)", row, col)
}

func TestTranscribe_ScenarioA(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{
			{Name: "ID", Type: resultset.TypeIntN},
			{Name: "Active", Type: resultset.TypeBitN},
		},
		[]resultset.Value{resultset.U8(1), resultset.Bit(true)},
		[]resultset.Value{resultset.Null(resultset.WireU8), resultset.Bit(false)},
	)

	g, report := transcribe(t, New(), rs)

	assertCell(t, g, 0, 0, cell.Text("ID"))
	assertCell(t, g, 0, 1, cell.Text("Active"))
	assertCell(t, g, 1, 0, cell.Integer(1))
	assertCell(t, g, 1, 1, cell.Boolean(true))
	assertCell(t, g, 2, 1, cell.Boolean(false))
	_, ok := g.Get(2, 0)
	assert.False(t, ok, "NULL must leave (2,0) absent")

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 5, report.CellsWritten)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.Columns)
}

func TestTranscribe_ScenarioB_TextVerbatim(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{{Name: "Greeting", Type: resultset.TypeNVarChar}},
		[]resultset.Value{resultset.String("hello")},
		[]resultset.Value{resultset.String("  MiXeD case  ")},
	)

	g, _ := transcribe(t, New(), rs)

	assertCell(t, g, 1, 0, cell.Text("hello"))
	assertCell(t, g, 2, 0, cell.Text("  MiXeD case  "))
}

func TestTranscribe_ScenarioC_EmptyResultKeepsHeader(t *testing.T) {
	rs := mustResult(t, []resultset.Column{
		{Name: "A", Type: resultset.TypeIntN},
		{Name: "B", Type: resultset.TypeBigVarChar},
		{Name: "C", Type: resultset.TypeGUID},
	})

	g, report := transcribe(t, New(), rs)

	assert.Equal(t, 3, g.Len())
	rows, cols := g.Dimensions()
	assert.Equal(t, uint32(1), rows)
	assert.Equal(t, uint32(3), cols)
	assertCell(t, g, 0, 2, cell.Text("C"))
	assert.Empty(t, report.Diagnostics)
}

func TestTranscribe_HeaderAndRowOffset(t *testing.T) {
	cols := []resultset.Column{
		{Name: "n", Type: resultset.TypeIntN},
		{Name: "label", Type: resultset.TypeBigVarChar},
		{Name: "amount", Type: resultset.TypeNumericN},
	}
	var rows [][]resultset.Value
	for i := 0; i < 25; i++ {
		rows = append(rows, []resultset.Value{
			resultset.I32(int32(i * 1000)),
			resultset.String(fmt.Sprintf("row-%d", i)),
			resultset.Numeric(decimal.New(int64(i)*100+5, -2)),
		})
	}
	rs := mustResult(t, cols, rows...)

	g, _ := transcribe(t, New(), rs)

	for c, col := range cols {
		assertCell(t, g, 0, uint32(c), cell.Text(col.Name))
	}
	for i := 0; i < 25; i++ {
		r := uint32(i + 1)
		assertCell(t, g, r, 0, cell.Integer(int64(i*1000)))
		assertCell(t, g, r, 1, cell.Text(fmt.Sprintf("row-%d", i)))
		assertCell(t, g, r, 2, cell.Integer(int64(i)))
	}
	assert.Equal(t, 3+25*3, g.Len())
}

func TestTranscribe_IntegerWidths(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{{Name: "v", Type: resultset.TypeIntN}},
		[]resultset.Value{resultset.U8(200)},
		[]resultset.Value{resultset.I64(math.MaxInt64)},
		[]resultset.Value{resultset.I64(-5)},
		[]resultset.Value{resultset.Null(resultset.WireI64)},
		[]resultset.Value{resultset.Float(1.5)},
	)

	g, report := transcribe(t, New(), rs)

	assertCell(t, g, 1, 0, cell.Integer(200))
	assertCell(t, g, 2, 0, cell.Integer(int64(int32(-1))))
	assertCell(t, g, 3, 0, cell.Integer(-5))
	_, ok := g.Get(4, 0)
	assert.False(t, ok)
	_, ok = g.Get(5, 0)
	assert.False(t, ok, "value matching neither width is skipped")
	assert.Equal(t, 2, report.Skipped)
}

func TestTranscribe_UnknownTypeIsDiagnosed(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{
			{Name: "ID", Type: resultset.TypeIntN},
			{Name: "Price", Type: resultset.TypeMoneyN, DatabaseType: "MONEY"},
			{Name: "Name", Type: resultset.TypeNVarChar},
		},
		[]resultset.Value{resultset.U8(1), resultset.Raw(resultset.WireNumeric, "9.99"), resultset.String("pen")},
		[]resultset.Value{resultset.U8(2), resultset.Raw(resultset.WireNumeric, "1.50"), resultset.String("ink")},
	)

	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: buf})

	g, report := transcribe(t, New(WithLogger(log)), rs)

	assertCell(t, g, 1, 0, cell.Integer(1))
	assertCell(t, g, 1, 2, cell.Text("pen"))
	assertCell(t, g, 2, 2, cell.Text("ink"))
	_, ok := g.Get(1, 1)
	assert.False(t, ok)

	require.Len(t, report.Diagnostics, 2)
	assert.Equal(t, Diagnostic{Row: 0, Column: 1, Name: "Price", Type: resultset.TypeMoneyN, DatabaseType: "MONEY"}, report.Diagnostics[0])

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Price", entry["column"])
	assert.Equal(t, "MoneyN", entry["type"])
}

func TestTranscribe_StructuralFailureAborts(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{{Name: "amount", Type: resultset.TypeDecimalN}},
		[]resultset.Value{resultset.Raw(resultset.WireNumeric, "1.00")},
		[]resultset.Value{resultset.Raw(resultset.WireNumeric, "not-a-number")},
		[]resultset.Value{resultset.Raw(resultset.WireNumeric, "3.00")},
	)

	g := sheet.NewGrid()
	_, err := New().Transcribe([]*resultset.ResultSet{rs}, g)

	require.Error(t, err)
	assert.True(t, errs.IsDecodeFailed(err))
	assert.Contains(t, err.Error(), "row 1, column 0 (amount)")
	_, ok := g.Get(3, 0)
	assert.False(t, ok, "rows after the failure are not written")
}

func TestTranscribe_SinkFailureAborts(t *testing.T) {
	rs := mustResult(t,
		[]resultset.Column{{Name: "ID", Type: resultset.TypeIntN}},
		[]resultset.Value{resultset.U8(1)},
		[]resultset.Value{resultset.U8(2)},
	)

	boom := errors.New("sheet is full")
	writes := 0
	sink := SinkFunc(func(row, col uint32, v cell.Value) error {
		writes++
		if row == 1 {
			return boom
		}
		return nil
	})

	_, err := New().Transcribe([]*resultset.ResultSet{rs}, sink)
	require.Error(t, err)
	assert.True(t, errs.IsWriteFailed(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, writes)
}

func TestTranscribe_OnlyFirstResult(t *testing.T) {
	first := mustResult(t,
		[]resultset.Column{{Name: "a", Type: resultset.TypeIntN}},
		[]resultset.Value{resultset.U8(1)},
	)
	second := mustResult(t,
		[]resultset.Column{{Name: "b", Type: resultset.TypeBigVarChar}},
		[]resultset.Value{resultset.String("lost")},
	)

	g, report := transcribe(t, New(), first, second)

	assert.Equal(t, 2, g.Len())
	assertCell(t, g, 0, 0, cell.Text("a"))
	assert.Equal(t, 1, report.DiscardedResults)
}

func TestTranscribe_NoResults(t *testing.T) {
	_, err := New().Transcribe(nil, sheet.NewGrid())
	assert.True(t, errs.IsInvalidInput(err))
}

func TestTranscribe_Idempotent(t *testing.T) {
	rs := mixedResult(t, 40)

	g1, r1 := transcribe(t, New(), rs)
	g2, r2 := transcribe(t, New(), rs)

	assert.Equal(t, g1, g2)
	assert.Equal(t, r1, r2)
}

func TestTranscribe_ParallelMatchesSequential(t *testing.T) {
	rs := mixedResult(t, 200)

	seq, seqReport := transcribe(t, New(), rs)
	par, parReport := transcribe(t, New(WithWorkers(8)), rs)

	assert.Equal(t, seq, par)
	assert.Equal(t, seqReport, parReport)
}

func TestTranscribe_ParallelReportsLowestFailingRow(t *testing.T) {
	cols := []resultset.Column{{Name: "v", Type: resultset.TypeIntN}}
	var rows [][]resultset.Value
	for i := 0; i < 50; i++ {
		v := resultset.U8(uint8(i))
		if i == 10 || i == 30 {
			v = resultset.Raw(resultset.WireU8, "bad")
		}
		rows = append(rows, []resultset.Value{v})
	}
	rs := mustResult(t, cols, rows...)

	g := sheet.NewGrid()
	_, err := New(WithWorkers(4)).Transcribe([]*resultset.ResultSet{rs}, g)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 10,")
	_, ok := g.Get(10, 0)
	assert.True(t, ok, "rows before the failure are emitted")
	_, ok = g.Get(11, 0)
	assert.False(t, ok)
}

func TestTranscribe_ParallelStopsAtFailure(t *testing.T) {
	tests := []struct {
		name   string
		bad    []int
		lowest int
	}{
		{"first row", []int{0}, 0},
		{"last row", []int{199}, 199},
		{"adjacent rows", []int{120, 121}, 120},
		{"many rows", []int{3, 90, 150, 180}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := []resultset.Column{{Name: "v", Type: resultset.TypeIntN}}
			rows := make([][]resultset.Value, 200)
			for i := range rows {
				rows[i] = []resultset.Value{resultset.U8(uint8(i))}
			}
			for _, i := range tt.bad {
				rows[i] = []resultset.Value{resultset.Raw(resultset.WireU8, "bad")}
			}

			g := sheet.NewGrid()
			_, err := New(WithWorkers(3)).Transcribe([]*resultset.ResultSet{mustResult(t, cols, rows...)}, g)

			require.Error(t, err)
			assert.True(t, errs.IsDecodeFailed(err))
			assert.Contains(t, err.Error(), fmt.Sprintf("row %d,", tt.lowest))
			rowCount, _ := g.Dimensions()
			assert.Equal(t, uint32(tt.lowest+1), rowCount, "header plus every row before the failure")
		})
	}
}

func mixedResult(t testing.TB, n int) *resultset.ResultSet {
	cols := []resultset.Column{
		{Name: "id", Type: resultset.TypeIntN},
		{Name: "flag", Type: resultset.TypeBitN},
		{Name: "name", Type: resultset.TypeBigVarChar},
		{Name: "at", Type: resultset.TypeDatetime2},
		{Name: "blob", Type: resultset.TypeBigVarBin},
		{Name: "price", Type: resultset.TypeNumericN},
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var rows [][]resultset.Value
	for i := 0; i < n; i++ {
		id := resultset.I64(int64(i) << 20)
		if i%3 == 0 {
			id = resultset.U8(uint8(i))
		}
		flag := resultset.Bit(i%2 == 0)
		if i%7 == 0 {
			flag = resultset.Null(resultset.WireBit)
		}
		rows = append(rows, []resultset.Value{
			id,
			flag,
			resultset.String(fmt.Sprintf("item %d", i)),
			resultset.DateTime(base.Add(time.Duration(i) * time.Hour)),
			resultset.Binary([]byte{byte(i)}),
			resultset.Numeric(decimal.New(int64(i)*1234, -3)),
		})
	}
	return mustResult(t, cols, rows...)
}

func BenchmarkTranscribe(b *testing.B) {
	rs := mixedResult(b, 1000)
	e := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Transcribe([]*resultset.ResultSet{rs}, sheet.NewGrid()); err != nil {
			b.Fatal(err)
		}
	}
}

// Package sheet holds the grid sinks the transcription engine writes into
// and the persisters that store a finished workbook.
package sheet

import (
	"io"
	"sort"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/olekukonko/tablewriter"
)

// Writer is the write contract shared by every grid in this package.
type Writer interface {
	Write(row, col uint32, v cell.Value) error
}

// Coord addresses one cell.
type Coord struct {
	Row uint32
	Col uint32
}

// Grid is an in-memory sink. It rejects a second write to the same cell.
type Grid struct {
	cells map[Coord]cell.Value
	rows  uint32
	cols  uint32
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[Coord]cell.Value)}
}

// Write stores v at (row, col). Null values are accepted and leave the cell
// absent, which is indistinguishable from never writing it.
func (g *Grid) Write(row, col uint32, v cell.Value) error {
	c := Coord{Row: row, Col: col}
	if _, ok := g.cells[c]; ok {
		return errs.Newf(errs.ErrKindInvalidInput, "cell (%d,%d) written twice", row, col)
	}
	if v.Kind() == cell.KindNull {
		return nil
	}
	g.cells[c] = v
	if row+1 > g.rows {
		g.rows = row + 1
	}
	if col+1 > g.cols {
		g.cols = col + 1
	}
	return nil
}

// Get returns the value at (row, col).
func (g *Grid) Get(row, col uint32) (cell.Value, bool) {
	v, ok := g.cells[Coord{Row: row, Col: col}]
	return v, ok
}

// Len returns the number of stored cells.
func (g *Grid) Len() int { return len(g.cells) }

// Dimensions returns one past the highest written row and column.
func (g *Grid) Dimensions() (rows, cols uint32) { return g.rows, g.cols }

// Coords returns the written coordinates in row-major order.
func (g *Grid) Coords() []Coord {
	out := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Render prints the grid as a text table, row 0 as the header.
func (g *Grid) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)

	if g.rows > 0 {
		table.SetHeader(g.line(0))
	}
	for r := uint32(1); r < g.rows; r++ {
		table.Append(g.line(r))
	}
	table.Render()
}

func (g *Grid) line(row uint32) []string {
	out := make([]string, g.cols)
	for c := uint32(0); c < g.cols; c++ {
		if v, ok := g.Get(row, c); ok {
			out[c] = v.String()
		}
	}
	return out
}

// Tee writes every cell to each writer in turn, stopping at the first error.
type Tee []Writer

func (t Tee) Write(row, col uint32, v cell.Value) error {
	for _, w := range t {
		if err := w.Write(row, col, v); err != nil {
			return err
		}
	}
	return nil
}

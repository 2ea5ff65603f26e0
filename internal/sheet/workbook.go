package sheet

import (
	"bytes"
	"io"

	"github.com/koustreak/sqlsheet/internal/cell"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name a new workbook starts with.
const DefaultSheet = "Sheet1"

// ContentType is the MIME type of an .xlsx document.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook is a single-worksheet xlsx document used as a grid sink.
// Grid coordinates are 0-based; the worksheet's are 1-based.
type Workbook struct {
	f     *excelize.File
	sheet string
}

// NewWorkbook creates an empty workbook whose only worksheet is named name
// (DefaultSheet when empty).
func NewWorkbook(name string) (*Workbook, error) {
	f := excelize.NewFile()
	if name == "" {
		name = DefaultSheet
	}
	if name != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, name); err != nil {
			_ = f.Close()
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid sheet name", err)
		}
	}
	return &Workbook{f: f, sheet: name}, nil
}

// Sheet returns the worksheet name.
func (w *Workbook) Sheet() string { return w.sheet }

// Write sets the cell at (row, col). Null and Unrepresentable values leave
// the cell empty.
func (w *Workbook) Write(row, col uint32, v cell.Value) error {
	ref, err := cellName(row, col)
	if err != nil {
		return err
	}
	val := v.Any()
	if val == nil {
		return nil
	}
	if err := w.f.SetCellValue(w.sheet, ref, val); err != nil {
		return errs.Wrap(errs.ErrKindWriteFailed, "set cell "+ref, err)
	}
	return nil
}

// CellValue returns the formatted value at (row, col).
func (w *Workbook) CellValue(row, col uint32) (string, error) {
	ref, err := cellName(row, col)
	if err != nil {
		return "", err
	}
	v, err := w.f.GetCellValue(w.sheet, ref)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindQueryFailed, "get cell "+ref, err)
	}
	return v, nil
}

// Rows returns every row of the worksheet as text.
func (w *Workbook) Rows() ([][]string, error) {
	rows, err := w.f.GetRows(w.sheet)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read rows", err)
	}
	return rows, nil
}

// SaveAs writes the document to a local path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return errs.Wrap(errs.ErrKindWriteFailed, "save workbook to "+path, err)
	}
	return nil
}

// WriteTo streams the document to out.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	n, err := w.f.WriteTo(out)
	if err != nil {
		return n, errs.Wrap(errs.ErrKindWriteFailed, "encode workbook", err)
	}
	return n, nil
}

// Bytes returns the encoded document.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases temporary files held by the document.
func (w *Workbook) Close() error {
	return w.f.Close()
}

func cellName(row, col uint32) (string, error) {
	ref, err := excelize.CoordinatesToCellName(int(col)+1, int(row)+1)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindWriteFailed, "cell out of range", err)
	}
	return ref, nil
}

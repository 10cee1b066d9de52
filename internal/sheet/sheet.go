package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorksheetName is the name of the single worksheet written to every artifact.
const WorksheetName = "Sheet 1"

// ErrDuplicateColumn is returned when a header label appears more than once.
var ErrDuplicateColumn = errors.New("duplicate column")

// DuplicateColumnError names the repeated header label.
type DuplicateColumnError struct {
	Label string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("column %q appears more than once", e.Label)
}

func (e *DuplicateColumnError) Unwrap() error { return ErrDuplicateColumn }

// Row maps a trimmed column label to its cell.
type Row map[string]Cell

// Get returns the cell under label, or Absent when the column is missing.
func (r Row) Get(label string) Cell {
	c, ok := r[label]
	if !ok {
		return Absent
	}
	return c
}

// Sheet is a tabular dataset: an ordered header and its data rows.
type Sheet struct {
	Header []string
	Rows   []Row
}

// RowLabel returns the label users see for the data row at index i. Row 1 of
// the workbook is the header, so data row 0 sits on workbook row 2.
func RowLabel(i int) string {
	return "Row #" + strconv.Itoa(i+2)
}

// HasColumn reports whether label is one of the header columns.
func (s *Sheet) HasColumn(label string) bool {
	for _, h := range s.Header {
		if h == label {
			return true
		}
	}
	return false
}

// Column returns the cells of one column, in row order.
func (s *Sheet) Column(label string) []Cell {
	out := make([]Cell, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Get(label)
	}
	return out
}

// Clone returns a deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	c := &Sheet{
		Header: append([]string(nil), s.Header...),
		Rows:   make([]Row, len(s.Rows)),
	}
	for i, r := range s.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		c.Rows[i] = nr
	}
	return c
}

// ReadXLSX parses the first worksheet of an xlsx workbook. The first row is
// the header; header labels are trimmed and must be unique. Fully blank rows
// at the end of the sheet are dropped. Numeric cells keep both their
// displayed text and their stored number.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	ws := names[0]

	rows, err := f.GetRows(ws)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		return &Sheet{}, nil
	}

	s := &Sheet{Header: make([]string, len(rows[0]))}
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		label := strings.TrimSpace(h)
		if label != "" && seen[label] {
			return nil, &DuplicateColumnError{Label: label}
		}
		seen[label] = true
		s.Header[i] = label
	}

	for ri, raw := range rows[1:] {
		row := make(Row, len(s.Header))
		for ci, label := range s.Header {
			if ci >= len(raw) || raw[ci] == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(ws, axis)
			if err != nil {
				return nil, fmt.Errorf("reading cell %s: %w", axis, err)
			}
			switch typ {
			case excelize.CellTypeNumber, excelize.CellTypeUnset:
				stored, err := f.GetCellValue(ws, axis, excelize.Options{RawCellValue: true})
				if err != nil {
					return nil, fmt.Errorf("reading cell %s: %w", axis, err)
				}
				row[label] = FormattedNumber(raw[ci], stored)
			default:
				row[label] = Present(raw[ci])
			}
		}
		s.Rows = append(s.Rows, row)
	}

	// GetRows can still report formatted-but-empty rows at the end.
	for len(s.Rows) > 0 && len(s.Rows[len(s.Rows)-1]) == 0 {
		s.Rows = s.Rows[:len(s.Rows)-1]
	}
	return s, nil
}

// WriteXLSX writes the sheet as a single-worksheet workbook.
func WriteXLSX(w io.Writer, s *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", WorksheetName); err != nil {
		return fmt.Errorf("naming worksheet: %w", err)
	}

	for ci, label := range s.Header {
		axis, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(WorksheetName, axis, label); err != nil {
			return fmt.Errorf("writing header %q: %w", label, err)
		}
	}

	for ri, row := range s.Rows {
		for ci, label := range s.Header {
			c := row.Get(label)
			if c.IsAbsent() {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return err
			}
			if err := setCell(f, axis, c); err != nil {
				return fmt.Errorf("writing cell %s: %w", axis, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, axis string, c Cell) error {
	if c.Kind() == KindNumber {
		if n, err := strconv.ParseFloat(c.Raw(), 64); err == nil {
			return f.SetCellFloat(WorksheetName, axis, n, -1, 64)
		}
	}
	return f.SetCellStr(WorksheetName, axis, c.String())
}

package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind tells whether a present cell held text or a number in the workbook.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
)

// ErrInvalidCell is returned when a cell cannot be read as the value its
// column requires.
var ErrInvalidCell = errors.New("invalid cell")

// Cell is a single spreadsheet value that is either present or absent.
// A blank workbook cell is absent, the same way a spreadsheet reader
// reports a null rather than an empty string.
type Cell struct {
	value   string
	raw     string // stored number behind a formatted value
	kind    Kind
	present bool
}

// Absent is the null cell.
var Absent = Cell{}

// Present returns a text cell. An empty string is still absent.
func Present(v string) Cell {
	if v == "" {
		return Absent
	}
	return Cell{value: v, kind: KindString, present: true}
}

// Number returns a numeric cell whose displayed and stored forms are both v.
func Number(v string) Cell {
	return FormattedNumber(v, v)
}

// FormattedNumber returns a numeric cell that displays as display and
// stores raw, as a workbook does when the cell has a number format.
func FormattedNumber(display, raw string) Cell {
	if display == "" && raw == "" {
		return Absent
	}
	return Cell{value: display, raw: raw, kind: KindNumber, present: true}
}

// Int returns a numeric cell for n.
func Int(n int64) Cell {
	return Number(strconv.FormatInt(n, 10))
}

func (c Cell) IsAbsent() bool { return !c.present }

func (c Cell) Kind() Kind { return c.kind }

// Value returns the displayed cell text and whether the cell is present.
func (c Cell) Value() (string, bool) {
	return c.value, c.present
}

// String returns the displayed text, or "" for an absent cell.
func (c Cell) String() string {
	return c.value
}

// Equal reports whether two cells hold the same value.
func (c Cell) Equal(o Cell) bool {
	return c == o
}

// Raw returns the stored number of a numeric cell, or the text of any other
// cell.
func (c Cell) Raw() string {
	if c.kind == KindNumber && c.raw != "" {
		return c.raw
	}
	return c.value
}

// Trimmed applies the import coercion: text has surrounding whitespace
// removed, numbers pass through unchanged.
func (c Cell) Trimmed() string {
	if c.kind == KindString {
		return strings.TrimSpace(c.value)
	}
	return c.value
}

// Int64 parses the cell as an integer identifier. Numeric cells are read
// from their stored number, so a number format such as "1,001" does not
// matter. Floats ("12.0") are accepted when they have no fractional part.
func (c Cell) Int64() (int64, error) {
	if !c.present {
		return 0, fmt.Errorf("%w: cell is empty", ErrInvalidCell)
	}
	s := strings.TrimSpace(c.Raw())
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%w: not an integer: %q", ErrInvalidCell, c.value)
	}
	return int64(f), nil
}

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Cell is one raw value. Valid is false for the missing marker.
type Cell struct {
	Value string
	Valid bool
}

// Table is the raw, string-valued form of a delimited input file.
type Table struct {
	Name   string
	Header []string
	Rows   [][]Cell
	// HeaderRead is set when the first record of the file held the column names.
	HeaderRead bool
}

// Line returns the 1-based file line of data row i.
func (t *Table) Line(i int) int {
	if t.HeaderRead {
		return i + 2
	}
	return i + 1
}

func (t *Table) Columns() []string { return t.Header }

func (t *Table) NRows() int { return len(t.Rows) }

func (t *Table) IsMissing(row, col int) bool { return !t.Rows[row][col].Valid }

// Text returns the raw cell value, or NA for a missing cell.
func (t *Table) Text(row, col int) string {
	c := t.Rows[row][col]
	if !c.Valid {
		return "NA"
	}
	return c.Value
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Frame is a numeric table. NaN is the missing marker.
// Stages never modify a Frame they receive; use Clone before writing.
type Frame struct {
	Name   string
	Header []string
	Data   [][]float64
}

// NewFrame builds a frame over the given header and rows without copying.
func NewFrame(name string, header []string, data [][]float64) *Frame {
	return &Frame{Name: name, Header: header, Data: data}
}

// Missing returns the missing marker.
func Missing() float64 { return math.NaN() }

// IsNA reports whether v is the missing marker.
func IsNA(v float64) bool { return math.IsNaN(v) }

func (f *Frame) Columns() []string { return f.Header }

func (f *Frame) NRows() int { return len(f.Data) }

func (f *Frame) IsMissing(row, col int) bool { return math.IsNaN(f.Data[row][col]) }

// Float returns the numeric cell value; used by the profiler for column statistics.
func (f *Frame) Float(row, col int) float64 { return f.Data[row][col] }

// Index returns the position of the named column.
func (f *Frame) Index(name string) (int, bool) {
	for i, h := range f.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	j, ok := f.Index(name)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(f.Data))
	for i, row := range f.Data {
		out[i] = row[j]
	}
	return out, nil
}

// Select copies the named columns, in order, into a row-major matrix.
func (f *Frame) Select(names []string) ([][]float64, error) {
	idx := make([]int, len(names))
	for k, n := range names {
		j, ok := f.Index(n)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", n)
		}
		idx[k] = j
	}
	out := make([][]float64, len(f.Data))
	for i, row := range f.Data {
		sel := make([]float64, len(idx))
		for k, j := range idx {
			sel[k] = row[j]
		}
		out[i] = sel
	}
	return out, nil
}

// MissingIn counts missing cells in the named column.
func (f *Frame) MissingIn(name string) int {
	j, ok := f.Index(name)
	if !ok {
		return 0
	}
	n := 0
	for _, row := range f.Data {
		if math.IsNaN(row[j]) {
			n++
		}
	}
	return n
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	header := make([]string, len(f.Header))
	copy(header, f.Header)
	data := make([][]float64, len(f.Data))
	for i, row := range f.Data {
		cp := make([]float64, len(row))
		copy(cp, row)
		data[i] = cp
	}
	return &Frame{Name: f.Name, Header: header, Data: data}
}

// Text formats one cell the way WriteCSV does.
func (f *Frame) Text(row, col int) string { return formatCell(f.Data[row][col]) }

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the frame with a header line. Missing cells are written as NA.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(f.Header))
	for _, row := range f.Data {
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

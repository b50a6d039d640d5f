package dataset

import "fmt"

// IOError indicates the input path could not be opened or read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError indicates a malformed row. Row is 1-based and counts the header line.
// Column is set when the failure concerns a single cell.
type ParseError struct {
	Path   string
	Row    int
	Column string
	Want   int
	Got    int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Err != nil && e.Column != "":
		return fmt.Sprintf("parse %s: row %d, column %q: %v", e.Path, e.Row, e.Column, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("parse %s: row %d: %v", e.Path, e.Row, e.Err)
	default:
		return fmt.Sprintf("parse %s: row %d has %d fields, header has %d", e.Path, e.Row, e.Got, e.Want)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// LoadOptions controls how a delimited file becomes a Table.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Header marks the first record as column names. Without it columns are V1..Vn.
	Header bool
	// NATokens are the cell values (after trimming spaces) treated as missing.
	NATokens []string
	// XLSX sheet selection: by name, else by 1-based index.
	Sheet      string
	SheetIndex int
}

// DefaultLoadOptions returns the options used for the HR train/test files.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Header:     true,
		NATokens:   []string{"", "NA"},
		SheetIndex: 1,
	}
}

// recordReader turns a file into raw records (header included).
type recordReader interface {
	CanRead(path string) bool
	ReadRecords(path string, opt LoadOptions) ([][]string, error)
}

var readers []recordReader

func register(r recordReader) { readers = append(readers, r) }

func init() {
	register(xlsxReader{})
	register(csvReader{})
}

// Load reads a delimited (or .xlsx) file into a Table, turning NA tokens into missing cells.
func Load(path string, opt LoadOptions) (*Table, error) {
	var rr recordReader = csvReader{}
	for _, r := range readers {
		if r.CanRead(path) {
			rr = r
			break
		}
	}
	records, err := rr.ReadRecords(path, opt)
	if err != nil {
		return nil, err
	}
	t := &Table{Name: filepath.Base(path), HeaderRead: opt.Header}
	if len(records) == 0 {
		return t, nil
	}

	na := make(map[string]struct{}, len(opt.NATokens))
	for _, tok := range opt.NATokens {
		na[strings.TrimSpace(tok)] = struct{}{}
	}

	body := records
	if opt.Header {
		t.Header = make([]string, len(records[0]))
		for i, h := range records[0] {
			t.Header[i] = strings.TrimSpace(h)
		}
		body = records[1:]
	} else {
		t.Header = make([]string, len(records[0]))
		for i := range t.Header {
			t.Header[i] = fmt.Sprintf("V%d", i+1)
		}
	}

	ncol := len(t.Header)
	t.Rows = make([][]Cell, 0, len(body))
	for i, rec := range body {
		if len(rec) != ncol {
			return nil, &ParseError{Path: path, Row: t.Line(i), Want: ncol, Got: len(rec)}
		}
		row := make([]Cell, ncol)
		for j, raw := range rec {
			v := strings.TrimSpace(raw)
			if _, missing := na[v]; missing {
				continue
			}
			row[j] = Cell{Value: v, Valid: true}
		}
		t.Rows = append(t.Rows, row)
	}
	slog.Debug("loaded table", "file", t.Name, "rows", len(t.Rows), "columns", ncol)
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

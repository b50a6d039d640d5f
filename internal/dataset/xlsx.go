package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".xlsx")
}

// ReadRecords extracts the rows of one worksheet. Short rows (trailing empty cells are
// omitted by the format) are padded to the width of the first row.
func (xlsxReader) ReadRecords(p string, opt LoadOptions) ([][]string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, &IOError{Path: p, Err: err}
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, &ParseError{Path: p, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	wb := workbook{zr: zr}
	target, err := wb.sheetPath(opt.Sheet, opt.SheetIndex)
	if err != nil {
		return nil, &ParseError{Path: p, Err: err}
	}
	sheet := wb.file(target)
	if sheet == nil {
		return nil, &ParseError{Path: p, Err: fmt.Errorf("worksheet %s not found", target)}
	}
	rr := &sheetRows{dec: xml.NewDecoder(bytes.NewReader(sheet)), shared: parseSharedStrings(wb.file("xl/sharedStrings.xml"))}

	var out [][]string
	width := 0
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		if width == 0 {
			width = len(row)
		}
		if len(row) < width {
			tmp := make([]string, width)
			copy(tmp, row)
			row = tmp
		}
		out = append(out, row)
	}
	return out, nil
}

type workbook struct {
	zr *zip.Reader
}

func (w workbook) file(name string) []byte {
	for _, f := range w.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

type sheetEntry struct {
	name string
	id   int
	rid  string
}

// sheetPath resolves a sheet name or 1-based index to its ZIP entry.
func (w workbook) sheetPath(name string, index int) (string, error) {
	sheets := w.sheets()
	rels := w.relationships()
	if name != "" {
		var names []string
		for _, s := range sheets {
			if strings.EqualFold(s.name, name) {
				if rel, ok := rels[s.rid]; ok {
					return relPath(rel), nil
				}
			}
			names = append(names, s.name)
		}
		return "", fmt.Errorf("sheet %q not found; available: %s", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range sheets {
		if s.id == index {
			if rel, ok := rels[s.rid]; ok {
				return relPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", index), nil
}

func (w workbook) sheets() []sheetEntry {
	var out []sheetEntry
	walkElements(w.file("xl/workbook.xml"), "sheet", func(se xml.StartElement) {
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "sheetId":
				s.id = leadingInt(a.Value)
			case "id":
				s.rid = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func (w workbook) relationships() map[string]string {
	out := map[string]string{}
	walkElements(w.file("xl/_rels/workbook.xml.rels"), "Relationship", func(se xml.StartElement) {
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

// walkElements calls fn for every start element with the given local name.
func walkElements(data []byte, local string, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == local {
			fn(se)
		}
	}
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(se)
			}
		}
	}
}

type sheetRows struct {
	dec    *xml.Decoder
	shared []string
}

func (r *sheetRows) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				row = nil
				continue
			}
			if !inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			col := columnIndex(ref)
			if col < 0 {
				col = len(row)
			}
			val := r.cellValue(typ)
			if len(row) <= col {
				tmp := make([]string, col+1)
				copy(tmp, row)
				row = tmp
			}
			row[col] = val
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

// cellValue consumes tokens up to the end of the current <c> element.
func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						break
					}
					if end, ok := tk.(xml.EndElement); ok && (end.Name.Local == "v" || end.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				i := leadingInt(val)
				if i >= 0 && i < len(r.shared) {
					return r.shared[i]
				}
				return ""
			}
			return val
		}
	}
}

// columnIndex maps a cell reference such as "C12" to a 0-based column.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

func leadingInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// relPath converts a relationship target to a ZIP entry name.
func relPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

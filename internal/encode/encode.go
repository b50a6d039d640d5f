package encode

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

// EncodingGap records a value with no code in its column's table. It is
// recovered locally: the cell becomes missing and encoding continues.
type EncodingGap struct {
	Column string
	Value  string
	Row    int // 0-based data row
}

func (g EncodingGap) Error() string {
	return fmt.Sprintf("column %q row %d: value %q has no code", g.Column, g.Row, g.Value)
}

// GapReport aggregates encoding gaps per column and value.
type GapReport struct {
	Total  int
	Counts map[string]map[string]int
}

func newGapReport() *GapReport {
	return &GapReport{Counts: map[string]map[string]int{}}
}

func (r *GapReport) add(g EncodingGap) {
	byVal := r.Counts[g.Column]
	if byVal == nil {
		byVal = map[string]int{}
		r.Counts[g.Column] = byVal
	}
	byVal[g.Value]++
	r.Total++
}

// Column returns the total number of gaps in a column.
func (r *GapReport) Column(name string) int {
	n := 0
	for _, c := range r.Counts[name] {
		n += c
	}
	return n
}

// Columns lists the columns with at least one gap, sorted by name.
func (r *GapReport) Columns() []string {
	out := make([]string, 0, len(r.Counts))
	for k := range r.Counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Markdown renders the gaps as a bracketed section; empty when there are none.
func (r *GapReport) Markdown() string {
	if r == nil || r.Total == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[ENCODING GAPS]\n")
	fmt.Fprintf(&b, "Values without a code became missing: %d cells\n", r.Total)
	for _, col := range r.Columns() {
		type vc struct {
			v string
			n int
		}
		var vals []vc
		for v, n := range r.Counts[col] {
			vals = append(vals, vc{v, n})
		}
		sort.Slice(vals, func(i, j int) bool {
			if vals[i].n == vals[j].n {
				return vals[i].v < vals[j].v
			}
			return vals[i].n > vals[j].n
		})
		if len(vals) > 8 {
			vals = vals[:8]
		}
		fmt.Fprintf(&b, "- %s (%d):", col, r.Column(col))
		for i, x := range vals {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s(%d)", x.v, x.n)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Encode maps schema columns to their codes and parses every other column as a
// number. Missing cells stay missing. The input table is not modified.
func Encode(t *dataset.Table, s Schema) (*dataset.Frame, *GapReport, error) {
	gaps := newGapReport()
	ncol := len(t.Header)
	mappings := make([]*Mapping, ncol)
	for j, h := range t.Header {
		if m, ok := s.Lookup(h); ok {
			mappings[j] = &m
		}
	}

	header := make([]string, ncol)
	copy(header, t.Header)
	data := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]float64, ncol)
		for j, cell := range row {
			if !cell.Valid {
				out[j] = dataset.Missing()
				continue
			}
			if m := mappings[j]; m != nil {
				code, ok := m.Code(cell.Value)
				if !ok {
					g := EncodingGap{Column: m.Column, Value: cell.Value, Row: i}
					gaps.add(g)
					slog.Debug("encoding gap", "column", g.Column, "row", g.Row, "value", g.Value)
					out[j] = dataset.Missing()
					continue
				}
				out[j] = float64(code)
				continue
			}
			x, err := strconv.ParseFloat(cell.Value, 64)
			if err != nil {
				return nil, nil, &dataset.ParseError{Path: t.Name, Row: t.Line(i), Column: t.Header[j], Err: fmt.Errorf("value %q is not numeric", cell.Value)}
			}
			out[j] = x
		}
		data[i] = out
	}
	if gaps.Total > 0 {
		slog.Info("encoded with gaps", "table", t.Name, "cells", gaps.Total, "columns", len(gaps.Counts))
	}
	return dataset.NewFrame(t.Name, header, data), gaps, nil
}

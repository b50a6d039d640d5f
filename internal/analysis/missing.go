package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Source is any rectangular dataset with a missing marker. Both dataset.Table
// and dataset.Frame satisfy it.
type Source interface {
	Columns() []string
	NRows() int
	IsMissing(row, col int) bool
}

// numeric is implemented by sources with float64 cells.
type numeric interface {
	Float(row, col int) float64
}

// texter is implemented by sources that can render a cell for sample rows.
type texter interface {
	Text(row, col int) string
}

func columnIndex(src Source, column string) (int, error) {
	for i, c := range src.Columns() {
		if c == column {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown column %q", column)
}

// MissingCount returns the number of missing cells in a column.
func MissingCount(src Source, column string) (int, error) {
	j, err := columnIndex(src, column)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < src.NRows(); i++ {
		if src.IsMissing(i, j) {
			n++
		}
	}
	return n, nil
}

// MissingPercentage returns 100*missing/rows for a column. A source with no
// rows reports 0.
func MissingPercentage(src Source, column string) (float64, error) {
	n, err := MissingCount(src, column)
	if err != nil {
		return 0, err
	}
	rows := src.NRows()
	if rows == 0 {
		return 0, nil
	}
	return 100 * float64(n) / float64(rows), nil
}

// Pairs holds pairwise missingness counts. For columns i and j:
// RR both observed, RM i observed and j missing, MR i missing and j observed,
// MM both missing. Each matrix is len(Columns) square.
type Pairs struct {
	Columns []string
	RR      [][]int
	RM      [][]int
	MR      [][]int
	MM      [][]int
}

func square(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
	}
	return m
}

// PairwiseMissingness counts co-occurrence of observed and missing cells for
// every ordered pair of columns.
func PairwiseMissingness(src Source) *Pairs {
	cols := src.Columns()
	ncol := len(cols)
	p := &Pairs{Columns: append([]string(nil), cols...), RR: square(ncol), RM: square(ncol), MR: square(ncol), MM: square(ncol)}
	miss := make([]bool, ncol)
	for r := 0; r < src.NRows(); r++ {
		for j := 0; j < ncol; j++ {
			miss[j] = src.IsMissing(r, j)
		}
		for i := 0; i < ncol; i++ {
			for j := 0; j < ncol; j++ {
				switch {
				case !miss[i] && !miss[j]:
					p.RR[i][j]++
				case !miss[i] && miss[j]:
					p.RM[i][j]++
				case miss[i] && !miss[j]:
					p.MR[i][j]++
				default:
					p.MM[i][j]++
				}
			}
		}
	}
	return p
}

// PairCount is one co-missing column pair.
type PairCount struct {
	A, B  string
	Count int
}

// CoMissing lists the column pairs (i < j) that are missing together in at
// least one row, most frequent first.
func (p *Pairs) CoMissing() []PairCount {
	var out []PairCount
	for i := range p.Columns {
		for j := i + 1; j < len(p.Columns); j++ {
			if n := p.MM[i][j]; n > 0 {
				out = append(out, PairCount{A: p.Columns[i], B: p.Columns[j], Count: n})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Pattern is one distinct row missingness pattern.
type Pattern struct {
	// Missing[j] is true when column j is missing.
	Missing []bool
	Count   int
}

// NMissing returns the number of missing columns in the pattern.
func (p Pattern) NMissing() int {
	n := 0
	for _, m := range p.Missing {
		if m {
			n++
		}
	}
	return n
}

func (p Pattern) key() string {
	var b strings.Builder
	for _, m := range p.Missing {
		if m {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Patterns groups rows by their missingness pattern. Frequent patterns come
// first; ties go to the pattern with fewer missing columns.
func Patterns(src Source) []Pattern {
	ncol := len(src.Columns())
	index := map[string]int{}
	var out []Pattern
	for r := 0; r < src.NRows(); r++ {
		p := Pattern{Missing: make([]bool, ncol)}
		for j := 0; j < ncol; j++ {
			p.Missing[j] = src.IsMissing(r, j)
		}
		k := p.key()
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		p.Count = 1
		index[k] = len(out)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		ni, nj := out[i].NMissing(), out[j].NMissing()
		if ni != nj {
			return ni < nj
		}
		return out[i].key() > out[j].key()
	})
	return out
}

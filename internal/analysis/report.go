package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Options controls what Profile collects.
type Options struct {
	// SampleRows is how many leading rows to include; 0 disables samples.
	SampleRows int
	// MaxPatterns limits the patterns rendered in Markdown; 0 means 10.
	MaxPatterns int
	// MaxPairs limits the co-missing pairs rendered in Markdown; 0 means 10.
	MaxPairs int
}

// DefaultOptions returns reasonable defaults for a missingness profile.
func DefaultOptions() Options {
	return Options{SampleRows: 5, MaxPatterns: 10, MaxPairs: 10}
}

// Report is a markdown-friendly missingness profile of one dataset.
type Report struct {
	Name     string
	Rows     int
	Complete int
	Cols     []ColumnSummary
	Pairs    *Pairs
	Patterns []Pattern
	Samples  [][]string
	Warnings []string
	opt      Options
}

// ColumnSummary captures missingness and, for numeric sources, statistics
// over the observed cells.
type ColumnSummary struct {
	Name    string
	Missing int
	Percent float64
	// Numeric is set when Min..Std were computed.
	Numeric bool
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
}

// Observed returns the number of non-missing cells.
func (c ColumnSummary) Observed(rows int) int { return rows - c.Missing }

// Profile builds a Report for src. The name is used as the report title.
func Profile(name string, src Source, opt Options) *Report {
	cols := src.Columns()
	ncol := len(cols)
	rows := src.NRows()
	rep := &Report{Name: name, Rows: rows, opt: opt}

	// Welford accumulators per column
	type colAcc struct {
		miss int
		n    int
		mean float64
		m2   float64
		min  float64
		max  float64
	}
	acc := make([]*colAcc, ncol)
	for j := range acc {
		acc[j] = &colAcc{min: math.Inf(1), max: math.Inf(-1)}
	}
	num, isNumeric := src.(numeric)

	for i := 0; i < rows; i++ {
		complete := true
		for j := 0; j < ncol; j++ {
			c := acc[j]
			if src.IsMissing(i, j) {
				c.miss++
				complete = false
				continue
			}
			if !isNumeric {
				continue
			}
			x := num.Float(i, j)
			c.n++
			if x < c.min {
				c.min = x
			}
			if x > c.max {
				c.max = x
			}
			delta := x - c.mean
			c.mean += delta / float64(c.n)
			c.m2 += delta * (x - c.mean)
		}
		if complete {
			rep.Complete++
		}
	}

	rep.Cols = make([]ColumnSummary, ncol)
	for j, c := range acc {
		s := ColumnSummary{Name: cols[j], Missing: c.miss}
		if rows > 0 {
			s.Percent = 100 * float64(c.miss) / float64(rows)
		}
		if isNumeric && c.n > 0 {
			s.Numeric = true
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
		}
		if rows > 0 && c.miss == rows {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s has no observed values", cols[j]))
		}
		rep.Cols[j] = s
	}

	rep.Pairs = PairwiseMissingness(src)
	rep.Patterns = Patterns(src)

	if tx, ok := src.(texter); ok && opt.SampleRows > 0 {
		n := opt.SampleRows
		if n > rows {
			n = rows
		}
		for i := 0; i < n; i++ {
			row := make([]string, ncol)
			for j := range row {
				row[j] = tx.Text(i, j)
			}
			rep.Samples = append(rep.Samples, row)
		}
	}
	return rep
}

// Column returns the summary for a named column.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Markdown renders the report as bracketed sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Complete rows: %d (%.1f%%)\n\n", r.Complete, pct(r.Complete, r.Rows)))

	b.WriteString("[MISSINGNESS]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: missing %d of %d (%.1f%%)", safeName(c.Name), c.Missing, r.Rows, c.Percent))
		if c.Numeric {
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		}
		b.WriteString("\n")
	}

	if r.Pairs != nil {
		pairs := r.Pairs.CoMissing()
		if len(pairs) > 0 {
			b.WriteString("\n[CO-MISSING PAIRS]\n")
			lim := limit(r.opt.MaxPairs, len(pairs))
			for _, p := range pairs[:lim] {
				b.WriteString(fmt.Sprintf("- %s & %s: %d\n", p.A, p.B, p.Count))
			}
		}
	}

	if len(r.Patterns) > 0 {
		b.WriteString("\n[MISSING PATTERNS]\n")
		lim := limit(r.opt.MaxPatterns, len(r.Patterns))
		for _, p := range r.Patterns[:lim] {
			var names []string
			for j, m := range p.Missing {
				if m {
					names = append(names, r.Cols[j].Name)
				}
			}
			if len(names) == 0 {
				b.WriteString(fmt.Sprintf("- n=%d: complete\n", p.Count))
				continue
			}
			b.WriteString(fmt.Sprintf("- n=%d: missing %s\n", p.Count, strings.Join(names, ", ")))
		}
		if lim < len(r.Patterns) {
			b.WriteString(fmt.Sprintf("- (%d more patterns)\n", len(r.Patterns)-lim))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func limit(upto, n int) int {
	if upto <= 0 {
		upto = 10
	}
	if n < upto {
		return n
	}
	return upto
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

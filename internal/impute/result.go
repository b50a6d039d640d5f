package impute

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

// Stacked frame bookkeeping columns.
const (
	ImpColumn = ".imp"
	IDColumn  = ".id"
)

// Result holds the completed draws of one imputation run.
type Result struct {
	Source *dataset.Frame
	Draws  []*dataset.Frame
	// Order lists the imputed columns in visiting order.
	Order   []string
	Methods map[string]Method
	// Imputed maps each imputed column to the source rows that were filled.
	Imputed map[string][]int
	// Skipped lists columns assigned none that keep missing values.
	Skipped []string
}

// Draw returns completed draw k (1-based).
func (r *Result) Draw(k int) (*dataset.Frame, error) {
	if k < 1 || k > len(r.Draws) {
		return nil, fmt.Errorf("draw %d out of range 1..%d", k, len(r.Draws))
	}
	return r.Draws[k-1], nil
}

// Stack concatenates the draws into one frame of m*n rows with leading .imp
// (1-based draw) and .id (1-based source row) columns.
func (r *Result) Stack() *dataset.Frame {
	if len(r.Draws) == 0 {
		return dataset.NewFrame(r.Source.Name, append([]string{ImpColumn, IDColumn}, r.Source.Header...), nil)
	}
	first := r.Draws[0]
	header := append([]string{ImpColumn, IDColumn}, first.Header...)
	data := make([][]float64, 0, len(r.Draws)*first.NRows())
	for d, g := range r.Draws {
		for i, row := range g.Data {
			out := make([]float64, 0, len(row)+2)
			out = append(out, float64(d+1), float64(i+1))
			out = append(out, row...)
			data = append(data, out)
		}
	}
	return dataset.NewFrame(first.Name, header, data)
}

// ColumnSummary compares observed values with the imputed ones.
type ColumnSummary struct {
	Column       string
	Method       Method
	Imputed      int
	ObservedMean float64
	// DrawMeans is the mean of the imputed cells in each draw.
	DrawMeans []float64
}

// Summary reports one row per imputed column.
func (r *Result) Summary() []ColumnSummary {
	out := make([]ColumnSummary, 0, len(r.Order))
	for _, name := range r.Order {
		j, _ := r.Source.Index(name)
		rows := r.Imputed[name]
		missing := map[int]bool{}
		for _, i := range rows {
			missing[i] = true
		}
		var obs []float64
		for i, row := range r.Source.Data {
			if !missing[i] {
				obs = append(obs, row[j])
			}
		}
		s := ColumnSummary{Column: name, Method: r.Methods[name], Imputed: len(rows), ObservedMean: stat.Mean(obs, nil)}
		for _, g := range r.Draws {
			vals := make([]float64, len(rows))
			for k, i := range rows {
				vals[k] = g.Data[i][j]
			}
			s.DrawMeans = append(s.DrawMeans, stat.Mean(vals, nil))
		}
		out = append(out, s)
	}
	return out
}

// Markdown renders the imputation summary as a bracketed section.
func (r *Result) Markdown() string {
	var b strings.Builder
	b.WriteString("[IMPUTATION]\n")
	b.WriteString(fmt.Sprintf("Draws: %d\n", len(r.Draws)))
	for _, s := range r.Summary() {
		b.WriteString(fmt.Sprintf("- %s (%s): %d cells imputed; observed mean %.4g; imputed mean by draw:", s.Column, s.Method, s.Imputed, s.ObservedMean))
		for _, m := range s.DrawMeans {
			b.WriteString(fmt.Sprintf(" %.4g", m))
		}
		b.WriteString("\n")
	}
	for _, name := range r.Skipped {
		b.WriteString(fmt.Sprintf("- %s (none): missing values kept\n", name))
	}
	return b.String()
}

package normalize

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

// NormalizationError reports a column that cannot be standardized.
type NormalizationError struct {
	Column string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Column, e.Reason)
}

// ColumnStats are the statistics one column was standardized with.
type ColumnStats struct {
	Column string
	Mean   float64
	Std    float64
}

// Stats lists per-column statistics in the order the columns were given.
type Stats []ColumnStats

// Lookup returns the statistics of a column.
func (s Stats) Lookup(column string) (ColumnStats, bool) {
	for _, c := range s {
		if c.Column == column {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// Standardize returns a copy of f with each listed column rescaled to
// (v-mean)/std, where mean and the sample standard deviation are computed
// over the observed cells of f itself. Missing cells stay missing and other
// columns pass through unchanged.
func Standardize(f *dataset.Frame, columns []string) (*dataset.Frame, Stats, error) {
	out := f.Clone()
	stats := make(Stats, 0, len(columns))
	for _, name := range columns {
		j, ok := f.Index(name)
		if !ok {
			return nil, nil, &NormalizationError{Column: name, Reason: "column not in data"}
		}
		var obs []float64
		for _, row := range f.Data {
			if !dataset.IsNA(row[j]) {
				obs = append(obs, row[j])
			}
		}
		if len(obs) < 2 {
			return nil, nil, &NormalizationError{Column: name, Reason: fmt.Sprintf("%d observed values, need at least 2", len(obs))}
		}
		mean, std := stat.MeanStdDev(obs, nil)
		if std == 0 || math.IsNaN(std) {
			return nil, nil, &NormalizationError{Column: name, Reason: "zero variance"}
		}
		for _, row := range out.Data {
			if !dataset.IsNA(row[j]) {
				row[j] = (row[j] - mean) / std
			}
		}
		stats = append(stats, ColumnStats{Column: name, Mean: mean, Std: std})
	}
	slog.Debug("standardized", "frame", f.Name, "columns", len(columns))
	return out, stats, nil
}

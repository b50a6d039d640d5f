// Package plot renders missingness and imputation diagnostics as image files.
// The output format follows the file extension (png, svg, pdf).
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/attrition-cli/internal/analysis"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
)

var (
	observedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	imputedColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// MissingBars draws the percentage of missing cells per column.
func MissingBars(r *analysis.Report, path string) error {
	if r == nil || len(r.Cols) == 0 {
		return errors.New("missingness plot: no columns")
	}
	vals := make(plotter.Values, len(r.Cols))
	names := make([]string, len(r.Cols))
	for i, c := range r.Cols {
		vals[i] = c.Percent
		names[i] = c.Name
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Missing values: %s", r.Name)
	p.Y.Label.Text = "% missing"
	p.Y.Min = 0
	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = imputedColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	width := vg.Length(len(names))*0.5*vg.Inch + 2*vg.Inch
	return save(p, width, 4*vg.Inch, path)
}

// MissingPattern draws the most frequent missingness patterns of src, one row
// per pattern with a box for every missing column. maxRows caps the number of
// patterns; 0 draws all of them.
func MissingPattern(src analysis.Source, path string, maxRows int) error {
	cols := src.Columns()
	if len(cols) == 0 {
		return errors.New("pattern plot: no columns")
	}
	pats := analysis.Patterns(src)
	if maxRows > 0 && len(pats) > maxRows {
		pats = pats[:maxRows]
	}
	var missing, observed plotter.XYs
	labels := make([]string, len(pats))
	for i, pat := range pats {
		// First pattern on top.
		y := float64(len(pats) - 1 - i)
		labels[len(pats)-1-i] = fmt.Sprintf("n=%d", pat.Count)
		for j, m := range pat.Missing {
			pt := plotter.XY{X: float64(j), Y: y}
			if m {
				missing = append(missing, pt)
			} else {
				observed = append(observed, pt)
			}
		}
	}
	p := plot.New()
	p.Title.Text = "Missingness patterns"
	if err := addScatter(p, observed, observedColor, draw.BoxGlyph{}, 6, "observed"); err != nil {
		return err
	}
	if err := addScatter(p, missing, imputedColor, draw.BoxGlyph{}, 6, "missing"); err != nil {
		return err
	}
	p.NominalX(cols...)
	p.NominalY(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.Legend.Top = true
	width := vg.Length(len(cols))*0.4*vg.Inch + 2*vg.Inch
	height := vg.Length(len(pats))*0.3*vg.Inch + 2*vg.Inch
	return save(p, width, height, path)
}

// ImputationStrip draws the values of one column per draw: observed values in
// blue and imputed values in red. Draw 0 holds the observed data alone.
func ImputationStrip(res *impute.Result, column, path string) error {
	rows, ok := res.Imputed[column]
	if !ok {
		return fmt.Errorf("strip plot: column %q was not imputed", column)
	}
	j, _ := res.Source.Index(column)
	filled := make(map[int]bool, len(rows))
	for _, i := range rows {
		filled[i] = true
	}
	var observed, imputed plotter.XYs
	add := func(g *dataset.Frame, x float64) {
		for i, row := range g.Data {
			if dataset.IsNA(row[j]) {
				continue
			}
			// Spread points horizontally so equal values stay visible.
			pt := plotter.XY{X: x + jitter(i), Y: row[j]}
			if filled[i] {
				imputed = append(imputed, pt)
			} else {
				observed = append(observed, pt)
			}
		}
	}
	add(res.Source, 0)
	for d, g := range res.Draws {
		add(g, float64(d+1))
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", column, res.Methods[column])
	p.X.Label.Text = "Imputation number"
	p.Y.Label.Text = column
	if err := addScatter(p, observed, observedColor, draw.CircleGlyph{}, 1.5, "observed"); err != nil {
		return err
	}
	if err := addScatter(p, imputed, imputedColor, draw.CircleGlyph{}, 2, "imputed"); err != nil {
		return err
	}
	labels := make([]string, len(res.Draws)+1)
	for k := range labels {
		labels[k] = fmt.Sprint(k)
	}
	p.NominalX(labels...)
	return save(p, 6*vg.Inch, 4*vg.Inch, path)
}

func addScatter(p *plot.Plot, pts plotter.XYs, c color.Color, shape draw.GlyphDrawer, radius float64, name string) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Radius = vg.Points(radius)
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

// jitter is a deterministic offset in [-0.2, 0.2).
func jitter(i int) float64 {
	return float64((i*7919)%400)/1000 - 0.2
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

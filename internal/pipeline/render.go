package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/attrition-cli/internal/model"
)

// Render writes the run report: per-file encoding gaps, missingness and
// imputation summaries, then the three model comparisons.
func (r *Result) Render(w io.Writer) error {
	ew := &errWriter{w: w}
	for _, s := range []*Stage{r.Train, r.Test} {
		if s == nil {
			continue
		}
		ew.printf("==== %s ====\n\n", s.Table.Name)
		if md := s.Gaps.Markdown(); md != "" {
			ew.printf("%s\n", md)
		}
		ew.printf("%s\n", s.Missing.Markdown())
		if s.Imputed != nil {
			ew.printf("%s\n", s.Imputed.Markdown())
		}
		if len(s.Stats) > 0 {
			ew.printf("[STANDARDIZATION]\n")
			for _, c := range s.Stats {
				ew.printf("- %s: mean %.4g, std %.4g\n", c.Column, c.Mean, c.Std)
			}
			ew.printf("\n")
		}
	}
	if ew.err != nil {
		return ew.err
	}

	if r.OLS != nil {
		ew.printf("[LINEAR MODEL] %s ~ features\n", r.Config.Target)
		renderOLS(ew, r.OLS)
		if r.OLSConf != nil {
			ew.printf("Fitted values rounded at 0.5, training partition:\n")
			renderConfusion(ew, r.OLSConf)
		}
		ew.printf("\n")
	}
	if r.KNN != nil {
		ew.printf("[KNN] k=%d, scored on %s\n", r.KNN.K, r.Test.Table.Name)
		if r.KNNTest != nil {
			renderConfusion(ew, r.KNNTest)
		} else {
			ew.printf("Test file has no target; predicted classes:\n")
			t := newTable(ew, []string{"Predicted", "Count"})
			for _, c := range r.KNNCounts {
				t.Append([]string{label(c.Label), strconv.Itoa(c.Count)})
			}
			t.Render()
		}
		ew.printf("\n")
	}
	for _, tr := range []struct {
		title string
		tree  *model.Tree
		conf  *model.Confusion
	}{
		{"[TREE] unconstrained, training partition", r.TreeFull, r.TreeFullConf},
		{fmt.Sprintf("[TREE] max depth %d, training partition", r.Config.Tree.MaxDepth), r.TreeDepth, r.TreeDepthConf},
	} {
		if tr.tree == nil {
			continue
		}
		ew.printf("%s\n", tr.title)
		ew.printf("Depth: %d, leaves: %d\n", tr.tree.Depth(), tr.tree.Leaves())
		renderConfusion(ew, tr.conf)
		ew.printf("\n%s\n", tr.tree.String())
	}
	return ew.err
}

func renderOLS(w io.Writer, f *model.OLSFit) {
	t := newTable(w, []string{"Term", "Estimate", "Std. Error", "t value", "Pr(>|t|)", ""})
	for _, c := range f.Coefs {
		t.Append([]string{
			c.Name,
			fmt.Sprintf("%.5g", c.Estimate),
			fmt.Sprintf("%.5g", c.StdErr),
			fmt.Sprintf("%.3f", c.T),
			fmt.Sprintf("%.3g", c.P),
			c.Stars(),
		})
	}
	t.Render()
	fmt.Fprintf(w, "Residual standard error: %.4g on %d degrees of freedom\n", f.SigmaHat, f.DF)
	fmt.Fprintf(w, "Multiple R-squared: %.4g, Adjusted R-squared: %.4g\n", f.R2, f.AdjR2)
	fmt.Fprintf(w, "F-statistic: %.4g on %d and %d DF, p-value: %.3g\n", f.F, len(f.Coefs)-1, f.DF, f.FP)
	if sig := f.Significant(0.05); len(sig) > 0 {
		fmt.Fprintf(w, "Significant at 0.05: %s\n", strings.Join(sig, ", "))
	} else {
		fmt.Fprintf(w, "Significant at 0.05: none\n")
	}
}

func renderConfusion(w io.Writer, c *model.Confusion) {
	header := []string{"actual \\ predicted"}
	for _, l := range c.Labels {
		header = append(header, label(l))
	}
	t := newTable(w, header)
	for i, l := range c.Labels {
		row := []string{label(l)}
		for j := range c.Labels {
			row = append(row, strconv.Itoa(c.Counts[i][j]))
		}
		t.Append(row)
	}
	t.Render()
	fmt.Fprintf(w, "Accuracy: %.4f (n=%d)\n", c.Accuracy(), c.N)
	if len(c.Labels) == 2 {
		p, rc, f1 := c.PrecisionRecallF1(c.Labels[1])
		fmt.Fprintf(w, "Precision: %.4f, recall: %.4f, F1: %.4f (positive %s)\n", p, rc, f1, label(c.Labels[1]))
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

func label(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}

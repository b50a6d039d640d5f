package model

import (
	"fmt"
	"sort"
)

// Confusion is a confusion matrix. Counts[i][j] is the number of rows whose
// actual label is Labels[i] and predicted label is Labels[j].
type Confusion struct {
	Labels []float64
	Counts [][]int
	N      int
}

// NewConfusion tabulates actual against predicted labels.
func NewConfusion(yTrue, yPred []float64) (*Confusion, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("confusion: %d actual labels, %d predictions", len(yTrue), len(yPred))
	}
	seen := map[float64]bool{}
	var labels []float64
	for _, ys := range [][]float64{yTrue, yPred} {
		for _, v := range ys {
			if !seen[v] {
				seen[v] = true
				labels = append(labels, v)
			}
		}
	}
	sort.Float64s(labels)
	c := &Confusion{Labels: labels, Counts: make([][]int, len(labels)), N: len(yTrue)}
	for i := range c.Counts {
		c.Counts[i] = make([]int, len(labels))
	}
	for i := range yTrue {
		c.Counts[c.index(yTrue[i])][c.index(yPred[i])]++
	}
	return c, nil
}

func (c *Confusion) index(v float64) int {
	i := sort.SearchFloat64s(c.Labels, v)
	if i < len(c.Labels) && c.Labels[i] == v {
		return i
	}
	return -1
}

// Count returns how many rows with the given actual label were predicted as predicted.
func (c *Confusion) Count(actual, predicted float64) int {
	i, j := c.index(actual), c.index(predicted)
	if i < 0 || j < 0 {
		return 0
	}
	return c.Counts[i][j]
}

// Accuracy is the share of rows on the diagonal.
func (c *Confusion) Accuracy() float64 {
	if c.N == 0 {
		return 0
	}
	hit := 0
	for i := range c.Labels {
		hit += c.Counts[i][i]
	}
	return float64(hit) / float64(c.N)
}

// PrecisionRecallF1 treats positive as the positive class.
func (c *Confusion) PrecisionRecallF1(positive float64) (prec, rec, f1 float64) {
	p := c.index(positive)
	if p < 0 {
		return 0, 0, 0
	}
	tp, fp, fn := c.Counts[p][p], 0, 0
	for k := range c.Labels {
		if k == p {
			continue
		}
		fp += c.Counts[k][p]
		fn += c.Counts[p][k]
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// ClassCount is the number of predictions of one label.
type ClassCount struct {
	Label float64
	Count int
}

// CountClasses tallies predicted labels, sorted by label.
func CountClasses(pred []float64) []ClassCount {
	counts := map[float64]int{}
	for _, v := range pred {
		counts[v]++
	}
	out := make([]ClassCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, ClassCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// RoundLabels maps continuous scores to 0/1 at threshold 0.5.
func RoundLabels(scores []float64) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		if s >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

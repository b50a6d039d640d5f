package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Split criteria.
const (
	Gini     = "gini"
	Variance = "variance"
)

// TreeOptions are the CART growth controls.
type TreeOptions struct {
	// Criterion is Gini for classification or Variance for regression.
	Criterion string
	// MaxDepth limits depth (root depth = 0). 0 => no limit.
	MaxDepth int
	// MinSplit is the minimum node size to attempt a split.
	MinSplit int
	// MinBucket is the minimum size of each child.
	MinBucket int
	// CP is the complexity parameter: a split must reduce the total impurity
	// by at least CP times the root's total impurity.
	CP float64
}

// DefaultTreeOptions returns the classification defaults used by the model comparison.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{Criterion: Gini, MaxDepth: 0, MinSplit: 20, MinBucket: 7, CP: 0.01}
}

// Node is one tree node. Leaves keep the training responses that reached them.
type Node struct {
	Feature   int
	Threshold float64 // x <= Threshold goes left
	Left      *Node
	Right     *Node

	ID       int
	Depth    int
	N        int
	Value    float64 // majority class or mean response
	Impurity float64
	Y        []float64
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.Left == nil }

// Tree is a binary CART tree over numeric features.
type Tree struct {
	Options  TreeOptions
	Features []string
	Root     *Node

	classes  []float64
	rootRisk float64
}

// NewTree returns an untrained tree.
func NewTree(opt TreeOptions) *Tree {
	if opt.Criterion == "" {
		opt.Criterion = Gini
	}
	return &Tree{Options: opt}
}

// Fit grows the tree on X (n x p) and y. Inputs must be complete.
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if t.Options.Criterion != Gini && t.Options.Criterion != Variance {
		return fitErr("tree", "unknown criterion %q", t.Options.Criterion)
	}
	if err := checkXY("tree", X, y); err != nil {
		return err
	}
	t.classes = nil
	if t.Options.Criterion == Gini {
		seen := map[float64]bool{}
		for _, v := range y {
			if !seen[v] {
				seen[v] = true
				t.classes = append(t.classes, v)
			}
		}
		sort.Float64s(t.classes)
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.rootRisk = float64(len(idx)) * t.impurity(y, idx)
	t.Root = t.build(X, y, idx, 0, 1)
	return nil
}

func (t *Tree) classIndex(v float64) int {
	return sort.SearchFloat64s(t.classes, v)
}

// impurity is the per-observation gini index or population variance.
func (t *Tree) impurity(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	n := float64(len(idx))
	if t.Options.Criterion == Gini {
		counts := make([]float64, len(t.classes))
		for _, i := range idx {
			counts[t.classIndex(y[i])]++
		}
		return giniFromCounts(counts, n)
	}
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return math.Max(sq/n-(sum/n)*(sum/n), 0)
}

func giniFromCounts(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func (t *Tree) leafValue(y []float64, idx []int) float64 {
	if t.Options.Criterion == Gini {
		counts := make([]int, len(t.classes))
		for _, i := range idx {
			counts[t.classIndex(y[i])]++
		}
		best := 0
		for c := 1; c < len(counts); c++ {
			if counts[c] > counts[best] {
				best = c
			}
		}
		return t.classes[best]
	}
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}

type split struct {
	feature   int
	threshold float64
	gain      float64 // reduction in total impurity
	left      []int
	right     []int
}

func (t *Tree) build(X [][]float64, y []float64, idx []int, depth, id int) *Node {
	node := &Node{
		ID:       id,
		Depth:    depth,
		N:        len(idx),
		Value:    t.leafValue(y, idx),
		Impurity: t.impurity(y, idx),
	}
	leaf := func() *Node {
		node.Y = make([]float64, len(idx))
		for k, i := range idx {
			node.Y[k] = y[i]
		}
		return node
	}
	if node.Impurity == 0 || len(idx) < t.Options.MinSplit || len(idx) < 2*max(t.Options.MinBucket, 1) {
		return leaf()
	}
	if t.Options.MaxDepth > 0 && depth >= t.Options.MaxDepth {
		return leaf()
	}
	best, ok := t.bestSplit(X, y, idx, node.Impurity)
	if !ok || best.gain <= 0 || best.gain < t.Options.CP*t.rootRisk {
		return leaf()
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.build(X, y, best.left, depth+1, 2*id)
	node.Right = t.build(X, y, best.right, depth+1, 2*id+1)
	return node
}

// bestSplit scans every feature's sorted values with running sums. Ties keep
// the first feature and the lowest threshold.
func (t *Tree) bestSplit(X [][]float64, y []float64, idx []int, parentImp float64) (split, bool) {
	n := len(idx)
	parentTotal := float64(n) * parentImp
	minBucket := max(t.Options.MinBucket, 1)
	p := len(X[idx[0]])
	var best split
	found := false
	order := make([]int, n)
	for f := 0; f < p; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var lc, rc []float64
		var lsum, lsq, rsum, rsq float64
		if t.Options.Criterion == Gini {
			lc = make([]float64, len(t.classes))
			rc = make([]float64, len(t.classes))
			for _, i := range order {
				rc[t.classIndex(y[i])]++
			}
		} else {
			for _, i := range order {
				rsum += y[i]
				rsq += y[i] * y[i]
			}
		}
		for s := 1; s < n; s++ {
			moved := order[s-1]
			if t.Options.Criterion == Gini {
				c := t.classIndex(y[moved])
				lc[c]++
				rc[c]--
			} else {
				lsum += y[moved]
				lsq += y[moved] * y[moved]
				rsum -= y[moved]
				rsq -= y[moved] * y[moved]
			}
			lo, hi := X[order[s-1]][f], X[order[s]][f]
			if lo == hi || s < minBucket || n-s < minBucket {
				continue
			}
			nl, nr := float64(s), float64(n-s)
			var childTotal float64
			if t.Options.Criterion == Gini {
				childTotal = nl*giniFromCounts(lc, nl) + nr*giniFromCounts(rc, nr)
			} else {
				childTotal = math.Max(lsq-lsum*lsum/nl, 0) + math.Max(rsq-rsum*rsum/nr, 0)
			}
			gain := parentTotal - childTotal
			if !found || gain > best.gain+1e-12 {
				found = true
				best = split{feature: f, threshold: (lo + hi) / 2, gain: gain}
			}
		}
	}
	if !found {
		return best, false
	}
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	return best, true
}

// Leaf returns the leaf that x falls into.
func (t *Tree) Leaf(x []float64) *Node {
	n := t.Root
	for n != nil && !n.IsLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

// Predict returns the leaf value for each row of X.
func (t *Tree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.Leaf(x).Value
	}
	return out
}

// Depth returns the depth of the deepest leaf.
func (t *Tree) Depth() int {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil || n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(t.Root)
}

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n == nil {
			return 0
		}
		if n.IsLeaf() {
			return 1
		}
		return walk(n.Left) + walk(n.Right)
	}
	return walk(t.Root)
}

func (t *Tree) featureName(f int) string {
	if f < len(t.Features) && t.Features[f] != "" {
		return t.Features[f]
	}
	return fmt.Sprintf("x%d", f+1)
}

// String prints the tree one node per line; leaves are marked with *.
func (t *Tree) String() string {
	var b strings.Builder
	b.WriteString("node), split, n, yval\n")
	var walk func(n *Node, cond string)
	walk = func(n *Node, cond string) {
		if n == nil {
			return
		}
		b.WriteString(strings.Repeat("  ", n.Depth))
		fmt.Fprintf(&b, "%d) %s %d %.4g", n.ID, cond, n.N, n.Value)
		if n.IsLeaf() {
			b.WriteString(" *")
		}
		b.WriteString("\n")
		if n.IsLeaf() {
			return
		}
		name := t.featureName(n.Feature)
		walk(n.Left, fmt.Sprintf("%s<=%.4g", name, n.Threshold))
		walk(n.Right, fmt.Sprintf("%s>%.4g", name, n.Threshold))
	}
	walk(t.Root, "root")
	return b.String()
}

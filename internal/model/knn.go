package model

import (
	"math"
	"math/rand"
	"sort"
)

// KNN is a k-nearest-neighbours classifier with Euclidean distance and a
// majority vote. Neighbours tied with the k-th distance all vote, and tied
// votes are broken uniformly at random from a seeded source.
type KNN struct {
	K    int
	Seed int64
	X    [][]float64
	y    []float64
}

// NewKNN creates and returns a new KNN model.
func NewKNN(k int, seed int64) *KNN {
	return &KNN{K: k, Seed: seed}
}

// Fit stores the training data and labels.
func (m *KNN) Fit(X [][]float64, y []float64) error {
	if m.K < 1 {
		return fitErr("knn", "k must be positive, got %d", m.K)
	}
	if err := checkXY("knn", X, y); err != nil {
		return err
	}
	m.X = X
	m.y = y
	return nil
}

// Predict classifies each row of X. Rows are processed in order with one
// random source, so the result depends only on the data and Seed. A row with
// a missing value or the wrong width is a FitError.
func (m *KNN) Predict(X [][]float64) ([]float64, error) {
	if len(m.X) == 0 {
		return nil, fitErr("knn", "predict called before fit")
	}
	p := len(m.X[0])
	for i, row := range X {
		if len(row) != p {
			return nil, fitErr("knn", "query row %d has %d features, want %d", i, len(row), p)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, fitErr("knn", "missing value at query row %d feature %d", i, j)
			}
		}
	}
	rnd := rand.New(rand.NewSource(m.Seed))
	out := make([]float64, len(X))
	for i := range X {
		out[i] = m.predictSingle(X[i], rnd)
	}
	return out, nil
}

type neighbour struct {
	d float64
	v float64
}

func (m *KNN) neighbours(xi []float64) []neighbour {
	all := make([]neighbour, len(m.X))
	for j, xj := range m.X {
		all[j] = neighbour{d: euclidSquared(xi, xj), v: m.y[j]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].d < all[b].d })
	k := m.K
	if k > len(all) {
		k = len(all)
	}
	kth := all[k-1].d
	for k < len(all) && all[k].d == kth {
		k++
	}
	return all[:k]
}

func (m *KNN) predictSingle(xi []float64, rnd *rand.Rand) float64 {
	votes := map[float64]int{}
	for _, nb := range m.neighbours(xi) {
		votes[nb.v]++
	}
	best := 0
	var tied []float64
	for label, n := range votes {
		switch {
		case n > best:
			best = n
			tied = append(tied[:0], label)
		case n == best:
			tied = append(tied, label)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	sort.Float64s(tied)
	return tied[rnd.Intn(len(tied))]
}

// euclidSquared computes the squared Euclidean distance between two vectors.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

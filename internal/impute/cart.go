package impute

import (
	"math/rand"

	"github.com/KaramelBytes/attrition-cli/internal/model"
)

// cart fills the missing rows by growing a tree on the observed rows and
// sampling an observed value from the leaf each missing row falls into.
func cart(xObs [][]float64, yObs []float64, xMis [][]float64, categoric bool, opt Options, rnd *rand.Rand) ([]float64, error) {
	crit := model.Variance
	if categoric {
		crit = model.Gini
	}
	minBucket := opt.MinBucket
	if minBucket < 1 {
		minBucket = 1
	}
	tree := model.NewTree(model.TreeOptions{
		Criterion: crit,
		MinSplit:  3 * minBucket,
		MinBucket: minBucket,
		CP:        opt.CP,
	})
	if err := tree.Fit(xObs, yObs); err != nil {
		return nil, err
	}
	out := make([]float64, len(xMis))
	for i, x := range xMis {
		leaf := tree.Leaf(x)
		out[i] = leaf.Y[rnd.Intn(len(leaf.Y))]
	}
	return out, nil
}

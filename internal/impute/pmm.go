package impute

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const ridge = 1e-5

// pmm fills the missing rows by predictive mean matching. A Bayesian linear
// regression draw (beta*, sigma*) predicts the missing rows; observed rows
// are predicted with the least squares estimate. Each missing row takes the
// observed value of a donor picked at random among the closest predictions.
func pmm(xObs [][]float64, yObs []float64, xMis [][]float64, donors int, rnd *rand.Rand) ([]float64, error) {
	beta, betaStar, err := normDraw(xObs, yObs, rnd)
	if err != nil {
		return nil, err
	}
	yhatObs := predict(xObs, beta)
	yhatMis := predict(xMis, betaStar)
	return match(yhatObs, yObs, yhatMis, donors, rnd), nil
}

// normDraw returns the ridge least squares estimate and one draw from its
// approximate posterior.
func normDraw(x [][]float64, y []float64, rnd *rand.Rand) (beta, betaStar []float64, err error) {
	n := len(x)
	p := 1
	if n > 0 {
		p += len(x[0])
	}
	A := mat.NewDense(n, p, nil)
	for i, row := range x {
		A.Set(i, 0, 1)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.SymDense
	xtx.SymOuterK(1, A.T())
	for j := 0; j < p; j++ {
		d := xtx.At(j, j)
		if d == 0 {
			d = 1
		}
		xtx.SetSym(j, j, xtx.At(j, j)+ridge*d)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, nil, errors.New("normal equations are not positive definite")
	}
	var xty mat.VecDense
	xty.MulVec(A.T(), yv)
	var b mat.VecDense
	if err := chol.SolveVecTo(&b, &xty); err != nil {
		return nil, nil, err
	}
	var v mat.SymDense
	if err := chol.InverseTo(&v); err != nil {
		return nil, nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(A, &b)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		rss += r * r
	}
	df := n - p
	if df < 1 {
		df = 1
	}
	sigmaStar := math.Sqrt(rss / chiSquare(df, rnd))

	var vchol mat.Cholesky
	if ok := vchol.Factorize(&v); !ok {
		return nil, nil, errors.New("coefficient covariance is not positive definite")
	}
	var L mat.TriDense
	vchol.LTo(&L)
	z := mat.NewVecDense(p, nil)
	for j := 0; j < p; j++ {
		z.SetVec(j, rnd.NormFloat64())
	}
	var lz mat.VecDense
	lz.MulVec(&L, z)

	beta = make([]float64, p)
	betaStar = make([]float64, p)
	for j := 0; j < p; j++ {
		beta[j] = b.AtVec(j)
		betaStar[j] = beta[j] + sigmaStar*lz.AtVec(j)
	}
	return beta, betaStar, nil
}

// chiSquare draws from a chi-square distribution with df degrees of freedom
// as a sum of squared standard normals.
func chiSquare(df int, rnd *rand.Rand) float64 {
	s := 0.0
	for k := 0; k < df; k++ {
		z := rnd.NormFloat64()
		s += z * z
	}
	return s
}

func predict(x [][]float64, beta []float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		s := beta[0]
		for j, v := range row {
			s += beta[j+1] * v
		}
		out[i] = s
	}
	return out
}

// match picks, for each target prediction, one of the donors observed rows
// with the nearest predictions and returns its observed value.
func match(yhatObs, yObs, yhatMis []float64, donors int, rnd *rand.Rand) []float64 {
	order := make([]int, len(yhatObs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return yhatObs[order[a]] < yhatObs[order[b]] })
	sorted := make([]float64, len(order))
	for k, i := range order {
		sorted[k] = yhatObs[i]
	}
	d := donors
	if d > len(order) {
		d = len(order)
	}

	out := make([]float64, len(yhatMis))
	pool := make([]int, 0, d)
	for m, target := range yhatMis {
		// Expand outward from the insertion point, taking the closer side each step.
		hi := sort.SearchFloat64s(sorted, target)
		lo := hi - 1
		pool = pool[:0]
		for len(pool) < d {
			switch {
			case lo < 0:
				pool = append(pool, hi)
				hi++
			case hi >= len(sorted):
				pool = append(pool, lo)
				lo--
			case target-sorted[lo] <= sorted[hi]-target:
				pool = append(pool, lo)
				lo--
			default:
				pool = append(pool, hi)
				hi++
			}
		}
		out[m] = yObs[order[pool[rnd.Intn(len(pool))]]]
	}
	return out
}

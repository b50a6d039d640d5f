package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// conditionLimit rejects designs whose normal equations are numerically singular.
const conditionLimit = 1e12

// Coefficient is one row of a linear model summary.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	T        float64
	P        float64
}

// Stars returns the usual significance code for the coefficient's p-value.
func (c Coefficient) Stars() string {
	switch {
	case c.P < 0.001:
		return "***"
	case c.P < 0.01:
		return "**"
	case c.P < 0.05:
		return "*"
	case c.P < 0.1:
		return "."
	}
	return ""
}

// OLSFit is an ordinary least squares fit with an intercept.
type OLSFit struct {
	Coefs    []Coefficient
	NObs     int
	DF       int // residual degrees of freedom
	RSS      float64
	SigmaHat float64 // residual standard error
	R2       float64
	AdjR2    float64
	F        float64
	FP       float64
}

// FitOLS regresses y on the columns of X plus an intercept. names labels the
// columns of X; missing names default to x1..xp.
func FitOLS(X [][]float64, y []float64, names []string) (*OLSFit, error) {
	if err := checkXY("ols", X, y); err != nil {
		return nil, err
	}
	n := len(X)
	p := len(X[0]) + 1
	if n <= p {
		return nil, fitErr("ols", "%d observations for %d parameters", n, p)
	}

	A := mat.NewDense(n, p, nil)
	for i, row := range X {
		A.Set(i, 0, 1)
		for j, v := range row {
			A.Set(i, j+1, v)
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.SymDense
	xtx.SymOuterK(1, A.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > conditionLimit {
		return nil, fitErr("ols", "design matrix is singular")
	}
	var xty mat.VecDense
	xty.MulVec(A.T(), yv)
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, &FitError{Model: "ols", Err: err}
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, &FitError{Model: "ols", Err: err}
	}

	var fitted mat.VecDense
	fitted.MulVec(A, &beta)
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	rss, tss := 0.0, 0.0
	for i, v := range y {
		r := v - fitted.AtVec(i)
		rss += r * r
		d := v - mean
		tss += d * d
	}

	df := n - p
	sigma2 := rss / float64(df)
	fit := &OLSFit{NObs: n, DF: df, RSS: rss, SigmaHat: math.Sqrt(sigma2)}
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	for j := 0; j < p; j++ {
		name := "(Intercept)"
		if j > 0 {
			if j-1 < len(names) && names[j-1] != "" {
				name = names[j-1]
			} else {
				name = fmt.Sprintf("x%d", j)
			}
		}
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		t := est / se
		fit.Coefs = append(fit.Coefs, Coefficient{
			Name:     name,
			Estimate: est,
			StdErr:   se,
			T:        t,
			P:        2 * (1 - tdist.CDF(math.Abs(t))),
		})
	}
	if tss > 0 {
		fit.R2 = 1 - rss/tss
		fit.AdjR2 = 1 - (1-fit.R2)*float64(n-1)/float64(df)
	}
	if p > 1 && rss > 0 {
		d1 := float64(p - 1)
		fit.F = ((tss - rss) / d1) / sigma2
		fit.FP = 1 - distuv.F{D1: d1, D2: float64(df)}.CDF(fit.F)
	}
	return fit, nil
}

// Predict evaluates the fitted linear predictor for each row of X.
func (f *OLSFit) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		s := f.Coefs[0].Estimate
		for j, v := range row {
			s += f.Coefs[j+1].Estimate * v
		}
		out[i] = s
	}
	return out
}

// Significant lists the non-intercept coefficients with p below alpha.
func (f *OLSFit) Significant(alpha float64) []string {
	var out []string
	for _, c := range f.Coefs[1:] {
		if c.P < alpha {
			out = append(out, c.Name)
		}
	}
	return out
}

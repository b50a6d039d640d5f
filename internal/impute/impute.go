package impute

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

// target is one column the chained equations visit.
type target struct {
	col        int
	name       string
	method     Method
	categoric  bool
	predictors []int
	observed   []int // rows observed in the source frame
	missing    []int // rows missing in the source frame
	values     []float64
}

// Run produces opt.M completed copies of f. Columns assigned pmm or cart are
// filled in every draw; columns assigned none keep their missing cells. The
// source frame is not modified.
func Run(f *dataset.Frame, opt Options) (*Result, error) {
	if err := Validate(f, opt); err != nil {
		return nil, err
	}
	targets, skipped, err := plan(f, opt)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Source:  f,
		Methods: map[string]Method{},
		Imputed: map[string][]int{},
		Skipped: skipped,
	}
	for _, tg := range targets {
		res.Order = append(res.Order, tg.name)
		res.Methods[tg.name] = tg.method
		res.Imputed[tg.name] = tg.missing
	}
	for _, name := range skipped {
		slog.Warn("column keeps missing values", "column", name, "missing", f.MissingIn(name))
	}

	rnd := rand.New(rand.NewSource(opt.Seed))
	for d := 0; d < opt.M; d++ {
		g := f.Clone()
		for _, tg := range targets {
			for _, i := range tg.missing {
				g.Data[i][tg.col] = tg.values[rnd.Intn(len(tg.values))]
			}
		}
		for it := 1; it <= opt.MaxIt; it++ {
			for _, tg := range targets {
				if err := sweep(g, tg, opt, rnd); err != nil {
					return nil, err
				}
			}
			slog.Debug("imputation sweep", "draw", d+1, "iteration", it)
		}
		res.Draws = append(res.Draws, g)
	}
	slog.Info("imputation complete", "frame", f.Name, "m", opt.M, "maxit", opt.MaxIt, "columns", len(targets))
	return res, nil
}

// plan lists the incomplete method columns in frame order.
func plan(f *dataset.Frame, opt Options) ([]*target, []string, error) {
	categorical := map[string]bool{}
	for _, c := range opt.Categorical {
		categorical[c] = true
	}
	var preds []int
	for _, name := range predictorSet(f, opt) {
		j, _ := f.Index(name)
		preds = append(preds, j)
	}

	var targets []*target
	var skipped []string
	for j, name := range f.Header {
		m, _ := ParseMethod(string(opt.Methods[name]))
		if f.MissingIn(name) == 0 {
			continue
		}
		if m == None {
			skipped = append(skipped, name)
			continue
		}
		tg := &target{col: j, name: name, method: m, categoric: categorical[name]}
		for _, p := range preds {
			if p != j {
				tg.predictors = append(tg.predictors, p)
			}
		}
		for i, row := range f.Data {
			if dataset.IsNA(row[j]) {
				tg.missing = append(tg.missing, i)
			} else {
				tg.observed = append(tg.observed, i)
				tg.values = append(tg.values, row[j])
			}
		}
		if len(tg.observed) == 0 {
			return nil, nil, &ImputationError{Column: name, Method: m, Err: errors.New("no observed rows to learn from")}
		}
		targets = append(targets, tg)
	}
	return targets, skipped, nil
}

// sweep refits one column's model on the current state of g and redraws its
// originally missing cells.
func sweep(g *dataset.Frame, tg *target, opt Options, rnd *rand.Rand) error {
	xObs := rowsOf(g, tg.observed, tg.predictors)
	xMis := rowsOf(g, tg.missing, tg.predictors)
	var (
		fill []float64
		err  error
	)
	switch tg.method {
	case PMM:
		fill, err = pmm(xObs, tg.values, xMis, opt.Donors, rnd)
	case CART:
		fill, err = cart(xObs, tg.values, xMis, tg.categoric, opt, rnd)
	}
	if err != nil {
		return &ImputationError{Column: tg.name, Method: tg.method, Err: err}
	}
	for k, i := range tg.missing {
		g.Data[i][tg.col] = fill[k]
	}
	return nil
}

func rowsOf(g *dataset.Frame, rows, cols []int) [][]float64 {
	out := make([][]float64, len(rows))
	for k, i := range rows {
		x := make([]float64, len(cols))
		for c, j := range cols {
			x[c] = g.Data[i][j]
		}
		out[k] = x
	}
	return out
}

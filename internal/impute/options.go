package impute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/attrition-cli/internal/dataset"
)

// Method is a per-column fill strategy.
type Method string

const (
	PMM  Method = "pmm"
	CART Method = "cart"
	None Method = "none"
)

// ParseMethod accepts pmm, cart or none (case-insensitive; "" means none).
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case PMM:
		return PMM, nil
	case CART:
		return CART, nil
	case None, "":
		return None, nil
	}
	return "", fmt.Errorf("unknown imputation method %q (want pmm, cart or none)", s)
}

// Options configures a multiple-imputation run.
type Options struct {
	// M is the number of completed draws.
	M int
	// MaxIt is the number of chained-equation sweeps per draw.
	MaxIt int
	Seed  int64
	// Donors is the pmm candidate pool size.
	Donors int
	// MinBucket and CP control the cart trees.
	MinBucket int
	CP        float64
	// Methods must name every frame column exactly once.
	Methods map[string]Method
	// Predictors are the columns each model conditions on; empty means every
	// other column.
	Predictors []string
	// Categorical columns are imputed by cart with the gini criterion.
	Categorical []string
}

// DefaultOptions returns m=5, maxit=5, seed=500 with five pmm donors.
func DefaultOptions() Options {
	return Options{M: 5, MaxIt: 5, Seed: 500, Donors: 5, MinBucket: 5, CP: 1e-4}
}

// Validate checks opt against the frame. The method map must be total: every
// column is assigned pmm, cart or none, and nothing else is named. A column
// used as a predictor may not keep missing values.
func Validate(f *dataset.Frame, opt Options) error {
	if opt.M < 1 {
		return &ConfigError{Reason: fmt.Sprintf("m must be at least 1, got %d", opt.M)}
	}
	if opt.MaxIt < 1 {
		return &ConfigError{Reason: fmt.Sprintf("maxit must be at least 1, got %d", opt.MaxIt)}
	}
	if opt.Donors < 1 {
		return &ConfigError{Reason: fmt.Sprintf("donors must be at least 1, got %d", opt.Donors)}
	}
	known := map[string]bool{}
	for _, h := range f.Header {
		known[h] = true
		m, ok := opt.Methods[h]
		if !ok {
			return &ConfigError{Column: h, Reason: "no imputation method assigned"}
		}
		if _, err := ParseMethod(string(m)); err != nil {
			return &ConfigError{Column: h, Reason: err.Error()}
		}
	}
	var extra []string
	for name := range opt.Methods {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return &ConfigError{Column: extra[0], Reason: "method assigned to a column not in the data"}
	}
	for _, name := range opt.Predictors {
		if !known[name] {
			return &ConfigError{Column: name, Reason: "predictor is not in the data"}
		}
	}
	for _, name := range opt.Categorical {
		if !known[name] {
			return &ConfigError{Column: name, Reason: "categorical column is not in the data"}
		}
	}
	for _, name := range predictorSet(f, opt) {
		m, _ := ParseMethod(string(opt.Methods[name]))
		if m == None && f.MissingIn(name) > 0 {
			return &ConfigError{Column: name, Reason: "predictor has missing values but method none"}
		}
	}
	return nil
}

// predictorSet is the union of columns any model conditions on. Without an
// explicit list it is every column except incomplete columns left unimputed.
func predictorSet(f *dataset.Frame, opt Options) []string {
	if len(opt.Predictors) > 0 {
		return opt.Predictors
	}
	var out []string
	for _, h := range f.Header {
		if m, _ := ParseMethod(string(opt.Methods[h])); m == None && f.MissingIn(h) > 0 {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Without returns a copy of o that no longer names the given columns. A test
// file without the target column uses it to drop the target's method entry.
func (o Options) Without(columns ...string) Options {
	drop := map[string]bool{}
	for _, c := range columns {
		drop[c] = true
	}
	out := o
	out.Methods = make(map[string]Method, len(o.Methods))
	for name, m := range o.Methods {
		if !drop[name] {
			out.Methods[name] = m
		}
	}
	out.Predictors = nil
	for _, name := range o.Predictors {
		if !drop[name] {
			out.Predictors = append(out.Predictors, name)
		}
	}
	out.Categorical = nil
	for _, name := range o.Categorical {
		if !drop[name] {
			out.Categorical = append(out.Categorical, name)
		}
	}
	return out
}

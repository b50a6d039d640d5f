package pipeline

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/attrition-cli/internal/analysis"
	"github.com/KaramelBytes/attrition-cli/internal/config"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/encode"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
	"github.com/KaramelBytes/attrition-cli/internal/model"
)

// Config is everything one run needs, resolved from the global configuration.
type Config struct {
	Load   dataset.LoadOptions
	Schema encode.Schema
	Report analysis.Options

	Target string
	// IDColumn identifies rows and is never a model feature.
	IDColumn string
	// Features are the model inputs and the columns that get standardized.
	Features []string

	Impute impute.Options
	// Draw selects the completed draw used for modelling; 0 uses the stacked draws.
	Draw int

	KNNK int
	// Tree is the constrained tree; the unconstrained one drops MaxDepth.
	Tree model.TreeOptions
}

// DefaultConfig mirrors config.Defaults.
func DefaultConfig() Config {
	cfg, err := FromGlobal(config.Defaults())
	if err != nil {
		panic(err)
	}
	return cfg
}

// FromGlobal converts the user configuration into a run configuration.
func FromGlobal(g *config.Global) (Config, error) {
	delim, err := ParseDelimiter(g.Delimiter)
	if err != nil {
		return Config{}, err
	}
	load := dataset.DefaultLoadOptions()
	load.Delimiter = delim
	if len(g.NATokens) > 0 {
		load.NATokens = append([]string(nil), g.NATokens...)
	}
	load.Sheet = g.Sheet

	methods := make(map[string]impute.Method, len(g.Impute.Methods))
	for col, s := range g.Impute.Methods {
		m, err := impute.ParseMethod(s)
		if err != nil {
			return Config{}, &impute.ConfigError{Column: col, Reason: err.Error()}
		}
		methods[col] = m
	}
	if len(g.Features) == 0 {
		return Config{}, fmt.Errorf("no model features configured")
	}
	if g.Target == "" {
		return Config{}, fmt.Errorf("no target column configured")
	}
	for _, f := range g.Features {
		if g.IDColumn != "" && f == g.IDColumn {
			return Config{}, fmt.Errorf("id column %q cannot be a model feature", f)
		}
		if f == g.Target {
			return Config{}, fmt.Errorf("target %q cannot be a model feature", f)
		}
	}
	if g.Impute.Draw < 0 || (g.Impute.Draw > g.Impute.M && g.Impute.M > 0) {
		return Config{}, fmt.Errorf("draw %d out of range 0..%d", g.Impute.Draw, g.Impute.M)
	}

	return Config{
		Load:     load,
		Schema:   encode.DefaultSchema(),
		Report:   analysis.DefaultOptions(),
		Target:   g.Target,
		IDColumn: g.IDColumn,
		Features: append([]string(nil), g.Features...),
		Impute: impute.Options{
			M:           g.Impute.M,
			MaxIt:       g.Impute.MaxIt,
			Seed:        g.Seed,
			Donors:      g.Impute.Donors,
			MinBucket:   g.Impute.MinBucket,
			CP:          g.Impute.CP,
			Methods:     methods,
			Predictors:  append([]string(nil), g.Impute.Predictors...),
			Categorical: append([]string(nil), g.Impute.Categorical...),
		},
		Draw: g.Impute.Draw,
		KNNK: g.Model.KNNK,
		Tree: model.TreeOptions{
			Criterion: model.Gini,
			MaxDepth:  g.Model.TreeMaxDepth,
			MinSplit:  g.Model.TreeMinSplit,
			MinBucket: g.Model.TreeMinBucket,
			CP:        g.Model.TreeCP,
		},
	}, nil
}

// ParseDelimiter accepts ",", ";", "tab" or "\t"; empty picks by file extension.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %q (use ',', ';', '|' or 'tab')", s)
	}
}

// Package pipeline runs the attrition analysis end to end: load, encode,
// profile, impute, standardize and compare models on a train/test pair.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/attrition-cli/internal/analysis"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/encode"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
	"github.com/KaramelBytes/attrition-cli/internal/model"
	"github.com/KaramelBytes/attrition-cli/internal/normalize"
)

// Stage holds every intermediate of one input file. Each field is produced
// from the previous one and never modified afterwards.
type Stage struct {
	Path    string
	Table   *dataset.Table
	Encoded *dataset.Frame
	Gaps    *encode.GapReport
	Missing *analysis.Report
	Imputed *impute.Result
	// Modelled is the stacked draws, or a single draw when Config.Draw > 0.
	Modelled   *dataset.Frame
	Normalized *dataset.Frame
	Stats      normalize.Stats
}

// HasTarget reports whether the modelled frame carries a complete target column.
func (s *Stage) HasTarget(target string) bool {
	if s.Modelled == nil {
		return false
	}
	if _, ok := s.Modelled.Index(target); !ok {
		return false
	}
	return s.Modelled.MissingIn(target) == 0
}

// Result is the outcome of a full run.
type Result struct {
	Config Config
	Train  *Stage
	Test   *Stage

	OLS *model.OLSFit
	// OLSConf scores the fitted values rounded at 0.5 on the training partition.
	OLSConf *model.Confusion

	KNN *model.KNN
	// KNNTest is set when the test file carries the target; otherwise
	// KNNCounts tallies the predicted classes.
	KNNTest   *model.Confusion
	KNNCounts []model.ClassCount

	TreeFull      *model.Tree
	TreeFullConf  *model.Confusion
	TreeDepth     *model.Tree
	TreeDepthConf *model.Confusion
}

// Encode loads and encodes one file and profiles its missingness.
func Encode(path string, cfg Config) (*Stage, error) {
	t, err := dataset.Load(path, cfg.Load)
	if err != nil {
		return nil, err
	}
	f, gaps, err := encode.Encode(t, cfg.Schema)
	if err != nil {
		return nil, err
	}
	s := &Stage{Path: path, Table: t, Encoded: f, Gaps: gaps}
	s.Missing = analysis.Profile(t.Name, f, cfg.Report)
	slog.Debug("encoded", "file", path, "rows", f.NRows(), "columns", len(f.Header), "gaps", gaps.Total)
	return s, nil
}

// Impute fills the encoded frame and selects the frame used for modelling.
// A file without the target column drops the target's method entry; every
// other column of the method map must be present.
func (s *Stage) Impute(cfg Config) error {
	opt := cfg.Impute
	if _, ok := s.Encoded.Index(cfg.Target); !ok {
		opt = opt.Without(cfg.Target)
	}
	res, err := impute.Run(s.Encoded, opt)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Table.Name, err)
	}
	s.Imputed = res
	if cfg.Draw > 0 {
		g, err := res.Draw(cfg.Draw)
		if err != nil {
			return err
		}
		s.Modelled = g
		return nil
	}
	s.Modelled = res.Stack()
	return nil
}

// Normalize standardizes the feature columns of the modelled frame using its
// own statistics.
func (s *Stage) Normalize(cfg Config) error {
	f, stats, err := normalize.Standardize(s.Modelled, cfg.Features)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Table.Name, err)
	}
	s.Normalized = f
	s.Stats = stats
	return nil
}

func prepare(path string, cfg Config) (*Stage, error) {
	s, err := Encode(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Impute(cfg); err != nil {
		return nil, err
	}
	if err := s.Normalize(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes the full comparison. The train file must contain the target
// column; the test file may omit it.
func Run(trainPath, testPath string, cfg Config) (*Result, error) {
	res := &Result{Config: cfg}
	train, err := prepare(trainPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	res.Train = train
	if !train.HasTarget(cfg.Target) {
		return nil, fmt.Errorf("train: target column %q is absent or incomplete", cfg.Target)
	}
	test, err := prepare(testPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	res.Test = test

	X, err := train.Normalized.Select(cfg.Features)
	if err != nil {
		return nil, err
	}
	y, err := train.Normalized.Column(cfg.Target)
	if err != nil {
		return nil, err
	}
	Xtest, err := test.Normalized.Select(cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}

	// k-nearest neighbours, scored on the test partition.
	res.KNN = model.NewKNN(cfg.KNNK, cfg.Impute.Seed)
	if err := res.KNN.Fit(X, y); err != nil {
		return nil, err
	}
	pred, err := res.KNN.Predict(Xtest)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	if test.HasTarget(cfg.Target) {
		ytest, _ := test.Normalized.Column(cfg.Target)
		if res.KNNTest, err = model.NewConfusion(ytest, pred); err != nil {
			return nil, err
		}
	} else {
		res.KNNCounts = model.CountClasses(pred)
	}
	slog.Info("knn scored", "k", cfg.KNNK, "train", len(X), "test", len(Xtest))

	// Linear probability model, judged by its coefficients.
	if res.OLS, err = model.FitOLS(X, y, cfg.Features); err != nil {
		return nil, err
	}
	if res.OLSConf, err = model.NewConfusion(y, model.RoundLabels(res.OLS.Predict(X))); err != nil {
		return nil, err
	}

	// Classification trees, evaluated on the training partition.
	full := cfg.Tree
	full.MaxDepth = 0
	if res.TreeFull, res.TreeFullConf, err = fitTree(X, y, full, cfg.Features); err != nil {
		return nil, err
	}
	if res.TreeDepth, res.TreeDepthConf, err = fitTree(X, y, cfg.Tree, cfg.Features); err != nil {
		return nil, err
	}
	slog.Info("trees fitted", "unconstrained_depth", res.TreeFull.Depth(), "constrained_depth", res.TreeDepth.Depth())
	return res, nil
}

func fitTree(X [][]float64, y []float64, opt model.TreeOptions, names []string) (*model.Tree, *model.Confusion, error) {
	t := model.NewTree(opt)
	t.Features = names
	if err := t.Fit(X, y); err != nil {
		return nil, nil, err
	}
	conf, err := model.NewConfusion(y, t.Predict(X))
	if err != nil {
		return nil, nil, err
	}
	return t, conf, nil
}

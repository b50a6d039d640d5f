package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/attrition-cli/internal/artifact"
	"github.com/KaramelBytes/attrition-cli/internal/config"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
	"github.com/KaramelBytes/attrition-cli/internal/model"
)

var testFeatures = []string{
	"city", "city_development_index", "gender", "relevent_experience",
	"enrolled_university", "education_level", "experience", "training_hours",
}

// writeHR writes a small HR-shaped file with gaps in gender, enrolled_university
// (no_enrollment has no code) and experience (plain years have no code).
func writeHR(t *testing.T, path string, n, offset int, withTarget bool) {
	t.Helper()
	cities := []string{"city_103", "city_21", "city_16"}
	genders := []string{"Male", "Female", "Other"}
	rel := []string{"Has relevent experience", "No relevent experience"}
	enrolled := []string{"Full time course", "Part time course", "Full time course", "Part time course", "no_enrollment", "Part time course", "Full time course"}
	edu := []string{"Graduate", "Masters", "Phd"}
	exper := []string{"<1", "<1", ">20", ">20", "7"}

	var b strings.Builder
	b.WriteString("enrollee_id,city,city_development_index,gender,relevent_experience,enrolled_university,education_level,experience,training_hours")
	if withTarget {
		b.WriteString(",target")
	}
	b.WriteString("\n")
	for k := 0; k < n; k++ {
		i := k + offset
		// Distinct periods keep the features linearly independent.
		gender := genders[(i/2)%3]
		if i%7 == 2 {
			gender = ""
		}
		hours := 10 + (i*37)%90
		fmt.Fprintf(&b, "%d,%s,%.3f,%s,%s,%s,%s,%s,%d",
			5000+i, cities[i%3], 0.5+0.004*float64((i*31)%97), gender, rel[(i/3)%2],
			enrolled[i%7], edu[(i/4)%3], exper[i%5], hours)
		if withTarget {
			target := 0
			if i%4 == 0 || hours > 80 {
				target = 1
			}
			fmt.Fprintf(&b, ",%d", target)
		}
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Features = append([]string(nil), testFeatures...)
	cfg.Impute.M = 2
	cfg.Impute.MaxIt = 2
	cfg.Impute.Methods = map[string]impute.Method{
		"enrollee_id":            impute.None,
		"city":                   impute.PMM,
		"city_development_index": impute.PMM,
		"gender":                 impute.CART,
		"relevent_experience":    impute.CART,
		"enrolled_university":    impute.CART,
		"education_level":        impute.CART,
		"experience":             impute.PMM,
		"training_hours":         impute.PMM,
		"target":                 impute.None,
	}
	cfg.Impute.Categorical = []string{"education_level", "enrolled_university", "gender", "relevent_experience"}
	cfg.Tree.MaxDepth = 2
	return cfg
}

func fixtures(t *testing.T, testTarget bool) (string, string) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	writeHR(t, train, 90, 0, true)
	writeHR(t, test, 30, 1000, testTarget)
	return train, test
}

func TestRunWithoutTestTarget(t *testing.T) {
	train, test := fixtures(t, false)
	cfg := testConfig()
	res, err := Run(train, test, cfg)
	require.NoError(t, err)

	assert.Equal(t, 13, res.Train.Gaps.Column("enrolled_university"))
	assert.Equal(t, 18, res.Train.Gaps.Column("experience"))
	assert.Equal(t, 2*90, res.Train.Modelled.NRows())
	assert.Equal(t, ".imp", res.Train.Modelled.Header[0])
	for _, name := range testFeatures {
		assert.Zero(t, res.Train.Modelled.MissingIn(name), name)
		assert.Zero(t, res.Test.Modelled.MissingIn(name), name)
		col, err := res.Train.Normalized.Column(name)
		require.NoError(t, err)
		mean, std := stat.MeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
	}

	require.Nil(t, res.KNNTest)
	total := 0
	for _, c := range res.KNNCounts {
		total += c.Count
	}
	assert.Equal(t, 2*30, total)

	require.NotNil(t, res.OLS)
	assert.Len(t, res.OLS.Coefs, len(testFeatures)+1)
	assert.Equal(t, "(Intercept)", res.OLS.Coefs[0].Name)
	assert.Equal(t, "city", res.OLS.Coefs[1].Name)

	assert.LessOrEqual(t, res.TreeDepth.Depth(), 2)
	assert.GreaterOrEqual(t, res.TreeFull.Depth(), res.TreeDepth.Depth())
	assert.Equal(t, 2*90, res.TreeFullConf.N)

	var buf bytes.Buffer
	require.NoError(t, res.Render(&buf))
	out := buf.String()
	for _, want := range []string{
		"==== train.csv ====", "[ENCODING GAPS]", "[MISSINGNESS]", "[IMPUTATION]",
		"[STANDARDIZATION]", "[LINEAR MODEL] target ~ features", "[KNN] k=2",
		"Test file has no target", "[TREE] unconstrained", "[TREE] max depth 2", "Accuracy:",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRunScoresKNNWhenTestHasTarget(t *testing.T) {
	train, test := fixtures(t, true)
	cfg := testConfig()
	cfg.Draw = 1
	res, err := Run(train, test, cfg)
	require.NoError(t, err)
	assert.Equal(t, 90, res.Train.Modelled.NRows())
	require.NotNil(t, res.KNNTest)
	assert.Equal(t, 30, res.KNNTest.N)
	assert.Nil(t, res.KNNCounts)
}

func TestRunIsReproducible(t *testing.T) {
	train, test := fixtures(t, false)
	a, err := Run(train, test, testConfig())
	require.NoError(t, err)
	b, err := Run(train, test, testConfig())
	require.NoError(t, err)
	assert.Equal(t, a.KNNCounts, b.KNNCounts)
	assert.Equal(t, a.Train.Normalized.Data, b.Train.Normalized.Data)
	assert.Equal(t, a.TreeFull.String(), b.TreeFull.String())
}

func TestRunRequiresTrainTarget(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	writeHR(t, train, 60, 0, false)
	cfg := testConfig()
	delete(cfg.Impute.Methods, "target")
	_, err := Run(train, train, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `target column "target"`)
}

func TestRunRejectsIncompleteMethodMap(t *testing.T) {
	train, test := fixtures(t, false)
	cfg := testConfig()
	delete(cfg.Impute.Methods, "gender")
	_, err := Run(train, test, cfg)
	var ce *impute.ConfigError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "gender", ce.Column)
}

func TestRunRejectsMethodForAbsentColumn(t *testing.T) {
	train, test := fixtures(t, false)
	cfg := testConfig()
	cfg.Impute.Methods["salary"] = impute.PMM
	_, err := Run(train, test, cfg)
	var ce *impute.ConfigError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "salary", ce.Column)
	assert.Contains(t, err.Error(), "train")
}

// blankColumn clears column col in every other data row of a CSV file.
func blankColumn(t *testing.T, path string, col int) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	for i := 1; i < len(lines); i += 2 {
		fields := strings.Split(lines[i], ",")
		fields[col] = ""
		lines[i] = strings.Join(fields, ",")
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestRunRejectsGapsInUnimputedTestFeature(t *testing.T) {
	train, test := fixtures(t, false)
	blankColumn(t, test, 8) // training_hours
	cfg := testConfig()
	cfg.Impute.Methods["training_hours"] = impute.None

	_, err := Run(train, test, cfg)
	var fe *model.FitError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, "knn", fe.Model)
	assert.True(t, strings.HasPrefix(err.Error(), "test: "), err.Error())
}

func TestRunReportsLinearModelAccuracy(t *testing.T) {
	train, test := fixtures(t, false)
	res, err := Run(train, test, testConfig())
	require.NoError(t, err)
	require.NotNil(t, res.OLSConf)
	assert.Equal(t, 2*90, res.OLSConf.N)

	var buf bytes.Buffer
	require.NoError(t, res.Render(&buf))
	assert.Contains(t, buf.String(), "Fitted values rounded at 0.5, training partition:")
	assert.Contains(t, buf.String(), "Significant at 0.05: ")
}

func TestWriteArtifacts(t *testing.T) {
	train, test := fixtures(t, false)
	res, err := Run(train, test, testConfig())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "run")
	m := artifact.NewManifest(out, "run")
	require.NoError(t, res.WriteArtifacts(m, true))
	require.NoError(t, m.Save())

	for _, name := range []string{
		"run.json", "report.md", "train_encoded.csv", "train_imputed.csv", "train_normalized.csv",
		"test_encoded.csv", "train_missing.png", "train_patterns.png", "train_strip_gender.png",
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, []string{train, test}, m.Inputs)
	assert.Equal(t, artifact.KindPlot, m.Files["test_missing.png"].Kind)
}

func TestFromGlobal(t *testing.T) {
	g := config.Defaults()
	cfg, err := FromGlobal(g)
	require.NoError(t, err)
	assert.Equal(t, ',', cfg.Load.Delimiter)
	assert.Equal(t, impute.CART, cfg.Impute.Methods["gender"])
	assert.Equal(t, int64(500), cfg.Impute.Seed)
	assert.Equal(t, 5, cfg.Tree.MaxDepth)
	assert.Len(t, cfg.Features, 12)

	g.Impute.Methods["gender"] = "mean"
	_, err = FromGlobal(g)
	var ce *impute.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "gender", ce.Column)

	g = config.Defaults()
	g.Delimiter = ":"
	_, err = FromGlobal(g)
	assert.Error(t, err)

	g = config.Defaults()
	g.Impute.Draw = 6
	_, err = FromGlobal(g)
	assert.Error(t, err)

	g = config.Defaults()
	g.Features = append(g.Features, "enrollee_id")
	_, err = FromGlobal(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id column")
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, ",": ',', "tab": '\t', "TAB": '\t', ";": ';', "|": '|'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

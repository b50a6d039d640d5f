package plot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/attrition-cli/internal/analysis"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
)

func sample() *dataset.Frame {
	nan := math.NaN()
	var data [][]float64
	for i := 0; i < 30; i++ {
		x := float64(i)
		y := 3*x + float64(i%4)
		z := float64(i % 2)
		if i%6 == 0 {
			y = nan
		}
		if i%9 == 4 {
			z = nan
		}
		data = append(data, []float64{x, y, z})
	}
	return dataset.NewFrame("sample", []string{"x", "y", "z"}, data)
}

func assertWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestMissingBarsAndPattern(t *testing.T) {
	dir := t.TempDir()
	f := sample()
	rep := analysis.Profile("sample", f, analysis.DefaultOptions())

	bars := filepath.Join(dir, "bars.png")
	require.NoError(t, MissingBars(rep, bars))
	assertWritten(t, bars)

	pat := filepath.Join(dir, "pattern.svg")
	require.NoError(t, MissingPattern(f, pat, 2))
	assertWritten(t, pat)

	assert.Error(t, MissingBars(&analysis.Report{}, filepath.Join(dir, "empty.png")))
}

func TestImputationStrip(t *testing.T) {
	opt := impute.DefaultOptions()
	opt.M = 2
	opt.MaxIt = 1
	opt.Methods = map[string]impute.Method{"x": impute.None, "y": impute.PMM, "z": impute.CART}
	opt.Categorical = []string{"z"}
	res, err := impute.Run(sample(), opt)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "strip_y.png")
	require.NoError(t, ImputationStrip(res, "y", path))
	assertWritten(t, path)

	assert.Error(t, ImputationStrip(res, "x", path))
}

func TestJitterRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := jitter(i)
		assert.True(t, j >= -0.2 && j < 0.2, "jitter %v", j)
	}
}

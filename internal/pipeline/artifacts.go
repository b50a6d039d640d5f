package pipeline

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/attrition-cli/internal/artifact"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/plot"
	"github.com/KaramelBytes/attrition-cli/internal/utils"
)

// WriteArtifacts writes the run's frames, report and optional plots into the
// manifest's directory and records each file. The manifest is not saved.
func (r *Result) WriteArtifacts(m *artifact.Manifest, plots bool) error {
	for _, s := range []struct {
		role  string
		stage *Stage
	}{{"train", r.Train}, {"test", r.Test}} {
		if s.stage == nil {
			continue
		}
		m.Inputs = append(m.Inputs, s.stage.Path)
		if err := s.stage.WriteFrames(m, s.role); err != nil {
			return err
		}
		if plots {
			if err := s.stage.WritePlots(m, s.role); err != nil {
				return err
			}
		}
	}
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return err
	}
	return m.WriteFile("report.md", artifact.KindReport, "run report", buf.Bytes())
}

// WriteFrames writes the encoded, modelled and normalized frames that exist.
func (s *Stage) WriteFrames(m *artifact.Manifest, role string) error {
	for _, f := range []struct {
		suffix string
		frame  *dataset.Frame
		desc   string
	}{
		{"encoded", s.Encoded, "ordinal codes, NA for missing"},
		{"imputed", s.Modelled, "completed data used for modelling"},
		{"normalized", s.Normalized, "standardized features"},
	} {
		if f.frame == nil {
			continue
		}
		var buf bytes.Buffer
		if err := f.frame.WriteCSV(&buf); err != nil {
			return fmt.Errorf("%s %s: %w", role, f.suffix, err)
		}
		name := fmt.Sprintf("%s_%s.csv", role, f.suffix)
		if err := m.WriteFile(name, artifact.KindCSV, f.desc, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// WritePlots draws the missingness bars and patterns of the encoded frame and
// one strip plot per imputed column.
func (s *Stage) WritePlots(m *artifact.Manifest, role string) error {
	if err := utils.EnsureDir(m.Dir()); err != nil {
		return err
	}
	name := role + "_missing.png"
	if err := plot.MissingBars(s.Missing, m.Path(name)); err != nil {
		return err
	}
	if err := m.AddFile(name, artifact.KindPlot, "missing values per column"); err != nil {
		return err
	}
	name = role + "_patterns.png"
	if err := plot.MissingPattern(s.Encoded, m.Path(name), 20); err != nil {
		return err
	}
	if err := m.AddFile(name, artifact.KindPlot, "missingness patterns"); err != nil {
		return err
	}
	if s.Imputed == nil {
		return nil
	}
	for _, col := range s.Imputed.Order {
		name = fmt.Sprintf("%s_strip_%s.png", role, col)
		if err := plot.ImputationStrip(s.Imputed, col, m.Path(name)); err != nil {
			return err
		}
		if err := m.AddFile(name, artifact.KindPlot, "observed and imputed values of "+col); err != nil {
			return err
		}
	}
	return nil
}

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestManifestWriteSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := NewManifest(dir, "run")
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("id is not a uuid: %v", err)
	}
	m.Inputs = []string{"train.csv", "test.csv"}
	m.Seed = 500
	if err := m.WriteFile("report.md", KindReport, "run report", []byte("[DATASET SUMMARY]\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.AddFile("missing.png", KindPlot, ""); err == nil {
		t.Fatalf("expected error for a file that was never written")
	}
	if err := m.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "run.json")); err != nil {
		t.Fatalf("run.json not written: %v", err)
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != m.ID || got.Seed != 500 || len(got.Inputs) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	files := got.List()
	if len(files) != 1 || files[0].Name != "report.md" || files[0].Bytes != int64(len("[DATASET SUMMARY]\n")) {
		t.Fatalf("unexpected files: %+v", files)
	}
	if got.Dir() != dir {
		t.Fatalf("dir not restored")
	}
}

func TestLoadMissingManifest(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSaveWithoutDir(t *testing.T) {
	m := NewManifest("", "run")
	if err := m.Save(); err == nil {
		t.Fatalf("expected error without output dir")
	}
}

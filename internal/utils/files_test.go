package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"d1", "d2"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "hr.csv"), []byte("a\n1\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	lit := filepath.Join(dir, "d1", "hr.csv")
	files, err := ExpandInputs([]string{filepath.Join(dir, "d*", "hr.csv"), lit})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(files) != 2 || files[0] != lit {
		t.Fatalf("unexpected files: %v", files)
	}
	if _, err := ExpandInputs([]string{filepath.Join(dir, "none*.csv")}); err == nil {
		t.Fatalf("expected error for unmatched pattern")
	}
}

func TestUniquePathAndSafeWrite(t *testing.T) {
	dir := t.TempDir()
	p1 := UniquePath(dir, "hr", ".summary.md")
	if filepath.Base(p1) != "hr.summary.md" {
		t.Fatalf("got %s", p1)
	}
	if err := SafeWriteFile(p1, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	p2 := UniquePath(dir, "hr", ".summary.md")
	if filepath.Base(p2) != "hr__2.summary.md" {
		t.Fatalf("got %s", p2)
	}
	if _, err := os.Stat(p1 + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
	if BaseName("/a/b/aug_train.csv") != "aug_train" {
		t.Fatalf("BaseName")
	}
}

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that persist across invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns its stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// mustRun is a helper to execute the root command with args.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeHRFile writes n rows with every column of the HR attrition data.
func writeHRFile(t *testing.T, path string, n, offset int, withTarget bool) {
	t.Helper()
	cities := []string{"city_103", "city_21", "city_16", "city_114"}
	genders := []string{"Male", "Female", "Other"}
	rel := []string{"Has relevent experience", "No relevent experience"}
	enrolled := []string{"Full time course", "no_enrollment", "Part time course", "Full time course", "Part time course"}
	edu := []string{"Graduate", "Masters", "Phd", "High School"}
	major := []string{"STEM", "Business Degree", "Arts", "Humanities", "STEM", "Other"}
	exper := []string{"<1", ">20", "5", ">20", "<1", "12", ">20"}
	size := []string{"<10", "50-99", "Oct-49", "100-500", "10000+", "10/49", "1000-4999"}
	ctype := []string{"Pvt Ltd", "Funded Startup", "Public Sector", "NGO", "Pvt Ltd"}
	lastJob := []string{">4", "never", "1", ">4", "2", "never"}

	var b strings.Builder
	b.WriteString("enrollee_id,city,city_development_index,gender,relevent_experience,enrolled_university,education_level,major_discipline,experience,company_size,company_type,last_new_job,training_hours")
	if withTarget {
		b.WriteString(",target")
	}
	b.WriteString("\n")
	for k := 0; k < n; k++ {
		i := k + offset
		gender := genders[i%3]
		if i%7 == 3 {
			gender = ""
		}
		csize := size[i%7]
		if i%11 == 5 {
			csize = "NA"
		}
		hours := 5 + (i*53)%120
		fmt.Fprintf(&b, "%d,%s,%.3f,%s,%s,%s,%s,%s,%s,%s,%s,%s,%d",
			20000+i, cities[i%4], 0.55+0.004*float64((i*31)%97), gender, rel[i%2],
			enrolled[i%5], edu[i%4], major[i%6], exper[i%7], csize, ctype[i%5], lastJob[i%6], hours)
		if withTarget {
			target := 0
			if i%5 == 1 || hours > 100 {
				target = 1
			}
			fmt.Fprintf(&b, ",%d", target)
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLI_InitConfigSetShow(t *testing.T) {
	home := isolateHome(t)
	out := mustRun(t, "init")
	cfgPath := filepath.Join(home, ".attrition", "config.yaml")
	if !strings.Contains(out, cfgPath) {
		t.Fatalf("init output %q does not name %s", out, cfgPath)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execCmd(t, "init"); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}

	mustRun(t, "config", "set", "impute.m", "3")
	mustRun(t, "config", "set", "impute.methods.training_hours", "CART")
	mustRun(t, "config", "set", "features", "city, experience,training_hours")
	show := mustRun(t, "config", "show")
	for _, want := range []string{"m: 3", "training_hours: cart", "- experience"} {
		if !strings.Contains(show, want) {
			t.Fatalf("config show missing %q:\n%s", want, show)
		}
	}
	if _, err := execCmd(t, "config", "set", "bogus", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := execCmd(t, "config", "set", "impute.methods.city", "mean"); err == nil {
		t.Fatalf("expected invalid method error")
	}
}

func TestCLI_EncodeWritesCSVAndGaps(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "train.csv")
	writeHRFile(t, in, 20, 0, true)
	dst := filepath.Join(home, "encoded.csv")
	out := mustRun(t, "encode", in, "-o", dst)
	if !strings.Contains(out, "Wrote 20 encoded rows") || !strings.Contains(out, "[ENCODING GAPS]") {
		t.Fatalf("unexpected encode output:\n%s", out)
	}
	body, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read encoded: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 21 {
		t.Fatalf("got %d lines, want 21", len(lines))
	}
	// Row 1 (i=0): city_103, Male, Has relevent experience, Full time course, Graduate.
	if !strings.HasPrefix(lines[1], "20000,103,0.55,0,0,0,2,") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
	// Row 2 (i=1): enrolled_university no_enrollment -> NA.
	if fields := strings.Split(lines[2], ","); fields[5] != "NA" {
		t.Fatalf("no_enrollment encoded as %q", fields[5])
	}
}

func TestCLI_MissingBatchWithCollisions(t *testing.T) {
	home := isolateHome(t)
	for _, d := range []string{"d1", "d2"} {
		if err := os.MkdirAll(filepath.Join(home, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		writeHRFile(t, filepath.Join(home, d, "hr.csv"), 15, 0, true)
	}
	reports := filepath.Join(home, "reports")
	plots := filepath.Join(home, "plots")
	out := mustRun(t, "missing", filepath.Join(home, "d*", "hr.csv"), "--output-dir", reports, "--plot-dir", plots, "--sample-rows", "0")
	if !strings.Contains(out, "[1/2] Processing hr.csv") {
		t.Fatalf("missing progress output:\n%s", out)
	}
	b1 := filepath.Join(reports, "hr.summary.md")
	b2 := filepath.Join(reports, "hr__2.summary.md")
	for _, p := range []string{b1, b2, filepath.Join(plots, "hr_missing.png"), filepath.Join(plots, "hr_patterns.png")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	body, err := os.ReadFile(b1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(body)
	if !strings.Contains(s, "[MISSINGNESS]") || !strings.Contains(s, "[ENCODING GAPS]") {
		t.Fatalf("unexpected report:\n%s", s)
	}
	if strings.Contains(s, "[HEAD AND SAMPLE ROWS]") {
		t.Fatalf("sample rows should be suppressed")
	}

	raw := mustRun(t, "missing", filepath.Join(home, "d1", "hr.csv"), "--raw")
	if strings.Contains(raw, "[ENCODING GAPS]") || !strings.Contains(raw, "[DATASET SUMMARY]") {
		t.Fatalf("unexpected raw report:\n%s", raw)
	}
	if _, err := execCmd(t, "missing", filepath.Join(home, "d*", "hr.csv"), "-o", filepath.Join(home, "x.md")); err == nil {
		t.Fatalf("expected --output with several inputs to fail")
	}
}

func TestCLI_ImputeStacksDraws(t *testing.T) {
	home := isolateHome(t)
	in := filepath.Join(home, "train.csv")
	writeHRFile(t, in, 60, 0, true)
	dst := filepath.Join(home, "stacked.csv")
	out := mustRun(t, "impute", in, "-o", dst, "--m", "2", "--maxit", "2")
	if !strings.Contains(out, "Wrote 120 rows") || !strings.Contains(out, "[IMPUTATION]\nDraws: 2") {
		t.Fatalf("unexpected impute output:\n%s", out)
	}
	body, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(body), ".imp,.id,enrollee_id,") {
		t.Fatalf("stacked header missing: %.60s", body)
	}
	if strings.Contains(string(body), "NA") {
		t.Fatalf("stacked output still has missing values")
	}
}

func TestCLI_RunWritesArtifacts(t *testing.T) {
	home := isolateHome(t)
	train := filepath.Join(home, "train.csv")
	test := filepath.Join(home, "test.csv")
	writeHRFile(t, train, 90, 0, true)
	writeHRFile(t, test, 30, 500, false)
	dir := filepath.Join(home, "out")

	out := mustRun(t, "run", "--train", train, "--test", test, "--output", dir, "--m", "2", "--seed", "7")
	for _, want := range []string{"[LINEAR MODEL]", "[KNN] k=2", "[TREE] unconstrained", "Wrote "} {
		if !strings.Contains(out, want) {
			t.Fatalf("run output missing %q", want)
		}
	}
	for _, name := range []string{"run.json", "report.md", "train_imputed.csv", "test_normalized.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	manifest, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(manifest), `"seed": 7`) {
		t.Fatalf("seed override not recorded:\n%s", manifest)
	}

	if _, err := execCmd(t, "run", "--train", train); err == nil {
		t.Fatalf("expected missing --test to fail")
	}
}

func TestCLI_Schema(t *testing.T) {
	isolateHome(t)
	out := mustRun(t, "schema")
	for _, want := range []string{"[CODE TABLES]", "Oct-49", "no_enrollment has no code", "[IMPUTATION METHODS]", "enrolled_university", "cart"} {
		if !strings.Contains(out, want) {
			t.Fatalf("schema output missing %q:\n%s", want, out)
		}
	}
}

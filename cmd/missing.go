package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/attrition-cli/internal/analysis"
	"github.com/KaramelBytes/attrition-cli/internal/dataset"
	"github.com/KaramelBytes/attrition-cli/internal/pipeline"
	"github.com/KaramelBytes/attrition-cli/internal/plot"
	"github.com/KaramelBytes/attrition-cli/internal/utils"
)

var (
	misRaw         bool
	misOutput      string
	misOutputDir   string
	misPlotDir     string
	misSampleRows  int
	misMaxPatterns int
	misQuiet       bool
)

var missingCmd = &cobra.Command{
	Use:   "missing <files...>",
	Short: "Report missing values, co-missing pairs and missingness patterns",
	Long: `Missing profiles one or more files (globs allowed). By default values are
encoded first, so cells without a code count as missing; --raw profiles the
file as loaded.`,
	Example: `  attrition missing HRRetention_train.csv
  attrition missing "data/*.csv" --output-dir ./reports --plot-dir ./plots
  attrition missing train.csv --raw -o train_missing.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		if misOutput != "" && len(files) > 1 {
			return fmt.Errorf("--output takes a single input; use --output-dir for %d files", len(files))
		}
		g, err := currentConfig()
		if err != nil {
			return err
		}
		pc, err := pipeline.FromGlobal(g)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("sample-rows") {
			pc.Report.SampleRows = misSampleRows
		}
		if cmd.Flags().Changed("max-patterns") {
			pc.Report.MaxPatterns = misMaxPatterns
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if total > 1 && !misQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			rep, src, gaps, err := profile(path, pc)
			if err != nil {
				return err
			}
			md := gaps + rep.Markdown()
			base := utils.BaseName(path)

			switch {
			case misOutputDir != "":
				if err := utils.EnsureDir(misOutputDir); err != nil {
					return err
				}
				dst := utils.UniquePath(misOutputDir, base, ".summary.md")
				if !strings.HasSuffix(dst, base+".summary.md") && !misQuiet {
					printWarn(out, "Detected existing summary, writing to %s to avoid overwrite.", filepath.Base(dst))
				}
				if err := utils.SafeWriteFile(dst, []byte(md)); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if !misQuiet {
					printOK(out, "Wrote missingness report to %s", dst)
				}
			case misOutput != "":
				if err := utils.SafeWriteFile(misOutput, []byte(md)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				if !misQuiet {
					printOK(out, "Wrote missingness report to %s", misOutput)
				}
			default:
				fmt.Fprintln(out, md)
			}

			if misPlotDir != "" {
				if err := utils.EnsureDir(misPlotDir); err != nil {
					return err
				}
				bars := filepath.Join(misPlotDir, base+"_missing.png")
				if err := plot.MissingBars(rep, bars); err != nil {
					return err
				}
				pats := filepath.Join(misPlotDir, base+"_patterns.png")
				if err := plot.MissingPattern(src, pats, pc.Report.MaxPatterns); err != nil {
					return err
				}
				if !misQuiet {
					printOK(out, "Wrote plots %s, %s", bars, pats)
				}
			}
		}
		return nil
	},
}

// profile builds the missingness report of one file, raw or encoded.
func profile(path string, pc pipeline.Config) (*analysis.Report, analysis.Source, string, error) {
	if misRaw {
		t, err := dataset.Load(path, pc.Load)
		if err != nil {
			return nil, nil, "", err
		}
		return analysis.Profile(t.Name, t, pc.Report), t, "", nil
	}
	s, err := pipeline.Encode(path, pc)
	if err != nil {
		return nil, nil, "", err
	}
	gaps := s.Gaps.Markdown()
	if gaps != "" {
		gaps += "\n"
	}
	return s.Missing, s.Encoded, gaps, nil
}

func init() {
	rootCmd.AddCommand(missingCmd)
	missingCmd.Flags().BoolVar(&misRaw, "raw", false, "profile the file as loaded, without encoding")
	missingCmd.Flags().StringVarP(&misOutput, "output", "o", "", "write the report here (single input only)")
	missingCmd.Flags().StringVar(&misOutputDir, "output-dir", "", "write one <name>.summary.md per input into this directory")
	missingCmd.Flags().StringVar(&misPlotDir, "plot-dir", "", "write missingness bar and pattern plots into this directory")
	missingCmd.Flags().IntVar(&misSampleRows, "sample-rows", 5, "number of leading rows to include (0 disables)")
	missingCmd.Flags().IntVar(&misMaxPatterns, "max-patterns", 10, "number of missingness patterns to list")
	missingCmd.Flags().BoolVar(&misQuiet, "quiet", false, "suppress progress and non-essential output")
}

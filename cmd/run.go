package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/attrition-cli/internal/artifact"
	"github.com/KaramelBytes/attrition-cli/internal/pipeline"
)

var (
	runTrain  string
	runTest   string
	runOutput string
	runPlots  bool
	runDraw   int
	runM      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline on a train/test pair and compare the models",
	Example: `  attrition run --train HRRetention_train.csv --test HRRetention_test.csv
  attrition run --train train.csv --test test.csv --output ./out --plots
  attrition run --train train.csv --test test.csv --draw 1 --seed 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := currentConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("m") {
			g.Impute.M = runM
		}
		if cmd.Flags().Changed("draw") {
			g.Impute.Draw = runDraw
		}
		pc, err := pipeline.FromGlobal(g)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(runTrain, runTest, pc)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := res.Render(out); err != nil {
			return err
		}

		dir := runOutput
		if dir == "" {
			dir = g.OutputDir
		}
		if dir == "" {
			return nil
		}
		m := artifact.NewManifest(dir, "run")
		m.Seed = g.Seed
		m.Config = g
		if err := res.WriteArtifacts(m, runPlots || g.Plots); err != nil {
			return fmt.Errorf("write artifacts: %w", err)
		}
		if err := m.Save(); err != nil {
			return err
		}
		printOK(out, "Wrote %d files to %s (run %s)", len(m.Files), dir, m.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runTrain, "train", "", "training file (CSV/TSV/XLSX)")
	runCmd.Flags().StringVar(&runTest, "test", "", "test file (CSV/TSV/XLSX); the target column is optional")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "directory for CSVs, report.md, plots and run.json")
	runCmd.Flags().BoolVar(&runPlots, "plots", false, "write missingness and imputation plots (requires --output)")
	runCmd.Flags().IntVar(&runDraw, "draw", 0, "model on completed draw N instead of the stacked draws")
	runCmd.Flags().IntVar(&runM, "m", 5, "number of imputed draws (overrides config)")
	_ = runCmd.MarkFlagRequired("train")
	_ = runCmd.MarkFlagRequired("test")
}

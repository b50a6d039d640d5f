package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/attrition-cli/internal/pipeline"
	"github.com/KaramelBytes/attrition-cli/internal/utils"
)

var (
	impOutput string
	impM      int
	impMaxIt  int
	impDraw   int
)

var imputeCmd = &cobra.Command{
	Use:   "impute <file>",
	Short: "Encode a file and fill its gaps by multiple imputation",
	Long: `Impute encodes the file, runs the configured pmm/cart chained equations and
writes the stacked draws (with .imp and .id columns) as CSV. Use --draw to
write a single completed draw instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := currentConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("m") {
			g.Impute.M = impM
		}
		if cmd.Flags().Changed("maxit") {
			g.Impute.MaxIt = impMaxIt
		}
		if cmd.Flags().Changed("draw") {
			g.Impute.Draw = impDraw
		}
		pc, err := pipeline.FromGlobal(g)
		if err != nil {
			return err
		}
		s, err := pipeline.Encode(args[0], pc)
		if err != nil {
			return err
		}
		if err := s.Impute(pc); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := s.Modelled.WriteCSV(&buf); err != nil {
			return err
		}
		summary := s.Imputed.Markdown()
		if impOutput == "" {
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), summary)
			return nil
		}
		if err := utils.SafeWriteFile(impOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		out := cmd.OutOrStdout()
		printOK(out, "Wrote %d rows to %s", s.Modelled.NRows(), impOutput)
		for _, name := range s.Imputed.Skipped {
			printWarn(out, "column %s has method none and keeps %d missing values", name, s.Encoded.MissingIn(name))
		}
		fmt.Fprint(out, summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imputeCmd)
	imputeCmd.Flags().StringVarP(&impOutput, "output", "o", "", "write the imputed CSV here instead of stdout")
	imputeCmd.Flags().IntVar(&impM, "m", 5, "number of imputed draws (overrides config)")
	imputeCmd.Flags().IntVar(&impMaxIt, "maxit", 5, "chained-equation sweeps per draw (overrides config)")
	imputeCmd.Flags().IntVar(&impDraw, "draw", 0, "write completed draw N instead of the stacked draws")
}

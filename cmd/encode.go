package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/attrition-cli/internal/pipeline"
	"github.com/KaramelBytes/attrition-cli/internal/utils"
)

var encOutput string

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Recode categorical columns to ordinal codes and report values without a code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := currentConfig()
		if err != nil {
			return err
		}
		pc, err := pipeline.FromGlobal(g)
		if err != nil {
			return err
		}
		s, err := pipeline.Encode(args[0], pc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := s.Encoded.WriteCSV(&buf); err != nil {
			return err
		}
		gaps := s.Gaps.Markdown()
		if encOutput == "" {
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
			if gaps != "" {
				fmt.Fprint(cmd.ErrOrStderr(), gaps)
			}
			return nil
		}
		if err := utils.SafeWriteFile(encOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		out := cmd.OutOrStdout()
		printOK(out, "Wrote %d encoded rows to %s", s.Encoded.NRows(), encOutput)
		if gaps != "" {
			printWarn(out, "%d values had no code and were set to NA", s.Gaps.Total)
			fmt.Fprint(out, gaps)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVarP(&encOutput, "output", "o", "", "write the encoded CSV here instead of stdout")
}

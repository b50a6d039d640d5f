package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/attrition-cli/internal/encode"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the categorical code tables and the imputation method of each column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "[CODE TABLES]")
		t := tablewriter.NewWriter(out)
		t.SetHeader([]string{"Column", "Value", "Code", "Note"})
		t.SetAutoFormatHeaders(false)
		t.SetAutoMergeCells(true)
		for _, m := range encode.DefaultSchema() {
			for _, vc := range sortedCodes(m) {
				t.Append([]string{m.Column, vc.value, strconv.Itoa(vc.code), m.Note})
			}
			if m.Token != nil {
				t.Append([]string{m.Column, "city_<digits>", "<digits>", m.Note})
			}
		}
		t.Render()

		g, err := currentConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\n[IMPUTATION METHODS]")
		cols := make([]string, 0, len(g.Impute.Methods))
		for c := range g.Impute.Methods {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		categorical := map[string]bool{}
		for _, c := range g.Impute.Categorical {
			categorical[c] = true
		}
		features := map[string]bool{}
		for _, c := range g.Features {
			features[c] = true
		}
		mt := tablewriter.NewWriter(out)
		mt.SetHeader([]string{"Column", "Method", "Categorical", "Feature"})
		mt.SetAutoFormatHeaders(false)
		for _, c := range cols {
			mt.Append([]string{c, g.Impute.Methods[c], yesNo(categorical[c]), yesNo(features[c])})
		}
		mt.Render()
		fmt.Fprintf(out, "Target: %s, id column: %s\n", g.Target, g.IDColumn)
		return nil
	},
}

type valueCode struct {
	value string
	code  int
}

func sortedCodes(m encode.Mapping) []valueCode {
	out := make([]valueCode, 0, len(m.Codes))
	for v, c := range m.Codes {
		out = append(out, valueCode{v, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].code == out[j].code {
			return out[i].value < out[j].value
		}
		return out[i].code < out[j].code
	})
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

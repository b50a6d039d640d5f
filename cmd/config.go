package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/attrition-cli/internal/config"
	"github.com/KaramelBytes/attrition-cli/internal/impute"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set attrition configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		b, err := cfgpkg.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Example: `  attrition config set seed 42
  attrition config set impute.m 10
  attrition config set impute.methods.training_hours cart
  attrition config set features city,experience,training_hours`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if col, ok := strings.CutPrefix(key, "impute.methods."); ok {
		m, err := impute.ParseMethod(val)
		if err != nil {
			return err
		}
		if c.Impute.Methods == nil {
			c.Impute.Methods = map[string]string{}
		}
		c.Impute.Methods[col] = string(m)
		return nil
	}
	switch key {
	case "delimiter":
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "target":
		c.Target = val
	case "id_column":
		c.IDColumn = val
	case "output_dir":
		c.OutputDir = val
	case "features":
		c.Features = splitList(val)
	case "na_tokens":
		c.NATokens = strings.Split(val, ",")
	case "impute.predictors":
		c.Impute.Predictors = splitList(val)
	case "impute.categorical":
		c.Impute.Categorical = splitList(val)
	case "plots":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for plots: %w", err)
		}
		c.Plots = b
	case "seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		c.Seed = i
	case "impute.cp", "model.tree_cp":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		if key == "impute.cp" {
			c.Impute.CP = f
		} else {
			c.Model.TreeCP = f
		}
	default:
		dst := intKeys(c)[key]
		if dst == nil {
			return fmt.Errorf("unknown key: %s", key)
		}
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		*dst = i
	}
	return nil
}

func intKeys(c *cfgpkg.Global) map[string]*int {
	return map[string]*int{
		"impute.m":              &c.Impute.M,
		"impute.maxit":          &c.Impute.MaxIt,
		"impute.donors":         &c.Impute.Donors,
		"impute.minbucket":      &c.Impute.MinBucket,
		"impute.draw":           &c.Impute.Draw,
		"model.knn_k":           &c.Model.KNNK,
		"model.tree_max_depth":  &c.Model.TreeMaxDepth,
		"model.tree_min_split":  &c.Model.TreeMinSplit,
		"model.tree_min_bucket": &c.Model.TreeMinBucket,
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

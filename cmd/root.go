package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/attrition-cli/internal/config"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDelimiter string
	flagSeed      int64

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "attrition",
	Short: "Attrition CLI: impute, standardize and model HR attrition data",
	Long: `Attrition loads an HR train/test pair, recodes categorical fields to ordinal codes,
reports missingness, fills gaps by multiple imputation (pmm/cart chained equations),
standardizes the features and compares k-nearest-neighbours, a linear model and
classification trees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.attrition/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "input delimiter: ',' | ';' | '|' | 'tab' (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "random seed for imputation and knn ties (overrides config)")
}

func loadConfig() {
	cfgpkg.InitLogger(debug)
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it via currentConfig.
		cfg, cfgErr = nil, err
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", color.YellowString("⚠ Warning:"), err)
		return
	}
	cfg, cfgErr = c, nil

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("seed") {
		cfg.Seed = flagSeed
	}
}

// currentConfig returns the loaded configuration or the reason it is missing.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, cfgErr
		}
		return nil, fmt.Errorf("no config loaded")
	}
	return cfg, nil
}

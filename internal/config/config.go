package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Input parsing
	Delimiter string   `mapstructure:"delimiter" yaml:"delimiter"`
	NATokens  []string `mapstructure:"na_tokens" yaml:"na_tokens"`
	Sheet     string   `mapstructure:"sheet" yaml:"sheet"`

	// Columns
	Target   string   `mapstructure:"target" yaml:"target"`
	IDColumn string   `mapstructure:"id_column" yaml:"id_column"`
	Features []string `mapstructure:"features" yaml:"features"`

	Seed      int64  `mapstructure:"seed" yaml:"seed"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Plots     bool   `mapstructure:"plots" yaml:"plots"`

	Impute Impute `mapstructure:"impute" yaml:"impute"`
	Model  Model  `mapstructure:"model" yaml:"model"`
}

// Impute holds the multiple-imputation settings.
type Impute struct {
	M         int     `mapstructure:"m" yaml:"m"`
	MaxIt     int     `mapstructure:"maxit" yaml:"maxit"`
	Donors    int     `mapstructure:"donors" yaml:"donors"`
	MinBucket int     `mapstructure:"minbucket" yaml:"minbucket"`
	CP        float64 `mapstructure:"cp" yaml:"cp"`
	// Methods maps every column to pmm, cart or none.
	Methods     map[string]string `mapstructure:"methods" yaml:"methods"`
	Predictors  []string          `mapstructure:"predictors" yaml:"predictors"`
	Categorical []string          `mapstructure:"categorical" yaml:"categorical"`
	// Draw selects the completed draw used for modelling; 0 uses the stacked draws.
	Draw int `mapstructure:"draw" yaml:"draw"`
}

// Model holds the model comparison settings.
type Model struct {
	KNNK          int     `mapstructure:"knn_k" yaml:"knn_k"`
	TreeMaxDepth  int     `mapstructure:"tree_max_depth" yaml:"tree_max_depth"`
	TreeMinSplit  int     `mapstructure:"tree_min_split" yaml:"tree_min_split"`
	TreeMinBucket int     `mapstructure:"tree_min_bucket" yaml:"tree_min_bucket"`
	TreeCP        float64 `mapstructure:"tree_cp" yaml:"tree_cp"`
}

// DefaultFeatures are the model features of the HR attrition data.
var DefaultFeatures = []string{
	"city", "city_development_index", "gender", "relevent_experience",
	"enrolled_university", "education_level", "major_discipline", "experience",
	"company_size", "company_type", "last_new_job", "training_hours",
}

// DefaultMethods assigns a fill method to every column of the HR attrition data.
func DefaultMethods() map[string]string {
	return map[string]string{
		"enrollee_id":            "none",
		"city":                   "pmm",
		"city_development_index": "pmm",
		"gender":                 "cart",
		"relevent_experience":    "cart",
		"enrolled_university":    "cart",
		"education_level":        "cart",
		"major_discipline":       "cart",
		"experience":             "pmm",
		"company_size":           "cart",
		"company_type":           "cart",
		"last_new_job":           "pmm",
		"training_hours":         "pmm",
		"target":                 "none",
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	methods := DefaultMethods()
	var categorical []string
	for col, m := range methods {
		if m == "cart" {
			categorical = append(categorical, col)
		}
	}
	sort.Strings(categorical)
	return &Global{
		Delimiter: ",",
		NATokens:  []string{"", "NA"},
		Target:    "target",
		IDColumn:  "enrollee_id",
		Features:  append([]string(nil), DefaultFeatures...),
		Seed:      500,
		Impute: Impute{
			M:           5,
			MaxIt:       5,
			Donors:      5,
			MinBucket:   5,
			CP:          1e-4,
			Methods:     methods,
			Categorical: categorical,
		},
		Model: Model{
			KNNK:          2,
			TreeMaxDepth:  5,
			TreeMinSplit:  20,
			TreeMinBucket: 7,
			TreeCP:        0.01,
		},
	}
}

// DefaultPath returns ~/.attrition/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".attrition", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.attrition/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func Marshal(c *Global) ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// EnvFile is an optional dotenv file whose ATTRITION_* entries are merged
// into the environment. Variables already set win.
var EnvFile = ".env"

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	if EnvFile != "" {
		if _, err := os.Stat(EnvFile); err == nil {
			if err := godotenv.Load(EnvFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", EnvFile, err)
			}
		}
	}
	v := viper.New()
	v.SetEnvPrefix("ATTRITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault("delimiter", def.Delimiter)
	v.SetDefault("na_tokens", def.NATokens)
	v.SetDefault("sheet", "")
	v.SetDefault("target", def.Target)
	v.SetDefault("id_column", def.IDColumn)
	v.SetDefault("features", def.Features)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("output_dir", "")
	v.SetDefault("plots", false)
	// Imputation defaults
	v.SetDefault("impute.m", def.Impute.M)
	v.SetDefault("impute.maxit", def.Impute.MaxIt)
	v.SetDefault("impute.donors", def.Impute.Donors)
	v.SetDefault("impute.minbucket", def.Impute.MinBucket)
	v.SetDefault("impute.cp", def.Impute.CP)
	v.SetDefault("impute.methods", def.Impute.Methods)
	v.SetDefault("impute.predictors", []string{})
	v.SetDefault("impute.categorical", def.Impute.Categorical)
	v.SetDefault("impute.draw", 0)
	// Model defaults
	v.SetDefault("model.knn_k", def.Model.KNNK)
	v.SetDefault("model.tree_max_depth", def.Model.TreeMaxDepth)
	v.SetDefault("model.tree_min_split", def.Model.TreeMinSplit)
	v.SetDefault("model.tree_min_bucket", def.Model.TreeMinBucket)
	v.SetDefault("model.tree_cp", def.Model.TreeCP)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// A file that names only some columns keeps the default method of the rest.
	if c.Impute.Methods == nil {
		c.Impute.Methods = map[string]string{}
	}
	for col, m := range def.Impute.Methods {
		if _, ok := c.Impute.Methods[col]; !ok {
			c.Impute.Methods[col] = m
		}
	}
	return &c, nil
}

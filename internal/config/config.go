package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultOutcomeLabels is the canonical project outcome vocabulary, in
// display order.
var DefaultOutcomeLabels = []string{"Succès", "Échec puis relance", "Échec (abandon, gel, oubli)", "Autre"}

// Global configuration structure.
type Global struct {
	// Normalization defaults applied when a plan or flag leaves them unset.
	Delimiters      string   `mapstructure:"delimiters" yaml:"delimiters"`
	CaseMode        string   `mapstructure:"case_mode" yaml:"case_mode"`
	SentinelLabel   string   `mapstructure:"sentinel_label" yaml:"sentinel_label"`
	OutcomeLabels   []string `mapstructure:"outcome_labels" yaml:"outcome_labels"`
	OutcomeFallback string   `mapstructure:"outcome_fallback" yaml:"outcome_fallback"`

	// Input decoding
	Encoding         string `mapstructure:"encoding" yaml:"encoding"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	TopN         int    `mapstructure:"top_n" yaml:"top_n"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.surveyloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".surveyloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveyloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYLOOM")
	v.AutomaticEnv()

	v.SetDefault("delimiters", ",")
	v.SetDefault("case_mode", "preserve")
	v.SetDefault("sentinel_label", "Empty")
	v.SetDefault("outcome_labels", DefaultOutcomeLabels)
	v.SetDefault("outcome_fallback", "Autre")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("output_format", "markdown")
	v.SetDefault("top_n", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit file that exists must parse
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		if _, statErr := os.Stat(cfgFile); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns one key by its YAML name. outcome_labels takes a
// semicolon-separated list since the labels themselves contain commas.
func (c *Global) Set(key, val string) error {
	switch key {
	case "delimiters":
		if val == "" {
			return fmt.Errorf("delimiters must not be empty")
		}
		c.Delimiters = val
	case "case_mode":
		switch val {
		case "preserve", "lower", "fold":
			c.CaseMode = val
		default:
			return fmt.Errorf("invalid case_mode: %s (use preserve, lower or fold)", val)
		}
	case "sentinel_label":
		if val == "" {
			return fmt.Errorf("sentinel_label must not be empty")
		}
		c.SentinelLabel = val
	case "outcome_labels":
		c.OutcomeLabels = splitList(val)
	case "outcome_fallback":
		c.OutcomeFallback = val
	case "encoding":
		c.Encoding = val
	case "decimal_separator":
		switch val {
		case "", ".", ",":
			c.DecimalSeparator = val
		default:
			return fmt.Errorf("invalid decimal_separator: %q (use . or ,)", val)
		}
	case "output_format":
		switch val {
		case "markdown", "text", "json":
			c.OutputFormat = val
		default:
			return fmt.Errorf("invalid output_format: %s (use markdown, text or json)", val)
		}
	case "top_n":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = n
	case "log_level":
		switch val {
		case "debug", "info", "warn", "error":
			c.LogLevel = val
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch val {
		case "text", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

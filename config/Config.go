// Package config provides layered configuration loading with priority:
// CLI flags > environment variables (SECSWEEP_*) > config file
// (~/.secsweep.yaml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reaandrew/secsweep/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ReportFormats lists the formats the reporter factory understands.
var ReportFormats = []string{"json", "xlsx", "sqlite", "table"}

// Config holds all scan options that can come from somewhere other than
// the command line.
type Config struct {
	Tools         []string      `mapstructure:"tools" yaml:"tools"`
	Output        string        `mapstructure:"output" yaml:"output"`
	Format        string        `mapstructure:"format" yaml:"format"`
	Schedule      string        `mapstructure:"schedule" yaml:"schedule"`
	Workers       int           `mapstructure:"workers" yaml:"workers"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Excludes      []string      `mapstructure:"excludes" yaml:"excludes"`
	CloneBaseDir  string        `mapstructure:"clone_base_dir" yaml:"clone_base_dir"`
	KeepClones    bool          `mapstructure:"keep_clones" yaml:"keep_clones"`
	ToolsFile     string        `mapstructure:"tools_file" yaml:"tools_file"`
	GitlabBaseURL string        `mapstructure:"gitlab_base_url" yaml:"gitlab_base_url"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Format:       "json",
		Schedule:     "once",
		Workers:      4,
		Timeout:      10 * time.Minute,
		CloneBaseDir: filepath.Join(os.TempDir(), "secsweep"),
	}
}

// Load reads configuration from ~/.secsweep.yaml and the environment.
// It does NOT apply CLI flag overrides, call ApplyFlags for that.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".secsweep")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("SECSWEEP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)

	v.SetEnvPrefix("SECSWEEP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// ApplyFlags overrides config values with any CLI flags that were
// explicitly set.
func ApplyFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("tools") {
		val, _ := flags.GetStringSlice("tools")
		cfg.Tools = val
	}
	if flags.Changed("output") {
		val, _ := flags.GetString("output")
		cfg.Output = val
	}
	if flags.Changed("format") {
		val, _ := flags.GetString("format")
		cfg.Format = val
	}
	if flags.Changed("schedule") {
		val, _ := flags.GetString("schedule")
		cfg.Schedule = val
	}
	if flags.Changed("workers") {
		val, _ := flags.GetInt("workers")
		cfg.Workers = val
	}
	if flags.Changed("timeout") {
		val, _ := flags.GetDuration("timeout")
		cfg.Timeout = val
	}
	if flags.Changed("exclude") {
		// StringArray, not StringSlice: glob alternations contain commas.
		val, _ := flags.GetStringArray("exclude")
		cfg.Excludes = val
	}
	if flags.Changed("clone-dir") {
		val, _ := flags.GetString("clone-dir")
		cfg.CloneBaseDir = val
	}
	if flags.Changed("keep-clones") {
		val, _ := flags.GetBool("keep-clones")
		cfg.KeepClones = val
	}
	if flags.Changed("tools-file") {
		val, _ := flags.GetString("tools-file")
		cfg.ToolsFile = val
	}
	if flags.Changed("gitlab-base-url") {
		val, _ := flags.GetString("gitlab-base-url")
		cfg.GitlabBaseURL = val
	}
}

// Validate checks option values that do not depend on the target list.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return core.NewConfigError("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return core.NewConfigError("timeout cannot be negative")
	}

	valid := false
	for _, format := range ReportFormats {
		if c.Format == format {
			valid = true
			break
		}
	}
	if !valid {
		return core.NewConfigError("unknown report format %q, expected one of: json, xlsx, sqlite, table", c.Format)
	}
	return nil
}

// ConfigFilePath returns the default config file path (~/.secsweep.yaml).
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".secsweep.yaml"
	}
	return filepath.Join(home, ".secsweep.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "json")
	v.SetDefault("schedule", "once")
	v.SetDefault("workers", 4)
	v.SetDefault("timeout", 10*time.Minute)
	v.SetDefault("clone_base_dir", filepath.Join(os.TempDir(), "secsweep"))
}

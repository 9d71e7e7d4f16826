// Package config loads settings for the local server, CLI and MCP server.
// Lambdas read plain environment variables through lambdaboot instead.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend values.
const (
	BackendMemory = "memory"
	BackendAWS    = "aws"
)

// Config holds all configuration values for local runs.
type Config struct {
	// Backend is "memory" (local directory + in-process store) or "aws".
	Backend            string `mapstructure:"backend" yaml:"backend"`
	Addr               string `mapstructure:"addr" yaml:"addr"`
	StylesDir          string `mapstructure:"styles_dir" yaml:"styles_dir"`
	StyleBucket        string `mapstructure:"style_bucket" yaml:"style_bucket,omitempty"`
	StylePrefix        string `mapstructure:"style_prefix" yaml:"style_prefix,omitempty"`
	StylePublicBaseURL string `mapstructure:"style_public_base_url" yaml:"style_public_base_url,omitempty"`
	UploadBucket       string `mapstructure:"upload_bucket" yaml:"upload_bucket,omitempty"`
	DynamoTable        string `mapstructure:"dynamo_table" yaml:"dynamo_table,omitempty"`
	EventBus           string `mapstructure:"event_bus" yaml:"event_bus,omitempty"`
	GenerationMode     string `mapstructure:"generation_mode" yaml:"generation_mode"`
	GeminiModel        string `mapstructure:"gemini_model" yaml:"gemini_model,omitempty"`
	// Owner is the identity local runs act as.
	Owner    string `mapstructure:"owner" yaml:"owner"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var keys = []string{
	"backend", "addr", "styles_dir", "style_bucket", "style_prefix",
	"style_public_base_url", "upload_bucket", "dynamo_table", "event_bus",
	"generation_mode", "gemini_model", "owner", "log_level",
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Backend:        BackendMemory,
		Addr:           ":8080",
		StylesDir:      "styles",
		StylePrefix:    "styles/",
		GenerationMode: "describe",
		Owner:          "local-user",
		LogLevel:       "info",
	}
}

// Load loads configuration with full precedence:
// flags (applied by callers) > ENV vars > project config > XDG global config > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("thumbwiz")

	def := Defaults()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("addr", def.Addr)
	v.SetDefault("styles_dir", def.StylesDir)
	v.SetDefault("style_prefix", def.StylePrefix)
	v.SetDefault("generation_mode", def.GenerationMode)
	v.SetDefault("owner", def.Owner)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("THUMBWIZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, "THUMBWIZ_"+strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k, err)
		}
	}

	if globalPath := GlobalPath(); fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}
	if projectPath := ProjectPath(); fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendAWS:
		if c.StyleBucket == "" {
			return fmt.Errorf("backend %q requires style_bucket", c.Backend)
		}
		if c.DynamoTable == "" {
			return fmt.Errorf("backend %q requires dynamo_table", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendMemory, BackendAWS)
	}
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns $XDG_CONFIG_HOME/thumbwiz/thumbwiz.yml, falling back to
// ~/.config/thumbwiz/thumbwiz.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "thumbwiz", "thumbwiz.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "thumbwiz", "thumbwiz.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "thumbwiz.yml"
}

// WriteGlobal writes cfg to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes cfg to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

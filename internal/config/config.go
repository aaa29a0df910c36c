// Package config handles configuration loading for orchid.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for orchid.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Templates TemplatesConfig `mapstructure:"templates"`
	TUI       TUIConfig       `mapstructure:"tui"`
	Debug     DebugConfig     `mapstructure:"debug"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

// AnthropicConfig holds Anthropic API settings for the claude worker.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	MaxTokens     int    `mapstructure:"max_tokens"`
	UseBedrock    bool   `mapstructure:"use_bedrock"`
	BedrockRegion string `mapstructure:"bedrock_region"`
}

// WorkerConfig selects and tunes the worker backend.
type WorkerConfig struct {
	// Kind is the worker backend: "claude" or "static".
	Kind string `mapstructure:"kind"`
	// Sequential disables concurrent dispatch within parallel steps.
	Sequential bool `mapstructure:"sequential"`
	// Timeout bounds a single worker call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlannerConfig holds decomposition and planning settings.
type PlannerConfig struct {
	// MaxDepth bounds decomposition depth; zero selects the default.
	MaxDepth int `mapstructure:"max_depth"`
}

// TemplatesConfig points at an optional domain template file.
type TemplatesConfig struct {
	// Path is a YAML file overriding the built-in domain templates.
	Path string `mapstructure:"path"`
	// Watch reloads the template file on change.
	Watch bool `mapstructure:"watch"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	// LogPath enables the file-backed debug log when non-empty.
	LogPath string `mapstructure:"log_path"`
}

// AuditConfig holds the audit trail settings.
type AuditConfig struct {
	// DBPath enables the SQLite audit trail when non-empty.
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and environment
// variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, ORCHID_*)
// 2. Project config (.orchid.yaml in current directory or a parent)
// 3. User config (~/.config/orchid/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	v.BindEnv("worker.kind", "ORCHID_WORKER")
	v.BindEnv("debug.log_path", "ORCHID_DEBUG_LOG")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.bedrock_region", cfg.Anthropic.BedrockRegion)
	v.Set("worker.kind", cfg.Worker.Kind)
	v.Set("worker.sequential", cfg.Worker.Sequential)
	v.Set("worker.timeout", cfg.Worker.Timeout.String())
	v.Set("planner.max_depth", cfg.Planner.MaxDepth)
	v.Set("templates.path", cfg.Templates.Path)
	v.Set("templates.watch", cfg.Templates.Watch)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())
	v.Set("debug.log_path", cfg.Debug.LogPath)
	v.Set("audit.db_path", cfg.Audit.DBPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Worker: WorkerConfig{
			Kind:    "claude",
			Timeout: 15 * time.Minute,
		},
		Planner: PlannerConfig{
			MaxDepth: 3,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.bedrock_region", "")

	v.SetDefault("worker.kind", "claude")
	v.SetDefault("worker.sequential", false)
	v.SetDefault("worker.timeout", "15m")

	v.SetDefault("planner.max_depth", 3)

	v.SetDefault("templates.path", "")
	v.SetDefault("templates.watch", false)

	v.SetDefault("tui.refresh_rate", "100ms")

	v.SetDefault("debug.log_path", "")
	v.SetDefault("audit.db_path", "")
}

// getUserConfigDir returns the XDG config directory for orchid.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "orchid")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "orchid")
	}
	return filepath.Join(home, ".config", "orchid")
}

// findProjectConfig searches for .orchid.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".orchid.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

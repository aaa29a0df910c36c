package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/orchid/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify orchid configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/orchid/config.yaml
Project-specific overrides can be placed in .orchid.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", config.MaskAPIKey(cfg.Anthropic.APIKey))
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.max_tokens: %d\n", cfg.Anthropic.MaxTokens)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("worker.kind: %s\n", cfg.Worker.Kind)
	fmt.Printf("worker.sequential: %t\n", cfg.Worker.Sequential)
	fmt.Printf("worker.timeout: %s\n", cfg.Worker.Timeout)
	fmt.Printf("planner.max_depth: %d\n", cfg.Planner.MaxDepth)
	fmt.Printf("templates.path: %s\n", cfg.Templates.Path)
	fmt.Printf("templates.watch: %t\n", cfg.Templates.Watch)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
	fmt.Printf("debug.log_path: %s\n", cfg.Debug.LogPath)
	fmt.Printf("audit.db_path: %s\n", cfg.Audit.DBPath)
}

func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s = %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.max_tokens":
		return strconv.Itoa(cfg.Anthropic.MaxTokens), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.bedrock_region":
		return cfg.Anthropic.BedrockRegion, nil
	case "worker.kind":
		return cfg.Worker.Kind, nil
	case "worker.sequential":
		return strconv.FormatBool(cfg.Worker.Sequential), nil
	case "worker.timeout":
		return cfg.Worker.Timeout.String(), nil
	case "planner.max_depth":
		return strconv.Itoa(cfg.Planner.MaxDepth), nil
	case "templates.path":
		return cfg.Templates.Path, nil
	case "templates.watch":
		return strconv.FormatBool(cfg.Templates.Watch), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	case "debug.log_path":
		return cfg.Debug.LogPath, nil
	case "audit.db_path":
		return cfg.Audit.DBPath, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max_tokens: %s", value)
		}
		cfg.Anthropic.MaxTokens = n
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid use_bedrock: %s", value)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.bedrock_region":
		cfg.Anthropic.BedrockRegion = value
	case "worker.kind":
		if value != "claude" && value != "static" {
			return fmt.Errorf("invalid worker kind: %s (want claude or static)", value)
		}
		cfg.Worker.Kind = value
	case "worker.sequential":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid sequential: %s", value)
		}
		cfg.Worker.Sequential = b
	case "worker.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout: %s", value)
		}
		cfg.Worker.Timeout = d
	case "planner.max_depth":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max_depth: %s", value)
		}
		cfg.Planner.MaxDepth = n
	case "templates.path":
		cfg.Templates.Path = value
	case "templates.watch":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid watch: %s", value)
		}
		cfg.Templates.Watch = b
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid refresh_rate: %s", value)
		}
		cfg.TUI.RefreshRate = d
	case "debug.log_path":
		cfg.Debug.LogPath = value
	case "audit.db_path":
		cfg.Audit.DBPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

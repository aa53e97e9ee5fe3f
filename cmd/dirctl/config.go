package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	directory "github.com/medmanager/go-directory"
)

var _ directory.Config = &appConfig{}

// appConfig is the CLI's directory.Config implementation, resolved from
// defaults, an optional YAML file, and command-line flags, in that order.
type appConfig struct {
	BaseURL     string
	Timeout     time.Duration
	SessionPath string
	LogLevel    string
	LogFormat   string
}

func (c *appConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c *appConfig) GetRequestTimeout() time.Duration {
	return c.Timeout
}

func (c *appConfig) GetSessionPath() string {
	return c.SessionPath
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dirctl-session.json"
	}
	return filepath.Join(home, ".config", "dirctl", "session.json")
}

// registerGlobalFlags adds the flags every subcommand shares.
func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML config file")
	flags.String("base-url", "", "directory service base URL")
	flags.Duration("timeout", 0, "request timeout")
	flags.String("session-file", "", "path of the persisted session")
	flags.String("log-level", "", "debug, info, warn, or error")
	flags.String("log-format", "", "json or console")
}

// loadConfig resolves the effective configuration for a parsed flag set.
func loadConfig(flags *pflag.FlagSet) (*appConfig, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"base-url":     "http://localhost:5001/api",
		"timeout":      "15s",
		"session-file": defaultSessionPath(),
		"log-level":    "info",
		"log-format":   "console",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	return &appConfig{
		BaseURL:     k.String("base-url"),
		Timeout:     k.Duration("timeout"),
		SessionPath: k.String("session-file"),
		LogLevel:    k.String("log-level"),
		LogFormat:   k.String("log-format"),
	}, nil
}

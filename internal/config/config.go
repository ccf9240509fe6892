// SPDX-License-Identifier: MPL-2.0

// Package config loads engine configuration from defaults, an optional
// config file, and AGENTTERM_* environment variables, in ascending
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config paths and env prefix.
	AppName = "agentterm"
	// ConfigFileName is the config file base name (without extension).
	ConfigFileName = "config"

	// DefaultCommandTimeout bounds foreground and background executions.
	DefaultCommandTimeout = 300 * time.Second
	// DefaultStreamInterval caps partial-output notification frequency.
	DefaultStreamInterval = 500 * time.Millisecond
	// DefaultKillGrace is how long a process gets between SIGTERM and SIGKILL.
	DefaultKillGrace = 2 * time.Second
	// DefaultContainer is the sandbox container name for docker mode.
	DefaultContainer = "agentterm_sandbox"
	// DefaultDockerWorkspace is the initial working directory inside the container.
	DefaultDockerWorkspace = "/workspace"
)

// Config holds every tunable of the execution engine.
type Config struct {
	// Sandbox selects the execution environment: "docker", "host", or "virtual".
	Sandbox string `mapstructure:"sandbox"`
	// Container is the docker container name commands are executed in.
	Container string `mapstructure:"container"`
	// Workspace is the initial working directory. Empty means the process
	// working directory for host/virtual sandboxes and /workspace for docker.
	Workspace string `mapstructure:"workspace"`
	// CommandTimeout is the default per-command wall-clock budget.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// StreamInterval is the minimum gap between partial-output events.
	StreamInterval time.Duration `mapstructure:"stream_interval"`
	// KillGrace is the SIGTERM-to-SIGKILL grace window.
	KillGrace time.Duration `mapstructure:"kill_grace"`
	// Shell overrides the host sandbox shell.
	Shell string `mapstructure:"shell"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sandbox:        "docker",
		Container:      DefaultContainer,
		Workspace:      "",
		CommandTimeout: DefaultCommandTimeout,
		StreamInterval: DefaultStreamInterval,
		KillGrace:      DefaultKillGrace,
	}
}

// ConfigDir returns the agentterm configuration directory using
// platform-specific conventions.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, AppName), nil
}

// Load reads configuration. A non-empty path selects an explicit config file
// and it is an error for it to be missing; otherwise the platform config
// directory is searched and absence is fine.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("sandbox", defaults.Sandbox)
	v.SetDefault("container", defaults.Container)
	v.SetDefault("workspace", defaults.Workspace)
	v.SetDefault("command_timeout", defaults.CommandTimeout)
	v.SetDefault("stream_interval", defaults.StreamInterval)
	v.SetDefault("kill_grace", defaults.KillGrace)
	v.SetDefault("shell", defaults.Shell)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		if dir, err := ConfigDir(); err == nil {
			v.SetConfigName(ConfigFileName)
			v.SetConfigType("yaml")
			v.AddConfigPath(dir)
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("failed to read config: %w", err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and fills derivable defaults.
func (c *Config) Validate() error {
	switch c.Sandbox {
	case "docker", "host", "virtual":
	default:
		return fmt.Errorf("invalid sandbox %q (must be docker, host, or virtual)", c.Sandbox)
	}
	if c.Sandbox == "docker" && c.Container == "" {
		return fmt.Errorf("docker sandbox requires a container name")
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.StreamInterval <= 0 {
		c.StreamInterval = DefaultStreamInterval
	}
	if c.KillGrace <= 0 {
		c.KillGrace = DefaultKillGrace
	}
	return nil
}

// EffectiveWorkspace resolves the initial working directory for the
// configured sandbox.
func (c *Config) EffectiveWorkspace() string {
	if c.Workspace != "" {
		return c.Workspace
	}
	if c.Sandbox == "docker" {
		return DefaultDockerWorkspace
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return string(filepath.Separator)
}

// Package config handles daemon configuration using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the daemon's top-level configuration.
type Config struct {
	Daemon  DaemonConfig  `mapstructure:"daemon"`
	Manager ManagerConfig `mapstructure:"manager"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DaemonConfig holds the composite device controller's runtime settings.
// Only DefaultProfilePath is read by the daemon; ControlBusName and
// CommandQueueSize are loaded but nothing applies them.
type DaemonConfig struct {
	DefaultProfilePath string `mapstructure:"default_profile_path"`
	ControlBusName     string `mapstructure:"control_bus_name"`
	CommandQueueSize   int    `mapstructure:"command_queue_size"`
}

// ManagerConfig holds settings for the device-discovery manager side of
// the daemon (spec.md §6). SourceHideEnabled is loaded but nothing in the
// daemon reads it.
type ManagerConfig struct {
	SourceHideEnabled bool `mapstructure:"source_hide_enabled"`
}

// LoggingConfig holds logging settings. ToFile turns on file logging in
// the run command; Level is loaded but not applied (the log level comes
// from --log-level or LOG_LEVEL).
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	ToFile bool   `mapstructure:"to_file"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Daemon: DaemonConfig{
		DefaultProfilePath: "/usr/share/inputplumber/profiles/default.yaml",
		ControlBusName:     "org.inputplumberd.CompositeDevice",
		CommandQueueSize:   256,
	},
	Manager: ManagerConfig{
		SourceHideEnabled: true,
	},
	Logging: LoggingConfig{
		Level:  "info",
		ToFile: false,
	},
}

var cfg *Config

// Init loads configuration from /etc/inputplumberd/config.yaml or
// $XDG_CONFIG_HOME/inputplumberd/config.yaml, falling back to defaults when
// neither exists.
func Init() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath("/etc/inputplumberd")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "inputplumberd"))
	} else if home := os.Getenv("HOME"); home != "" {
		viper.AddConfigPath(filepath.Join(home, ".config", "inputplumberd"))
	}
	viper.AddConfigPath(".")

	viper.SetDefault("daemon", DefaultConfig.Daemon)
	viper.SetDefault("manager", DefaultConfig.Manager)
	viper.SetDefault("logging", DefaultConfig.Logging)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// Get returns the current configuration, defaulting if Init was never
// called.
func Get() *Config {
	if cfg == nil {
		d := DefaultConfig
		return &d
	}
	return cfg
}

// GetConfigPath returns the path to the config file in use, or the path
// that would be used for the current user if none is loaded yet.
func GetConfigPath() string {
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}
	if os.Getuid() == 0 {
		return "/etc/inputplumberd/config.yaml"
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "inputplumberd", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/inputplumberd/config.yaml"
	}
	return filepath.Join(home, ".config", "inputplumberd", "config.yaml")
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads storehub server configuration.
//
// Sources, lowest precedence first: built-in defaults, the YAML config file,
// a .env file in the working directory, and STOREHUB_* environment variables
// (nested keys joined with "_", e.g. STOREHUB_SERVER_ADDR).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/suparena/storehub/datastore/persist"
	"github.com/suparena/storehub/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOREHUB"

// Config is the root configuration.
type Config struct {
	Logging     logger.Config  `mapstructure:"logging" yaml:"logging"`
	Server      ServerConfig   `mapstructure:"server" yaml:"server"`
	Metrics     MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Store       StoreConfig    `mapstructure:"store" yaml:"store"`
	Persistence persist.Config `mapstructure:"persistence" yaml:"persistence"`

	// Preload lists instances opened at startup instead of on first use.
	Preload []InstanceConfig `mapstructure:"preload" yaml:"preload,omitempty" validate:"dive"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"omitempty,startswith=/"`
}

// StoreConfig holds the settings handed to every initializer.
type StoreConfig struct {
	Autosave         bool          `mapstructure:"autosave" yaml:"autosave"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval" yaml:"autosave_interval" validate:"gte=0"`
	ThrottledSaves   bool          `mapstructure:"throttled_saves" yaml:"throttled_saves"`
	Env              string        `mapstructure:"env" yaml:"env,omitempty"`
}

// InstanceConfig names one store instance.
type InstanceConfig struct {
	Service string `mapstructure:"service" yaml:"service" validate:"required"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required"`
}

// Load reads configuration from configPath (or the default search path when
// empty), applies defaults and validates the result. A missing config file
// is not an error.
func Load(configPath string) (*Config, error) {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks struct constraints.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for key, value := range defaultKeys() {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("storehub")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "storehub")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "storehub")
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return time.Duration(0), nil
			}
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

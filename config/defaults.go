/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"strings"
	"time"

	"github.com/suparena/storehub/datastore/memdb"
	"github.com/suparena/storehub/datastore/persist"
)

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(cfg)
	applyServerDefaults(&cfg.Server)
	applyMetricsDefaults(&cfg.Metrics)
	applyStoreDefaults(&cfg.Store)
	applyPersistenceDefaults(&cfg.Persistence)
}

func applyLoggingDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Autosave && cfg.AutosaveInterval == 0 {
		cfg.AutosaveInterval = memdb.DefaultAutosaveInterval
	}
}

func applyPersistenceDefaults(cfg *persist.Config) {
	if cfg.Backend == "" {
		cfg.Backend = persist.BackendMemory
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
}

// GetDefaultConfig returns a fully defaulted configuration.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// defaultKeys registers the scalar keys that env variables may override.
func defaultKeys() map[string]any {
	return map[string]any{
		"logging.level":                 "",
		"logging.format":                "",
		"logging.output":                "",
		"server.addr":                   "",
		"server.read_timeout":           "",
		"server.write_timeout":          "",
		"server.shutdown_timeout":       "",
		"server.max_body_bytes":         0,
		"metrics.enabled":               false,
		"metrics.path":                  "",
		"store.autosave":                false,
		"store.autosave_interval":       "",
		"store.throttled_saves":         false,
		"store.env":                     "",
		"persistence.backend":           "",
		"persistence.file.dir":          "",
		"persistence.sqlite.path":       "",
		"persistence.badger.dir":        "",
		"persistence.dynamodb.table":    "",
		"persistence.dynamodb.region":   "",
		"persistence.dynamodb.endpoint": "",
	}
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storehub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Persistence.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Store.Autosave)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 5s
store:
  autosave: true
  throttled_saves: true
persistence:
  backend: sqlite
  sqlite:
    path: /tmp/storehub.db
preload:
  - service: users
    path: users.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Store.Autosave)
	assert.Equal(t, 5*time.Second, cfg.Store.AutosaveInterval, "autosave interval defaults when autosave is on")
	assert.Equal(t, "sqlite", cfg.Persistence.Backend)
	assert.Equal(t, "/tmp/storehub.db", cfg.Persistence.SQLite["path"])
	require.Len(t, cfg.Preload, 1)
	assert.Equal(t, InstanceConfig{Service: "users", Path: "users.db"}, cfg.Preload[0])
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: :7000\n")
	t.Setenv("STOREHUB_SERVER_ADDR", ":7500")
	t.Setenv("STOREHUB_STORE_AUTOSAVE_INTERVAL", "250ms")
	t.Setenv("STOREHUB_PERSISTENCE_BACKEND", "FILE")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7500", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.AutosaveInterval)
	assert.Equal(t, "file", cfg.Persistence.Backend)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "persistence:\n  backend: etcd\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"preload without path", "preload:\n  - service: users\n"},
		{"metrics path", "metrics:\n  path: metrics\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Addr = ":9999"
	cfg.Store.Env = "test"

	path := filepath.Join(t.TempDir(), "nested", "storehub.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Server.Addr)
	assert.Equal(t, "test", loaded.Store.Env)
	assert.Equal(t, cfg.Server.ShutdownTimeout, loaded.Server.ShutdownTimeout)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package file persists database snapshots as JSON files.
//
// Layout:
//
//	dir/
//	  users.db.json   # snapshot of storage path "users.db"
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

// Config configures the file adapter.
type Config struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Indent bool   `mapstructure:"indent" yaml:"indent"`
}

// Adapter stores one JSON file per storage path.
type Adapter struct {
	mu     sync.RWMutex
	dir    string
	indent bool
}

var _ datastore.Adapter = (*Adapter)(nil)

// New creates the directory if needed and returns an adapter rooted there.
func New(cfg Config) (*Adapter, error) {
	if cfg.Dir == "" {
		return nil, errors.NewValidationError("dir", "data directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Adapter{dir: cfg.Dir, indent: cfg.Indent}, nil
}

// Name implements datastore.Adapter.
func (a *Adapter) Name() string { return "file" }

// Close implements datastore.Adapter.
func (a *Adapter) Close() error { return nil }

// filePath maps a storage path to a file inside dir. Paths may not escape it.
func (a *Adapter) filePath(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" || strings.Contains(path, "\x00") {
		return "", errors.NewValidationError("path", fmt.Sprintf("invalid storage path %q", path))
	}
	return filepath.Join(a.dir, clean+".json"), nil
}

// Load implements datastore.Adapter.
func (a *Adapter) Load(_ context.Context, path string) (*storagemodels.Snapshot, error) {
	fp, err := a.filePath(path)
	if err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap storagemodels.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fp, err)
	}
	return &snap, nil
}

// Save implements datastore.Adapter. The file is replaced atomically.
func (a *Adapter) Save(_ context.Context, path string, snap *storagemodels.Snapshot) error {
	fp, err := a.filePath(path)
	if err != nil {
		return err
	}

	var b []byte
	if a.indent {
		b, err = json.MarshalIndent(snap, "", "  ")
	} else {
		b, err = json.Marshal(snap)
	}
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return err
	}
	tmp := fp + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fp)
}

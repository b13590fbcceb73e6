/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite persists database snapshots in a single SQLite database.
//
// Tables:
//
//	snapshots(path, engine_version, saved_at, data)  PRIMARY KEY (path)
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

// Config configures the SQLite adapter.
type Config struct {
	// Path of the database file. ":memory:" keeps it in memory.
	Path string `mapstructure:"path" yaml:"path"`
}

// Adapter stores one row per storage path.
type Adapter struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ datastore.Adapter = (*Adapter)(nil)

// New opens (and creates) the database file.
func New(cfg Config) (*Adapter, error) {
	if cfg.Path == "" {
		return nil, errors.NewValidationError("path", "sqlite database path is required")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		path TEXT PRIMARY KEY,
		engine_version TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &Adapter{db: db}, nil
}

// Name implements datastore.Adapter.
func (a *Adapter) Name() string { return "sqlite" }

// Close implements datastore.Adapter.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Load implements datastore.Adapter.
func (a *Adapter) Load(ctx context.Context, path string) (*storagemodels.Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var raw string
	err := a.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE path = ?", path).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap storagemodels.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", path, err)
	}
	return &snap, nil
}

// Save implements datastore.Adapter.
func (a *Adapter) Save(ctx context.Context, path string, snap *storagemodels.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO snapshots (path, engine_version, saved_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   engine_version = excluded.engine_version,
		   saved_at = excluded.saved_at,
		   data = excluded.data`,
		path, snap.EngineVersion, snap.SavedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"), string(b),
	)
	return err
}

// Paths lists every stored snapshot path.
func (a *Adapter) Paths(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rows, err := a.db.QueryContext(ctx, "SELECT path FROM snapshots ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

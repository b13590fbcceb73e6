/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package badger persists database snapshots in BadgerDB, one key per
// storage path.
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

const keyPrefix = "snapshot:"

// Config configures the BadgerDB adapter.
type Config struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
	// SyncWrites fsyncs every commit.
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes"`
}

// Adapter stores snapshots as JSON values under "snapshot:<path>".
type Adapter struct {
	db *badgerdb.DB
}

var _ datastore.Adapter = (*Adapter)(nil)

// New opens the BadgerDB database.
func New(cfg Config) (*Adapter, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.NewValidationError("dir", "badger directory is required")
	}

	opts := badgerdb.DefaultOptions(cfg.Dir).
		WithLogger(nil).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Adapter{db: db}, nil
}

func keySnapshot(path string) []byte { return []byte(keyPrefix + path) }

// Name implements datastore.Adapter.
func (a *Adapter) Name() string { return "badger" }

// Close implements datastore.Adapter.
func (a *Adapter) Close() error { return a.db.Close() }

// Load implements datastore.Adapter.
func (a *Adapter) Load(_ context.Context, path string) (*storagemodels.Snapshot, error) {
	var snap *storagemodels.Snapshot
	err := a.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keySnapshot(path))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snap = new(storagemodels.Snapshot)
			return json.Unmarshal(val, snap)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %q: %w", path, err)
	}
	return snap, nil
}

// Save implements datastore.Adapter.
func (a *Adapter) Save(_ context.Context, path string, snap *storagemodels.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keySnapshot(path), b)
	})
}

// Paths lists every stored snapshot path.
func (a *Adapter) Paths() ([]string, error) {
	var paths []string
	err := a.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			paths = append(paths, string(it.Item().Key()[len(keyPrefix):]))
		}
		return nil
	})
	return paths, err
}

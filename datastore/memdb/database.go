/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/storagemodels"
)

// EngineVersion is written into every snapshot.
const EngineVersion = "1.5"

// DefaultAutosaveInterval applies when autosave is on and no interval is set.
const DefaultAutosaveInterval = 5 * time.Second

// Options configures a Database.
type Options struct {
	// Adapter persists snapshots. Nil keeps the database memory-only.
	Adapter datastore.Adapter

	Autosave         bool
	AutosaveInterval time.Duration

	// ThrottledSaves serializes concurrent saves.
	ThrottledSaves bool

	// Env is an informational label echoed by Info.
	Env string

	// Clock stamps record meta. Defaults to time.Now.
	Clock func() time.Time
}

// Database is a set of named collections persisted as one snapshot.
type Database struct {
	path string
	opts Options

	mu          sync.RWMutex
	collections map[string]*Collection
	order       []string

	saveMu sync.Mutex

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

var _ datastore.Database = (*Database)(nil)

// New creates an empty database. It does not touch the adapter.
func New(path string, opts Options) *Database {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Autosave && opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	return &Database{
		path:        path,
		opts:        opts,
		collections: make(map[string]*Collection),
	}
}

// Open creates a database, restores its last snapshot and starts autosave.
func Open(ctx context.Context, path string, opts Options) (*Database, error) {
	db := New(path, opts)
	if err := db.Load(ctx); err != nil {
		return nil, err
	}
	db.startAutosave()
	return db, nil
}

// Path returns the storage path of the database.
func (db *Database) Path() string { return db.path }

// AddCollection returns the named collection, creating it when absent.
// Index and clone options are merged into an existing collection, so an
// initializer can call it unconditionally after Load.
func (db *Database) AddCollection(name string, opts CollectionOptions) (*Collection, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "collection name is required")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if c, ok := db.collections[name]; ok {
		if err := c.configure(opts); err != nil {
			return nil, err
		}
		return c, nil
	}

	c := newCollection(name, db.opts.Clock)
	if err := c.configure(opts); err != nil {
		return nil, err
	}
	db.collections[name] = c
	db.order = append(db.order, name)
	return c, nil
}

// GetCollection returns the concrete collection for name.
func (db *Database) GetCollection(name string) (*Collection, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	c, ok := db.collections[name]
	return c, ok
}

// RemoveCollection drops a collection and its data.
func (db *Database) RemoveCollection(name string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.collections[name]; !ok {
		return false
	}
	delete(db.collections, name)
	for i, n := range db.order {
		if n == name {
			db.order = append(db.order[:i:i], db.order[i+1:]...)
			break
		}
	}
	return true
}

// Collection implements datastore.Database.
func (db *Database) Collection(name string) (datastore.Collection, error) {
	c, ok := db.GetCollection(name)
	if !ok {
		return nil, errors.NewNotFoundError("collection", name)
	}
	return c, nil
}

// Collections implements datastore.Database.
func (db *Database) Collections() []datastore.Collection {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]datastore.Collection, 0, len(db.order))
	for _, name := range db.order {
		out = append(out, db.collections[name])
	}
	return out
}

// Info implements datastore.Database.
func (db *Database) Info() storagemodels.DatabaseInfo {
	persistence := "memory"
	if db.opts.Adapter != nil {
		persistence = db.opts.Adapter.Name()
	}
	return storagemodels.DatabaseInfo{
		Path:             db.path,
		EngineVersion:    EngineVersion,
		Env:              db.opts.Env,
		Persistence:      persistence,
		Autosave:         db.opts.Autosave,
		AutosaveInterval: db.opts.AutosaveInterval,
		ThrottledSaves:   db.opts.ThrottledSaves,
	}
}

// Dirty reports whether any collection has unsaved changes.
func (db *Database) Dirty() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, c := range db.collections {
		if c.Dirty() {
			return true
		}
	}
	return false
}

// Load replaces the in-memory state with the adapter's last snapshot.
// A missing snapshot leaves the database empty.
func (db *Database) Load(ctx context.Context) error {
	if db.opts.Adapter == nil {
		return nil
	}

	snap, err := db.opts.Adapter.Load(ctx, db.path)
	if err != nil {
		return fmt.Errorf("loading %q from %s: %w", db.path, db.opts.Adapter.Name(), err)
	}
	if snap == nil {
		logger.DebugCtx(ctx, "no snapshot found", logger.Path(db.path), logger.Backend(db.opts.Adapter.Name()))
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.collections = make(map[string]*Collection, len(snap.Collections))
	db.order = db.order[:0]
	for _, cs := range snap.Collections {
		c := newCollection(cs.Name, db.opts.Clock)
		if err := c.restore(cs); err != nil {
			return fmt.Errorf("restoring collection %q: %w", cs.Name, err)
		}
		db.collections[cs.Name] = c
		db.order = append(db.order, cs.Name)
	}

	logger.DebugCtx(ctx, "snapshot loaded",
		logger.Path(db.path), logger.Backend(db.opts.Adapter.Name()), logger.Count(len(snap.Collections)))
	return nil
}

// Save writes a snapshot of every collection to the adapter and clears the
// dirty flags of collections that did not change in the meantime.
func (db *Database) Save(ctx context.Context) error {
	if db.opts.Adapter == nil {
		return nil
	}
	if db.opts.ThrottledSaves {
		db.saveMu.Lock()
		defer db.saveMu.Unlock()
	}

	snap, versions := db.snapshot()
	if err := db.opts.Adapter.Save(ctx, db.path, snap); err != nil {
		return fmt.Errorf("saving %q to %s: %w", db.path, db.opts.Adapter.Name(), err)
	}

	db.mu.RLock()
	for name, v := range versions {
		if c, ok := db.collections[name]; ok {
			c.markClean(v)
		}
	}
	db.mu.RUnlock()
	return nil
}

func (db *Database) snapshot() (*storagemodels.Snapshot, map[string]uint64) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snap := &storagemodels.Snapshot{
		Path:          db.path,
		EngineVersion: EngineVersion,
		SavedAt:       db.opts.Clock().UTC(),
		Collections:   make([]storagemodels.CollectionSnapshot, 0, len(db.order)),
	}
	versions := make(map[string]uint64, len(db.order))
	for _, name := range db.order {
		cs, v := db.collections[name].snapshot()
		snap.Collections = append(snap.Collections, cs)
		versions[name] = v
	}
	return snap, versions
}

func (db *Database) startAutosave() {
	if !db.opts.Autosave || db.opts.Adapter == nil || db.stop != nil {
		return
	}
	db.stop = make(chan struct{})
	db.done = make(chan struct{})

	go func() {
		defer close(db.done)
		ticker := time.NewTicker(db.opts.AutosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-db.stop:
				return
			case <-ticker.C:
				if !db.Dirty() {
					continue
				}
				if err := db.Save(context.Background()); err != nil {
					logger.Warn("autosave failed", logger.Path(db.path), logger.Err(err))
				}
			}
		}
	}()
}

// Close stops autosave and writes a final snapshot when an adapter is
// configured. The adapter itself is owned by the caller and stays open.
// Only the first call has any effect.
func (db *Database) Close(ctx context.Context) error {
	var err error
	db.closeOnce.Do(func() {
		if db.stop != nil {
			close(db.stop)
			<-db.done
		}
		err = db.Save(ctx)
	})
	return err
}

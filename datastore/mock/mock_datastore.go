/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides configurable implementations of the datastore
// interfaces for testing
package mock

import (
	"context"
	"sync"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

// Database is a mock implementation of datastore.Database for testing
type Database struct {
	mu          sync.Mutex
	path        string
	collections map[string]*Collection
	order       []string
	closeErr    error
	closeFunc   func(ctx context.Context) error
	closeCalls  int
}

var _ datastore.Database = (*Database)(nil)

// New creates a new mock Database
func New(path string) *Database {
	return &Database{
		path:        path,
		collections: make(map[string]*Collection),
	}
}

// WithCollection adds a collection seeded with records. Records receive
// sequential identities starting at 1.
func (m *Database) WithCollection(name string, records ...storagemodels.Record) *Database {
	c := NewCollection(name)
	for _, r := range records {
		_, _ = c.Insert(r)
	}
	return m.AddCollection(c)
}

// AddCollection registers a prepared mock collection
func (m *Database) AddCollection(c *Collection) *Database {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[c.name]; !ok {
		m.order = append(m.order, c.name)
	}
	m.collections[c.name] = c
	return m
}

// WithCloseError makes Close return err
func (m *Database) WithCloseError(err error) *Database {
	m.closeErr = err
	return m
}

// WithCloseFunc runs f on every Close call
func (m *Database) WithCloseFunc(f func(ctx context.Context) error) *Database {
	m.closeFunc = f
	return m
}

// CloseCalls returns how many times Close was invoked
func (m *Database) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// GetCollection returns the concrete mock collection
func (m *Database) GetCollection(name string) *Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collections[name]
}

// Collection implements datastore.Database
func (m *Database) Collection(name string) (datastore.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, errors.NewNotFoundError("collection", name)
	}
	return c, nil
}

// Collections implements datastore.Database
func (m *Database) Collections() []datastore.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]datastore.Collection, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.collections[name])
	}
	return out
}

// Info implements datastore.Database
func (m *Database) Info() storagemodels.DatabaseInfo {
	return storagemodels.DatabaseInfo{Path: m.path, EngineVersion: "mock", Persistence: "memory"}
}

// Close implements datastore.Database
func (m *Database) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closeCalls++
	f := m.closeFunc
	m.mu.Unlock()

	if f != nil {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return m.closeErr
}

// Collection is a mock implementation of datastore.Collection for testing
type Collection struct {
	mu        sync.RWMutex
	name      string
	data      []storagemodels.Record
	nextID    int64
	views     map[string][]storagemodels.Record
	chainFunc func(spec storagemodels.TransformSpec, params map[string]any) ([]storagemodels.Record, error)
	insertErr error
	updateErr error
}

var _ datastore.Collection = (*Collection)(nil)

// NewCollection creates an empty mock collection
func NewCollection(name string) *Collection {
	return &Collection{name: name, views: make(map[string][]storagemodels.Record)}
}

// WithInsertError makes Insert operations return an error
func (c *Collection) WithInsertError(err error) *Collection {
	c.insertErr = err
	return c
}

// WithUpdateError makes Update operations return an error
func (c *Collection) WithUpdateError(err error) *Collection {
	c.updateErr = err
	return c
}

// WithChainFunc sets a custom transform function. Without one, Chain
// returns every record.
func (c *Collection) WithChainFunc(f func(spec storagemodels.TransformSpec, params map[string]any) ([]storagemodels.Record, error)) *Collection {
	c.chainFunc = f
	return c
}

// WithView registers a dynamic view with fixed data
func (c *Collection) WithView(name string, records ...storagemodels.Record) *Collection {
	c.views[name] = records
	return c
}

// Name implements datastore.Collection
func (c *Collection) Name() string { return c.name }

// Get implements datastore.Collection
func (c *Collection) Get(id int64) (storagemodels.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.data {
		if rid, _ := r.ID(); rid == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Find implements datastore.Collection
func (c *Collection) Find(filter storagemodels.Filter) []storagemodels.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]storagemodels.Record, 0)
	for _, r := range c.data {
		if filter.Match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Insert implements datastore.Collection
func (c *Collection) Insert(record storagemodels.Record) (storagemodels.Record, error) {
	if c.insertErr != nil {
		return nil, c.insertErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	doc := record.Clone()
	doc[storagemodels.FieldID] = c.nextID
	c.data = append(c.data, doc)
	return doc.Clone(), nil
}

// Update implements datastore.Collection
func (c *Collection) Update(record storagemodels.Record) (storagemodels.Record, error) {
	if c.updateErr != nil {
		return nil, c.updateErr
	}
	id, ok := record.ID()
	if !ok {
		return nil, errors.NewValidationError(storagemodels.FieldID, "update requires a record identity")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.data {
		if rid, _ := r.ID(); rid == id {
			c.data[i] = record.Clone()
			return record.Clone(), nil
		}
	}
	return nil, errors.NewRecordNotFoundError(c.name, id)
}

// Remove implements datastore.Collection
func (c *Collection) Remove(id int64) (storagemodels.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.data {
		if rid, _ := r.ID(); rid == id {
			c.data = append(c.data[:i:i], c.data[i+1:]...)
			return r, true
		}
	}
	return nil, false
}

// FindAndRemove implements datastore.Collection
func (c *Collection) FindAndRemove(filter storagemodels.Filter) []storagemodels.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := make([]storagemodels.Record, 0)
	kept := c.data[:0:0]
	for _, r := range c.data {
		if filter.Match(r) {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	c.data = kept
	return removed
}

// Chain implements datastore.Collection
func (c *Collection) Chain(spec storagemodels.TransformSpec, params map[string]any) (datastore.ResultSet, error) {
	if c.chainFunc != nil {
		out, err := c.chainFunc(spec, params)
		if err != nil {
			return nil, err
		}
		return ResultSet(out), nil
	}
	return ResultSet(c.Find(storagemodels.MatchAll())), nil
}

// DynamicView implements datastore.Collection
func (c *Collection) DynamicView(name string) (datastore.DynamicView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.views[name]
	if !ok {
		return nil, false
	}
	return &view{name: name, data: data, coll: c}, true
}

// Info implements datastore.Collection
func (c *Collection) Info() storagemodels.CollectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	views := make([]string, 0, len(c.views))
	for name := range c.views {
		views = append(views, name)
	}
	return storagemodels.CollectionInfo{Name: c.name, Count: len(c.data), DynamicViews: views}
}

// Count returns the number of stored records
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// ResultSet is a fixed datastore.ResultSet
type ResultSet []storagemodels.Record

// Data implements datastore.ResultSet
func (rs ResultSet) Data() []storagemodels.Record { return rs }

// Count implements datastore.ResultSet
func (rs ResultSet) Count() int { return len(rs) }

type view struct {
	name string
	data []storagemodels.Record
	coll *Collection
}

func (v *view) Name() string { return v.name }

func (v *view) Data() []storagemodels.Record {
	out := make([]storagemodels.Record, len(v.data))
	for i, r := range v.data {
		out[i] = r.Clone()
	}
	return out
}

func (v *view) Branch(transformName string, params map[string]any) (datastore.ResultSet, error) {
	if v.coll.chainFunc == nil {
		return ResultSet(v.Data()), nil
	}
	out, err := v.coll.chainFunc(storagemodels.TransformSpec{Name: transformName}, params)
	if err != nil {
		return nil, err
	}
	return ResultSet(out), nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

// Clone methods recorded for a collection.
const (
	CloneDeep    = "deep"
	CloneShallow = "shallow"
)

// CollectionOptions configures a collection on creation.
type CollectionOptions struct {
	// Unique lists fields whose non-null values must be distinct.
	Unique []string
	// Indices lists fields with a binary index.
	Indices []string
	// Clone copies records on the way in as well as on the way out.
	Clone       bool
	CloneMethod string
	DisableMeta bool
}

// Collection is an ordered set of records with integer identities.
type Collection struct {
	name  string
	clock func() time.Time

	mu      sync.RWMutex
	data    []storagemodels.Record
	idIndex map[int64]int
	maxID   int64

	unique        map[string]map[string]int64
	uniqueOrder   []string
	binaryIndices []string

	transforms map[string][]storagemodels.TransformStep
	views      map[string]*DynamicView
	viewOrder  []string

	cloneObjects bool
	cloneMethod  string
	disableMeta  bool

	dirty   bool
	version uint64
}

var _ datastore.Collection = (*Collection)(nil)

func newCollection(name string, clock func() time.Time) *Collection {
	return &Collection{
		name:        name,
		clock:       clock,
		idIndex:     make(map[int64]int),
		unique:      make(map[string]map[string]int64),
		transforms:  make(map[string][]storagemodels.TransformStep),
		views:       make(map[string]*DynamicView),
		cloneMethod: CloneDeep,
	}
}

func (c *Collection) configure(opts CollectionOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.Clone {
		c.cloneObjects = true
	}
	if opts.CloneMethod != "" {
		if opts.CloneMethod != CloneDeep && opts.CloneMethod != CloneShallow {
			return errors.NewValidationError("cloneMethod", fmt.Sprintf("unknown clone method %q", opts.CloneMethod))
		}
		c.cloneMethod = opts.CloneMethod
	}
	if opts.DisableMeta {
		c.disableMeta = true
	}
	for _, field := range opts.Indices {
		c.ensureIndex(field)
	}
	for _, field := range opts.Unique {
		if err := c.ensureUniqueIndex(field); err != nil {
			return err
		}
	}
	return nil
}

// Name implements datastore.Collection.
func (c *Collection) Name() string { return c.name }

// EnsureIndex records a binary index on field.
func (c *Collection) EnsureIndex(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureIndex(field)
}

func (c *Collection) ensureIndex(field string) {
	for _, f := range c.binaryIndices {
		if f == field {
			return
		}
	}
	c.binaryIndices = append(c.binaryIndices, field)
}

// EnsureUniqueIndex enforces distinct values of field. It fails when the
// stored records already violate the constraint.
func (c *Collection) EnsureUniqueIndex(field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureUniqueIndex(field)
}

func (c *Collection) ensureUniqueIndex(field string) error {
	if _, ok := c.unique[field]; ok {
		return nil
	}
	idx := make(map[string]int64, len(c.data))
	for _, r := range c.data {
		key, ok := uniqueKey(r, field)
		if !ok {
			continue
		}
		if _, dup := idx[key]; dup {
			return errors.NewAlreadyExistsError(c.name+"."+field, key)
		}
		id, _ := r.ID()
		idx[key] = id
	}
	c.unique[field] = idx
	c.uniqueOrder = append(c.uniqueOrder, field)
	return nil
}

// uniqueKey renders the indexed value of field. Null and missing values are
// not indexed.
func uniqueKey(r storagemodels.Record, field string) (string, bool) {
	v, ok := r.Lookup(field)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return "s:" + t, true
	case bool:
		return "b:" + strconv.FormatBool(t), true
	}
	if n, ok := storagemodels.ToInt64(v); ok {
		return "n:" + strconv.FormatInt(n, 10), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("v:%v", v), true
	}
	return "j:" + string(b), true
}

func (c *Collection) checkUnique(r storagemodels.Record, self int64) error {
	for _, field := range c.uniqueOrder {
		key, ok := uniqueKey(r, field)
		if !ok {
			continue
		}
		if owner, taken := c.unique[field][key]; taken && owner != self {
			return errors.NewAlreadyExistsError(c.name+"."+field, key)
		}
	}
	return nil
}

func (c *Collection) indexUnique(r storagemodels.Record, id int64) {
	for _, field := range c.uniqueOrder {
		if key, ok := uniqueKey(r, field); ok {
			c.unique[field][key] = id
		}
	}
}

func (c *Collection) unindexUnique(r storagemodels.Record) {
	for _, field := range c.uniqueOrder {
		if key, ok := uniqueKey(r, field); ok {
			delete(c.unique[field], key)
		}
	}
}

func (c *Collection) copyIn(r storagemodels.Record) storagemodels.Record {
	if c.cloneObjects && c.cloneMethod == CloneDeep {
		return r.Clone()
	}
	return r.Without()
}

func (c *Collection) touch() {
	c.dirty = true
	c.version++
}

// Get implements datastore.Collection.
func (c *Collection) Get(id int64) (storagemodels.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, ok := c.idIndex[id]
	if !ok {
		return nil, false
	}
	return c.data[pos].Clone(), true
}

// Find implements datastore.Collection. Results keep insertion order.
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

// FindOne returns the first record matching filter.
func (c *Collection) FindOne(filter storagemodels.Filter) (storagemodels.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.data {
		if filter.Match(r) {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Count returns the number of stored records.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Insert implements datastore.Collection. A record that already carries a
// non-zero $loki is rejected; updates go through Update.
func (c *Collection) Insert(record storagemodels.Record) (storagemodels.Record, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "record is required")
	}
	if id, ok := record.ID(); ok && id != 0 {
		return nil, errors.NewValidationError(storagemodels.FieldID, "record already has an identity, use update")
	}

	doc := c.copyIn(record)
	delete(doc, storagemodels.FieldID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkUnique(doc, 0); err != nil {
		return nil, err
	}

	c.maxID++
	id := c.maxID
	doc[storagemodels.FieldID] = id
	if !c.disableMeta {
		doc[storagemodels.FieldMeta] = map[string]any{
			"revision": int64(0),
			"created":  c.clock().UnixMilli(),
			"version":  int64(0),
		}
	}

	c.idIndex[id] = len(c.data)
	c.data = append(c.data, doc)
	c.indexUnique(doc, id)
	c.touch()
	return doc.Clone(), nil
}

// Update implements datastore.Collection. The stored record is replaced by
// record; meta is carried over with a bumped revision.
func (c *Collection) Update(record storagemodels.Record) (storagemodels.Record, error) {
	id, ok := record.ID()
	if !ok {
		return nil, errors.NewValidationError(storagemodels.FieldID, "update requires a record identity")
	}

	doc := c.copyIn(record)

	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.idIndex[id]
	if !ok {
		return nil, errors.NewRecordNotFoundError(c.name, id)
	}
	old := c.data[pos]

	if err := c.checkUnique(doc, id); err != nil {
		return nil, err
	}

	doc[storagemodels.FieldID] = id
	if c.disableMeta {
		delete(doc, storagemodels.FieldMeta)
	} else {
		doc[storagemodels.FieldMeta] = nextMeta(old, c.clock())
	}

	c.unindexUnique(old)
	c.data[pos] = doc
	c.indexUnique(doc, id)
	c.touch()
	return doc.Clone(), nil
}

func nextMeta(old storagemodels.Record, now time.Time) map[string]any {
	meta := map[string]any{
		"revision": int64(0),
		"created":  now.UnixMilli(),
		"version":  int64(0),
	}
	if prev, ok := old[storagemodels.FieldMeta].(map[string]any); ok {
		for k, v := range prev {
			meta[k] = v
		}
	}
	rev, _ := storagemodels.ToInt64(meta["revision"])
	meta["revision"] = rev + 1
	meta["updated"] = now.UnixMilli()
	return meta
}

// Remove implements datastore.Collection.
func (c *Collection) Remove(id int64) (storagemodels.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.idIndex[id]
	if !ok {
		return nil, false
	}
	removed := c.data[pos]
	c.data = append(c.data[:pos:pos], c.data[pos+1:]...)
	c.unindexUnique(removed)
	c.reindex()
	c.touch()
	return removed.Clone(), true
}

// FindAndRemove implements datastore.Collection.
func (c *Collection) FindAndRemove(filter storagemodels.Filter) []storagemodels.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := make([]storagemodels.Record, 0)
	kept := make([]storagemodels.Record, 0, len(c.data))
	for _, r := range c.data {
		if filter.Match(r) {
			c.unindexUnique(r)
			removed = append(removed, r.Clone())
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) == 0 {
		return removed
	}
	c.data = kept
	c.reindex()
	c.touch()
	return removed
}

func (c *Collection) reindex() {
	c.idIndex = make(map[int64]int, len(c.data))
	for i, r := range c.data {
		id, _ := r.ID()
		c.idIndex[id] = i
	}
}

// AddTransform registers a named transform. Names are unique per collection.
func (c *Collection) AddTransform(name string, steps []storagemodels.TransformStep) error {
	if err := storagemodels.ValidateSteps(steps); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.transforms[name]; ok {
		return errors.NewAlreadyExistsError("transform", name)
	}
	c.transforms[name] = steps
	c.touch()
	return nil
}

// SetTransform registers or replaces a named transform.
func (c *Collection) SetTransform(name string, steps []storagemodels.TransformStep) error {
	if err := storagemodels.ValidateSteps(steps); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transforms[name] = steps
	c.touch()
	return nil
}

// RemoveTransform drops a named transform.
func (c *Collection) RemoveTransform(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.transforms[name]; ok {
		delete(c.transforms, name)
		c.touch()
	}
}

func (c *Collection) transform(name string) ([]storagemodels.TransformStep, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	steps, ok := c.transforms[name]
	if !ok {
		return nil, errors.NewNotFoundError("transform", name)
	}
	return steps, nil
}

// Chain implements datastore.Collection.
func (c *Collection) Chain(spec storagemodels.TransformSpec, params map[string]any) (datastore.ResultSet, error) {
	steps := spec.Steps
	if spec.IsNamed() {
		var err error
		if steps, err = c.transform(spec.Name); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	records := make([]storagemodels.Record, len(c.data))
	for i, r := range c.data {
		records[i] = r.Clone()
	}
	c.mu.RUnlock()

	out, err := runSteps(records, steps, params)
	if err != nil {
		return nil, err
	}
	return &ResultSet{collection: c.name, data: out}, nil
}

// AddDynamicView creates, or replaces, a named dynamic view.
func (c *Collection) AddDynamicView(name string) *DynamicView {
	v := &DynamicView{name: name, coll: c}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.views[name]; !ok {
		c.viewOrder = append(c.viewOrder, name)
	}
	c.views[name] = v
	return v
}

// GetDynamicView returns the concrete view for name.
func (c *Collection) GetDynamicView(name string) (*DynamicView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[name]
	return v, ok
}

// DynamicView implements datastore.Collection.
func (c *Collection) DynamicView(name string) (datastore.DynamicView, bool) {
	v, ok := c.GetDynamicView(name)
	if !ok {
		return nil, false
	}
	return v, true
}

// Dirty reports whether the collection changed since the last save.
func (c *Collection) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

func (c *Collection) markClean(version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version == version {
		c.dirty = false
	}
}

// Info implements datastore.Collection.
func (c *Collection) Info() storagemodels.CollectionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	transforms := make([]string, 0, len(c.transforms))
	for name := range c.transforms {
		transforms = append(transforms, name)
	}
	sort.Strings(transforms)

	return storagemodels.CollectionInfo{
		Name:          c.name,
		Count:         len(c.data),
		Dirty:         c.dirty,
		CloneObjects:  c.cloneObjects,
		CloneMethod:   c.cloneMethod,
		BinaryIndices: append([]string{}, c.binaryIndices...),
		UniqueIndices: append([]string{}, c.uniqueOrder...),
		Transforms:    transforms,
		DynamicViews:  append([]string{}, c.viewOrder...),
	}
}

func (c *Collection) snapshot() (storagemodels.CollectionSnapshot, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data := make([]storagemodels.Record, len(c.data))
	for i, r := range c.data {
		data[i] = r.Clone()
	}
	transforms := make(map[string][]storagemodels.TransformStep, len(c.transforms))
	for name, steps := range c.transforms {
		transforms[name] = steps
	}
	return storagemodels.CollectionSnapshot{
		Name:          c.name,
		Data:          data,
		MaxID:         c.maxID,
		BinaryIndices: append([]string{}, c.binaryIndices...),
		UniqueIndices: append([]string{}, c.uniqueOrder...),
		Transforms:    transforms,
		CloneObjects:  c.cloneObjects,
		CloneMethod:   c.cloneMethod,
		DisableMeta:   c.disableMeta,
	}, c.version
}

func (c *Collection) restore(cs storagemodels.CollectionSnapshot) error {
	c.mu.Lock()
	c.data = make([]storagemodels.Record, 0, len(cs.Data))
	c.maxID = cs.MaxID
	for _, r := range cs.Data {
		id, ok := r.ID()
		if !ok {
			c.mu.Unlock()
			return errors.NewValidationError(storagemodels.FieldID, "snapshot record without identity")
		}
		r[storagemodels.FieldID] = id
		if id > c.maxID {
			c.maxID = id
		}
		c.data = append(c.data, r)
	}
	c.reindex()
	for name, steps := range cs.Transforms {
		c.transforms[name] = steps
	}
	c.mu.Unlock()

	return c.configure(CollectionOptions{
		Unique:      cs.UniqueIndices,
		Indices:     cs.BinaryIndices,
		Clone:       cs.CloneObjects,
		CloneMethod: cs.CloneMethod,
		DisableMeta: cs.DisableMeta,
	})
}

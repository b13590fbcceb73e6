/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/storehub/storagemodels"
)

// Database is one store instance produced by an initializer.
type Database interface {
	// Collection returns the named collection or an errors.NotFoundError.
	Collection(name string) (Collection, error)

	// Collections returns every collection in creation order.
	Collections() []Collection

	Info() storagemodels.DatabaseInfo

	// Close stops background work and flushes to the configured adapter.
	// Calling Close more than once is a no-op.
	Close(ctx context.Context) error
}

// Collection is a named set of records inside a Database. Every record
// returned is a copy owned by the caller.
type Collection interface {
	Name() string

	Get(id int64) (storagemodels.Record, bool)

	Find(filter storagemodels.Filter) []storagemodels.Record

	Insert(record storagemodels.Record) (storagemodels.Record, error)

	// Update replaces the stored record carrying the same $loki.
	Update(record storagemodels.Record) (storagemodels.Record, error)

	Remove(id int64) (storagemodels.Record, bool)

	FindAndRemove(filter storagemodels.Filter) []storagemodels.Record

	// Chain runs a named or literal transform and returns its result set.
	Chain(spec storagemodels.TransformSpec, params map[string]any) (ResultSet, error)

	DynamicView(name string) (DynamicView, bool)

	Info() storagemodels.CollectionInfo
}

// ResultSet is the unmaterialized result of a transform chain.
type ResultSet interface {
	Data() []storagemodels.Record
	Count() int
}

// DynamicView is a live, named query over a collection.
type DynamicView interface {
	Name() string
	Data() []storagemodels.Record

	// Branch runs a named transform of the owning collection over the view's data.
	Branch(transformName string, params map[string]any) (ResultSet, error)
}

// Adapter persists database snapshots. Load returns (nil, nil) when nothing
// has been saved under path yet.
type Adapter interface {
	Name() string
	Load(ctx context.Context, path string) (*storagemodels.Snapshot, error)
	Save(ctx context.Context, path string, snapshot *storagemodels.Snapshot) error
	Close() error
}

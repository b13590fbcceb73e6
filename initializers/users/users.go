/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package users is an example initializer. It builds a memdb database with
// a "users" collection seeded with seven records, named transforms and a
// "Youngsters" dynamic view.
//
// Importing the package registers it in the default catalog:
//
//	import _ "github.com/suparena/storehub/initializers/users"
package users

import (
	"context"
	"fmt"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/datastore/memdb"
	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/registry"
	"github.com/suparena/storehub/storagemodels"
)

const (
	// Identity is the initializer identity ("serviceName").
	Identity = "users"

	// Collection is the name of the seeded collection.
	Collection = "users"

	// ViewYoungsters holds users younger than 100, oldest first.
	ViewYoungsters = "Youngsters"
)

// Named transforms registered on the users collection.
const (
	TransformOrderedByAge = "OrderedByAge"
	TransformYoungerThan  = "YoungerThan" // param: maxAge
	TransformTop          = "Top"         // param: count
)

// Seed returns the initial records of a fresh users collection.
func Seed() []storagemodels.Record {
	return []storagemodels.Record{
		{"name": "odin", "age": 999},
		{"name": "frigga", "age": 980},
		{"name": "thor", "age": 35},
		{"name": "loki", "age": 30},
		{"name": "sif", "age": 25},
		{"name": "balder", "age": 24},
		{"name": "heimdall", "age": 870},
	}
}

func transforms() map[string][]storagemodels.TransformStep {
	return map[string][]storagemodels.TransformStep{
		TransformOrderedByAge: {
			{Type: storagemodels.StepSimpleSort, Property: "age"},
		},
		TransformYoungerThan: {
			{Type: storagemodels.StepFind, Value: map[string]any{"age": map[string]any{"$lt": storagemodels.ParamPrefix + "maxAge"}}},
			{Type: storagemodels.StepSimpleSort, Property: "age"},
		},
		TransformTop: {
			{Type: storagemodels.StepSimpleSort, Property: "age", Desc: true},
			{Type: storagemodels.StepLimit, Value: storagemodels.ParamPrefix + "count"},
		},
	}
}

func init() {
	registry.RegisterInitializer(Identity, Initialize,
		registry.WithDoc("users collection seeded with seven records, Youngsters view"))
}

// Register adds the initializer to a catalog other than the default one.
func Register(c *registry.Catalog) error {
	return c.Register(Identity, Initialize,
		registry.WithDoc("users collection seeded with seven records, Youngsters view"))
}

// Initialize opens the database at spec.Path, seeds the users collection the
// first time and re-registers transforms and views, which are not persisted.
func Initialize(ctx context.Context, spec registry.Spec) (datastore.Database, error) {
	db, err := memdb.Open(ctx, spec.Path, memdb.Options{
		Adapter:          spec.Adapter,
		Autosave:         spec.Autosave,
		AutosaveInterval: spec.AutosaveInterval,
		ThrottledSaves:   spec.ThrottledSaves,
		Env:              spec.Env,
	})
	if err != nil {
		return nil, err
	}

	if err := setup(db); err != nil {
		// stops the autosave ticker started by Open
		_ = db.Close(ctx)
		return nil, err
	}

	logger.InfoCtx(ctx, "Users database ready",
		logger.Path(spec.Path), logger.Collection(Collection))
	return db, nil
}

func setup(db *memdb.Database) error {
	_, existed := db.GetCollection(Collection)

	users, err := db.AddCollection(Collection, memdb.CollectionOptions{
		Unique:  []string{"name"},
		Indices: []string{"age"},
	})
	if err != nil {
		return err
	}

	if !existed {
		for _, r := range Seed() {
			if _, err := users.Insert(r); err != nil {
				return fmt.Errorf("seeding %s: %w", Collection, err)
			}
		}
	}

	for name, steps := range transforms() {
		if err := users.SetTransform(name, steps); err != nil {
			return err
		}
	}

	youngsters, err := storagemodels.Where("age", storagemodels.OpLt, 100)
	if err != nil {
		return err
	}
	users.AddDynamicView(ViewYoungsters).
		ApplyFind(youngsters).
		ApplySimpleSort("age", true)
	return nil
}

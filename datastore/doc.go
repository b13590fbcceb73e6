/*
Package datastore defines the collaborator interfaces between the storehub
dispatcher and a document store engine.

	type Database interface {
	    Collection(name string) (Collection, error)
	    Collections() []Collection
	    Info() storagemodels.DatabaseInfo
	    Close(ctx context.Context) error
	}

A Collection answers point lookups, predicate queries, inserts, updates,
removals, transform chains and dynamic views. A ResultSet is the handle
returned by a non-materialized transform; a DynamicView is a named live query.

An Adapter saves and restores whole-database snapshots.

Implementations:
  - memdb: the in-memory document store engine
  - mock: configurable Database/Collection doubles for testing
  - file, sqlite, badger, ddb: persistence adapters, selected by persist.New
*/
package datastore

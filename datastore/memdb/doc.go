/*
Package memdb is the in-memory document store engine behind storehub
instances.

A Database holds named collections of schemaless records. Each record is
assigned an integer identity ("$loki") from a per-collection counter and
carries a "meta" block (revision, created, updated, version) unless the
collection disables it.

	db := memdb.New("users.db", memdb.Options{})
	users, _ := db.AddCollection("users", memdb.CollectionOptions{Unique: []string{"name"}})
	rec, err := users.Insert(storagemodels.Record{"name": "odin", "age": 999})

Collections support named transforms (pure-data step chains) and dynamic
views whose results are cached until the collection changes:

	users.AddTransform("OrderedByAge", []storagemodels.TransformStep{
	    {Type: storagemodels.StepSimpleSort, Property: "age"},
	})
	view := users.AddDynamicView("Youngsters")
	view.ApplyFind(young).ApplySimpleSort("age", true)

Persistence is delegated to a datastore.Adapter. Open loads the last snapshot
and, when autosave is enabled, flushes dirty state on a ticker; Close stops the
ticker and writes a final snapshot.
*/
package memdb

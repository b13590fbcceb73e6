/*
Package storagemodels defines the data structures used throughout storehub.

Key Types:

Record:
A schemaless document. The store owns two fields: "$loki" (integer identity)
and "meta" (bookkeeping).

	rec := storagemodels.Record{"name": "odin", "age": 999}
	id, ok := rec.ID()

Filter:
A parsed predicate. Filters are a closed variant (all, field, and, or) with a
small operator set: $eq $ne $gt $gte $lt $lte $in $nin $contains $regex $exists.
Both native maps and JSON text are accepted:

	f, err := storagemodels.ParseFilter(`{"age": {"$lt": 100}}`)
	f, err := storagemodels.ParseFilter(map[string]any{"name": "odin"})

TransformSpec:
A named transform or a literal chain of pure-data steps (find, simplesort,
compoundsort, limit, offset). String values of the form "[%lktxp]name" are
replaced from caller parameters before execution:

	spec, err := storagemodels.ParseTransform(`[{"type":"find","value":{"age":{"$lt":"[%lktxp]max"}}}]`)

Snapshot:
The persisted form of a database, written and read by persistence adapters.

ProcessStats / InstanceStats:
Introspection snapshots produced by the hub.
*/
package storagemodels

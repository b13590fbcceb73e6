/*
Package storehub hosts in-memory document store instances behind a uniform,
instrumented request API.

Each instance is identified by a Key: the identity of the initializer that
builds it and the storage path it persists to. The Hub constructs an
instance the first time a Key is used, caches it, and routes every later
operation to it.

Operations:
  - Get, Find, Insert, Update, Remove on a named collection
  - Transform runs a named or literal chain of pure-data steps
  - DynamicView reads a live, materialized view
  - ProcessStats and InstanceStats return introspection snapshots
  - Shutdown closes every instance once

Structured arguments (records, predicates, transforms) are accepted either as
native values or as JSON text, and are parsed before the instance is touched.

Basic Usage:

	// Initializers register themselves from init()
	import _ "github.com/suparena/storehub/initializers/users"

	hub := storehub.New(storehub.WithAdapter(adapter))
	key := storehub.Key{Service: "users", Path: "users.db"}

	young, err := hub.Find(ctx, key, "users", `{"age": {"$lt": 100}}`)
	rec, err := hub.Insert(ctx, key, "users", map[string]any{"name": "tyr", "age": 40})

	reports, err := hub.Shutdown(ctx)

Statistics:
Every operation that reaches an open instance is timed. The elapsed time is
added to the global bucket and to the instance's bucket under one lock, so
GlobalStats().TotalRequests always equals the sum over all instances.
*/
package storehub

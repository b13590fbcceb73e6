/*
Package ddb provides a DynamoDB persistence adapter for storehub databases.

Each storage path is one partition of a single table:

	PK = SNAPSHOT#<path>   SK = MANIFEST                 collection order, engine version, save time
	PK = SNAPSHOT#<path>   SK = COLLECTION#<collection>  one collection snapshot as JSON

Key attributes are expanded from templates registered with
registry.RegisterIndexMap, and items are decoded through registry.RegisterType
by their EntityType attribute:

	adapter, err := ddb.New(ctx, ddb.Config{Region: "us-east-1", Table: "storehub"})
	db, err := memdb.Open(ctx, "users.db", memdb.Options{Adapter: adapter})

Loads page through the partition with Query, retrying throttled requests.
Set Endpoint to use DynamoDB Local.
*/
package ddb

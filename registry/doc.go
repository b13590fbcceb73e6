/*
Package registry holds the process-wide registries of storehub.

Initializer Catalog:
Maps an initializer identity (the "serviceName" callers address) to the
factory that builds and seeds a store instance:

	func init() {
	    registry.RegisterInitializer("users", users.Initialize,
	        registry.WithDoc("seeded users collection"))
	}

	init, err := registry.Default().Lookup("users") // errors.ErrInitializerNotFound on a miss

Hubs may be given their own Catalog; the default one is filled from init()
blocks of initializer packages.

Index Map Registry:
Associates Go item types with DynamoDB key templates used by the ddb
persistence adapter:

	registry.RegisterIndexMap[manifestItem](map[string]string{
	    "PK": "SNAPSHOT#{Path}",
	    "SK": "MANIFEST",
	})

Type Registry:
Maps the EntityType attribute of a stored DynamoDB item to its unmarshal
function so mixed item kinds can be decoded from one query.

The registries are thread-safe and should be populated during initialization.
*/
package registry

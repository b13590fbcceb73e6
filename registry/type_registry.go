/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UnmarshalFunc defines a function that takes a raw DynamoDB item and returns the unmarshaled object.
type UnmarshalFunc func(item map[string]types.AttributeValue) (interface{}, error)

// typeRegistry maps an item's EntityType attribute to its unmarshal function.
var (
	typeRegistry   = make(map[string]UnmarshalFunc)
	typeRegistryMu sync.RWMutex
)

// RegisterType registers an unmarshal function for a given entity type.
// If a type is already registered under that name, it panics to prevent accidental overrides.
func RegisterType(entityType string, fn UnmarshalFunc) {
	typeRegistryMu.Lock()
	defer typeRegistryMu.Unlock()
	if _, exists := typeRegistry[entityType]; exists {
		panic(fmt.Sprintf("type registry: entity type %q already registered", entityType))
	}
	typeRegistry[entityType] = fn
}

// GetUnmarshalFunc returns the registered unmarshal function for the given entity type.
func GetUnmarshalFunc(entityType string) (UnmarshalFunc, error) {
	typeRegistryMu.RLock()
	defer typeRegistryMu.RUnlock()
	fn, ok := typeRegistry[entityType]
	if !ok {
		return nil, fmt.Errorf("type registry: no type registered for %q", entityType)
	}
	return fn, nil
}

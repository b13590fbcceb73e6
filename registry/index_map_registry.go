/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// indexMapRegistry associates Go item types with their DynamoDB key templates.
var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a Go type T with a key template map (PK, SK, ...).
// Templates reference item fields as macros, e.g. "SNAPSHOT#{Path}".
func RegisterIndexMap[T any](idxMap map[string]string) {
	var zero T
	t := reflect.TypeOf(zero)

	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[t] = cp
}

// GetIndexMap retrieves the key templates for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[t]
	return m, ok
}

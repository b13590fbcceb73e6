/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
)

// Spec is handed to an initializer when a store instance is first needed.
type Spec struct {
	// Service is the identity the initializer was registered under.
	Service string
	// Path is the storage location the instance persists to.
	Path string

	// Adapter persists snapshots. Nil means memory-only.
	Adapter datastore.Adapter

	Autosave         bool
	AutosaveInterval time.Duration
	ThrottledSaves   bool
	Env              string
}

// Initializer builds and seeds a store instance for spec.Path.
// Implementations must be safe to call concurrently for different paths.
type Initializer func(ctx context.Context, spec Spec) (datastore.Database, error)

// Entry is a registered initializer with optional documentation.
type Entry struct {
	Identity    string
	Initializer Initializer
	Doc         string
}

// EntryOption decorates an Entry on registration.
type EntryOption func(*Entry)

// WithDoc attaches a human-readable description.
func WithDoc(doc string) EntryOption { return func(e *Entry) { e.Doc = doc } }

// Catalog maps initializer identities to initializers.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Register adds an initializer. Identities are unique.
func (c *Catalog) Register(identity string, fn Initializer, opts ...EntryOption) error {
	if identity == "" {
		return errors.NewValidationError("identity", "initializer identity is required")
	}
	if fn == nil {
		return errors.NewValidationError("initializer", fmt.Sprintf("nil initializer for %q", identity))
	}

	e := Entry{Identity: identity, Initializer: fn}
	for _, opt := range opts {
		opt(&e)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[identity]; exists {
		return errors.NewAlreadyExistsError("initializer", identity)
	}
	c.entries[identity] = e
	return nil
}

// MustRegister is Register that panics on error, for init() blocks.
func (c *Catalog) MustRegister(identity string, fn Initializer, opts ...EntryOption) {
	if err := c.Register(identity, fn, opts...); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}

// Lookup returns the initializer registered under identity.
func (c *Catalog) Lookup(identity string) (Initializer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	if !ok {
		return nil, errors.NewInitializerNotFoundError(identity)
	}
	return e.Initializer, nil
}

// Identities returns every registered identity in sorted order.
func (c *Catalog) Identities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for id := range c.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Entries returns a sorted snapshot of the registered entries.
func (c *Catalog) Entries() []Entry {
	ids := c.Identities()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog filled by RegisterInitializer.
func Default() *Catalog { return defaultCatalog }

// RegisterInitializer adds fn to the default catalog. It panics on a
// duplicate identity to prevent accidental overrides.
func RegisterInitializer(identity string, fn Initializer, opts ...EntryOption) {
	defaultCatalog.MustRegister(identity, fn, opts...)
}

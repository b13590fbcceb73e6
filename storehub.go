/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/internal/logger"
	"github.com/suparena/storehub/metrics"
	"github.com/suparena/storehub/registry"
)

// Key identifies one store instance: the initializer that builds it and the
// storage path it persists to.
type Key struct {
	Service string `json:"serviceName"`
	Path    string `json:"path"`
}

func (k Key) String() string { return k.Service + ":" + k.Path }

// flightKey is unambiguous even when Service contains ':'.
func (k Key) flightKey() string { return k.Service + "\x00" + k.Path }

// StoreSettings are handed to every initializer through registry.Spec.
type StoreSettings struct {
	Autosave         bool
	AutosaveInterval time.Duration
	ThrottledSaves   bool
	Env              string
}

// Hub owns the store instances of one process. It constructs each instance
// on first use, routes operations to it and keeps timing statistics.
type Hub struct {
	catalog  *registry.Catalog
	adapter  datastore.Adapter
	settings StoreSettings
	metrics  metrics.Recorder
	clock    func() time.Time
	started  time.Time

	mu      sync.RWMutex
	entries map[Key]*entry
	order   []*entry

	group singleflight.Group

	statsMu sync.Mutex
	global  *statsBucket
}

// Option configures a Hub.
type Option func(*Hub)

// WithCatalog sets the initializer catalog. Defaults to registry.Default().
func WithCatalog(c *registry.Catalog) Option {
	return func(h *Hub) { h.catalog = c }
}

// WithAdapter sets the persistence adapter handed to initializers. The Hub
// does not close it.
func WithAdapter(a datastore.Adapter) Option {
	return func(h *Hub) { h.adapter = a }
}

// WithStoreSettings sets the autosave and env settings handed to initializers.
func WithStoreSettings(s StoreSettings) Option {
	return func(h *Hub) { h.settings = s }
}

// WithMetrics sets the metrics recorder. Nil disables metrics.
func WithMetrics(r metrics.Recorder) Option {
	return func(h *Hub) { h.metrics = r }
}

// WithClock overrides time.Now for creation timestamps.
func WithClock(clock func() time.Time) Option {
	return func(h *Hub) { h.clock = clock }
}

// New creates an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		catalog: registry.Default(),
		clock:   time.Now,
		entries: make(map[Key]*entry),
		global:  newStatsBucket(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.clock()
	return h
}

// Catalog returns the initializer catalog the Hub resolves identities with.
func (h *Hub) Catalog() *registry.Catalog { return h.catalog }

// Resolve returns the store instance for key, constructing it on first use.
// Concurrent first uses of one key share a single construction. A failed
// construction registers nothing, so a later call retries. The construction
// keeps the values of the first caller's ctx but not its cancellation, so one
// caller going away does not fail the others waiting on the same key.
func (h *Hub) Resolve(ctx context.Context, key Key) (datastore.Database, error) {
	e, err := h.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if e.isClosed() {
		return nil, errors.NewInstanceClosedError(key.Service, key.Path)
	}
	return e.db, nil
}

func (h *Hub) lookup(key Key) (*entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[key]
	return e, ok
}

func (h *Hub) resolve(ctx context.Context, key Key) (*entry, error) {
	if key.Service == "" {
		return nil, errors.NewMalformedInputError("serviceName", "service name is required", nil)
	}
	if key.Path == "" {
		return nil, errors.NewMalformedInputError("path", "storage path is required", nil)
	}
	if e, ok := h.lookup(key); ok {
		return e, nil
	}

	v, err, _ := h.group.Do(key.flightKey(), func() (any, error) {
		// another flight may have finished between lookup and Do
		if e, ok := h.lookup(key); ok {
			return e, nil
		}
		return h.construct(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

func (h *Hub) construct(ctx context.Context, key Key) (*entry, error) {
	initializer, err := h.catalog.Lookup(key.Service)
	if err != nil {
		return nil, err
	}

	lc := logger.FromContext(ctx).WithInstance(key.Service, key.Path)
	if lc != nil {
		ctx = logger.WithContext(ctx, lc)
	}

	start := time.Now()
	db, err := initializer(ctx, registry.Spec{
		Service:          key.Service,
		Path:             key.Path,
		Adapter:          h.adapter,
		Autosave:         h.settings.Autosave,
		AutosaveInterval: h.settings.AutosaveInterval,
		ThrottledSaves:   h.settings.ThrottledSaves,
		Env:              h.settings.Env,
	})
	if err == nil && db == nil {
		err = fmt.Errorf("initializer returned no database")
	}
	metrics.ObserveInitialization(h.metrics, key.Service, err, time.Since(start))
	if err != nil {
		logger.WarnCtx(ctx, "Store initialization failed",
			logger.Service(key.Service), logger.Path(key.Path), logger.Err(err))
		return nil, errors.NewInitializationError(key.Service, key.Path, err)
	}

	e := newEntry(key, db, h.clock())
	h.mu.Lock()
	h.entries[key] = e
	h.order = append(h.order, e)
	h.mu.Unlock()

	metrics.SetInstances(h.metrics, h.liveCount())
	logger.InfoCtx(ctx, "Store instance ready",
		logger.Service(key.Service), logger.Path(key.Path),
		logger.DurationMs(logger.Duration(start)))
	return e, nil
}

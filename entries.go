/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"sync/atomic"
	"time"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/storagemodels"
)

// entry is one registered store instance. It is created once per Key and
// stays registered after Shutdown, marked closed.
type entry struct {
	key     Key
	db      datastore.Database
	created time.Time
	stats   *statsBucket // guarded by Hub.statsMu
	closed  atomic.Bool
}

func newEntry(key Key, db datastore.Database, created time.Time) *entry {
	return &entry{
		key:     key,
		db:      db,
		created: created,
		stats:   newStatsBucket(),
	}
}

func (e *entry) isClosed() bool { return e.closed.Load() }

// EntryInfo describes one registered instance.
type EntryInfo struct {
	Key       Key       `json:"key"`
	CreatedAt time.Time `json:"createdAt"`
	Closed    bool      `json:"closed"`
}

// Entries returns the registered instances in insertion order. The slice is
// a snapshot; calling it again restarts the iteration.
func (h *Hub) Entries() []EntryInfo {
	snapshot := h.snapshotEntries()
	out := make([]EntryInfo, 0, len(snapshot))
	for _, e := range snapshot {
		out = append(out, EntryInfo{Key: e.key, CreatedAt: e.created, Closed: e.isClosed()})
	}
	return out
}

// Keys returns the keys of the instances that are still open.
func (h *Hub) Keys() []Key {
	var keys []Key
	for _, e := range h.snapshotEntries() {
		if !e.isClosed() {
			keys = append(keys, e.key)
		}
	}
	return keys
}

func (h *Hub) snapshotEntries() []*entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*entry, len(h.order))
	copy(out, h.order)
	return out
}

func (h *Hub) liveCount() int {
	n := 0
	for _, e := range h.snapshotEntries() {
		if !e.isClosed() {
			n++
		}
	}
	return n
}

func instanceKeys(entries []*entry) []storagemodels.InstanceKey {
	out := make([]storagemodels.InstanceKey, 0, len(entries))
	for _, e := range entries {
		out = append(out, storagemodels.InstanceKey{
			Service: e.key.Service,
			Path:    e.key.Path,
			Closed:  e.isClosed(),
		})
	}
	return out
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memdb

import (
	"sync"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/storagemodels"
)

// DynamicView is a named, live query over a collection. Its data is
// recomputed lazily the first time it is read after the collection changes.
type DynamicView struct {
	name string
	coll *Collection

	mu      sync.Mutex
	filters []storagemodels.Filter
	sortBy  []storagemodels.SortKey

	cached        []storagemodels.Record
	cachedVersion uint64
	valid         bool
}

var _ datastore.DynamicView = (*DynamicView)(nil)

// Name implements datastore.DynamicView.
func (v *DynamicView) Name() string { return v.name }

// ApplyFind narrows the view by one more filter.
func (v *DynamicView) ApplyFind(f storagemodels.Filter) *DynamicView {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = append(v.filters, f)
	v.valid = false
	return v
}

// ApplySimpleSort orders the view by a single property, replacing any
// previous sort.
func (v *DynamicView) ApplySimpleSort(property string, desc bool) *DynamicView {
	return v.ApplySortCriteria([]storagemodels.SortKey{{Property: property, Desc: desc}})
}

// ApplySortCriteria orders the view by several properties.
func (v *DynamicView) ApplySortCriteria(keys []storagemodels.SortKey) *DynamicView {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortBy = append([]storagemodels.SortKey{}, keys...)
	v.valid = false
	return v
}

// Data implements datastore.DynamicView.
func (v *DynamicView) Data() []storagemodels.Record {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.coll.mu.RLock()
	version := v.coll.version
	if !v.valid || v.cachedVersion != version {
		rows := make([]storagemodels.Record, 0)
		for _, r := range v.coll.data {
			if v.matches(r) {
				rows = append(rows, r.Clone())
			}
		}
		if len(v.sortBy) > 0 {
			sortRecords(rows, v.sortBy)
		}
		v.cached = rows
		v.cachedVersion = version
		v.valid = true
	}
	v.coll.mu.RUnlock()

	out := make([]storagemodels.Record, len(v.cached))
	for i, r := range v.cached {
		out[i] = r.Clone()
	}
	return out
}

func (v *DynamicView) matches(r storagemodels.Record) bool {
	for _, f := range v.filters {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

// Branch implements datastore.DynamicView.
func (v *DynamicView) Branch(transformName string, params map[string]any) (datastore.ResultSet, error) {
	steps, err := v.coll.transform(transformName)
	if err != nil {
		return nil, err
	}
	out, err := runSteps(v.Data(), steps, params)
	if err != nil {
		return nil, err
	}
	return &ResultSet{collection: v.coll.name, data: out}, nil
}

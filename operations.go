/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storehub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/errors"
	"github.com/suparena/storehub/storagemodels"
)

// RemoveResult wraps the records removed by Remove.
type RemoveResult struct {
	Val []storagemodels.Record `json:"val"`
}

// TransformResult is the outcome of Transform. Records holds the
// materialized data; ResultSet is set instead when materialization was
// declined.
type TransformResult struct {
	Records   []storagemodels.Record
	ResultSet datastore.ResultSet
}

// Materialized reports whether Records holds the result.
func (r TransformResult) Materialized() bool { return r.ResultSet == nil }

// MarshalJSON encodes the records, or the result set handle.
func (r TransformResult) MarshalJSON() ([]byte, error) {
	if r.ResultSet != nil {
		return json.Marshal(r.ResultSet)
	}
	return json.Marshal(orEmpty(r.Records))
}

func instanceClosed(key Key) error {
	return errors.NewInstanceClosedError(key.Service, key.Path)
}

func orEmpty(records []storagemodels.Record) []storagemodels.Record {
	if records == nil {
		return []storagemodels.Record{}
	}
	return records
}

func collection(e *entry, name string) (datastore.Collection, error) {
	if name == "" {
		return nil, errors.NewMalformedInputError("collection", "collection name is required", nil)
	}
	return e.db.Collection(name)
}

// ParseID coerces a record identity given as a number or numeric string.
func ParseID(id any) (int64, error) {
	switch v := id.(type) {
	case nil:
		return 0, errors.NewMalformedInputError("id", "id is required", nil)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, errors.NewMalformedInputError("id", fmt.Sprintf("%q is not an integer", v), err)
		}
		return n, nil
	}
	n, ok := storagemodels.ToInt64(id)
	if !ok {
		return 0, errors.NewMalformedInputError("id", fmt.Sprintf("unsupported id %v", id), nil)
	}
	return n, nil
}

// Get returns the record with the given identity, or nil when it does not
// exist. A missing record is not an error.
func (h *Hub) Get(ctx context.Context, key Key, coll string, id any) (storagemodels.Record, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var out storagemodels.Record
	err = h.instrument(ctx, key, storagemodels.OpGet, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		if r, ok := c.Get(n); ok {
			out = r
		}
		return nil
	})
	return out, err
}

// Find returns the records matching predicate in insertion order.
// predicate may be a storagemodels.Filter, a map, JSON text or nil.
func (h *Hub) Find(ctx context.Context, key Key, coll string, predicate any) ([]storagemodels.Record, error) {
	filter, err := storagemodels.ParseFilter(predicate)
	if err != nil {
		return nil, err
	}

	var out []storagemodels.Record
	err = h.instrument(ctx, key, storagemodels.OpFind, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		out = orEmpty(c.Find(filter))
		return nil
	})
	return out, err
}

// Insert stores record and returns it with its assigned identity. A zero
// "$loki" and any "meta" field are dropped first; a non-zero identity is
// rejected.
func (h *Hub) Insert(ctx context.Context, key Key, coll string, record any) (storagemodels.Record, error) {
	rec, err := storagemodels.ParseRecord("record", record)
	if err != nil {
		return nil, err
	}
	rec = rec.Without(storagemodels.FieldMeta)
	if raw, present := rec[storagemodels.FieldID]; present {
		if id, ok := storagemodels.ToInt64(raw); raw != nil && (!ok || id != 0) {
			return nil, errors.NewMalformedInputError("record", "insert payload carries an identity, use update", nil)
		}
		delete(rec, storagemodels.FieldID)
	}

	var out storagemodels.Record
	err = h.instrument(ctx, key, storagemodels.OpInsert, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		out, err = c.Insert(rec)
		return err
	})
	return out, err
}

// Update merges record onto the stored record with the same identity. Keys
// absent from record keep their stored values.
func (h *Hub) Update(ctx context.Context, key Key, coll string, record any) (storagemodels.Record, error) {
	delta, err := storagemodels.ParseRecord("record", record)
	if err != nil {
		return nil, err
	}
	id, ok := delta.ID()
	if !ok {
		return nil, errors.NewMalformedInputError("record", "update requires the record identity ($loki)", nil)
	}
	delta = delta.Without(storagemodels.FieldMeta)

	var out storagemodels.Record
	err = h.instrument(ctx, key, storagemodels.OpUpdate, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		existing, found := c.Get(id)
		if !found {
			return errors.NewRecordNotFoundError(coll, id)
		}
		merged := existing.Clone()
		for k, v := range delta {
			merged[k] = v
		}
		merged[storagemodels.FieldID] = id
		out, err = c.Update(merged)
		return err
	})
	return out, err
}

// Remove deletes the record identified by target's "$loki" or, when target
// carries no identity, every record matching target as a predicate. An
// empty target is rejected; emptying a collection takes an explicit
// storagemodels.MatchAll() filter.
func (h *Hub) Remove(ctx context.Context, key Key, coll string, target any) (RemoveResult, error) {
	var (
		byID   bool
		id     int64
		filter storagemodels.Filter
		err    error
	)
	explicitAll := false
	switch t := target.(type) {
	case storagemodels.Filter:
		explicitAll = t.Kind == storagemodels.FilterAll
		filter, err = storagemodels.ParseFilter(t)
	case *storagemodels.Filter:
		explicitAll = t != nil && t.Kind == storagemodels.FilterAll
		filter, err = storagemodels.ParseFilter(t)
	default:
		var rec storagemodels.Record
		if rec, err = storagemodels.ParseRecord("target", target); err != nil {
			return RemoveResult{}, err
		}
		if id, byID = rec.ID(); !byID {
			filter, err = storagemodels.ParseFilter(map[string]any(rec))
		}
	}
	if err != nil {
		return RemoveResult{}, err
	}
	if !byID && filter.IsMatchAll() && !explicitAll {
		return RemoveResult{}, errors.NewMalformedInputError("target", "remove needs an identity or a non-empty predicate", nil)
	}

	out := RemoveResult{Val: []storagemodels.Record{}}
	err = h.instrument(ctx, key, storagemodels.OpRemove, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		if byID {
			if r, ok := c.Remove(id); ok {
				out.Val = append(out.Val, r)
			}
			return nil
		}
		out.Val = orEmpty(c.FindAndRemove(filter))
		return nil
	})
	return out, err
}

// Transform runs a named or literal transform chain. A nil materialize means
// true; false returns the collection's result set handle instead of data.
// Parameters of a literal chain are bound and checked before the instance is
// touched; named chains are bound by the collection that owns them.
func (h *Hub) Transform(ctx context.Context, key Key, coll string, transform any, params map[string]any, materialize *bool) (TransformResult, error) {
	spec, err := storagemodels.ParseTransform(transform)
	if err != nil {
		return TransformResult{}, err
	}
	if !spec.IsNamed() {
		if spec.Steps, err = storagemodels.BindParams(spec.Steps, params); err != nil {
			return TransformResult{}, err
		}
		params = nil
	}
	eager := materialize == nil || *materialize

	var out TransformResult
	err = h.instrument(ctx, key, storagemodels.OpTransform, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		rs, err := c.Chain(spec, params)
		if err != nil {
			return err
		}
		if eager {
			out.Records = orEmpty(rs.Data())
		} else {
			out.ResultSet = rs
		}
		return nil
	})
	return out, err
}

// DynamicView returns the current data of a named view, optionally branched
// through one of the collection's named transforms.
func (h *Hub) DynamicView(ctx context.Context, key Key, coll, view, transformName string, params map[string]any) ([]storagemodels.Record, error) {
	if view == "" {
		return nil, errors.NewMalformedInputError("viewName", "view name is required", nil)
	}

	var out []storagemodels.Record
	err := h.instrument(ctx, key, storagemodels.OpDynamicView, func(_ context.Context, e *entry) error {
		c, err := collection(e, coll)
		if err != nil {
			return err
		}
		v, ok := c.DynamicView(view)
		if !ok {
			return errors.NewViewNotFoundError(coll, view)
		}
		if transformName == "" {
			out = orEmpty(v.Data())
			return nil
		}
		rs, err := v.Branch(transformName, params)
		if err != nil {
			return err
		}
		out = orEmpty(rs.Data())
		return nil
	})
	return out, err
}

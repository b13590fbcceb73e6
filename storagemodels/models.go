/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/storehub/errors"
)

// Reserved record fields owned by the store.
const (
	// FieldID holds the store-issued integer identity of a record.
	FieldID = "$loki"
	// FieldMeta holds store bookkeeping (revision, created, updated, version).
	FieldMeta = "meta"
)

// Record is a single schemaless document.
type Record map[string]any

// ID returns the store-issued identity of the record, if it carries one.
func (r Record) ID() (int64, bool) {
	v, ok := r[FieldID]
	if !ok || v == nil {
		return 0, false
	}
	return ToInt64(v)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

// Without returns a shallow copy of r minus the named fields.
func (r Record) Without(fields ...string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Lookup resolves a dotted path ("address.city") inside the record.
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Record:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ParseRecord normalizes a record argument. It accepts a Record, a
// map[string]any, JSON text, or any JSON-marshalable struct.
func ParseRecord(param string, v any) (Record, error) {
	switch t := v.(type) {
	case nil:
		return nil, errors.NewMalformedInputError(param, "record is required", nil)
	case Record:
		return t, nil
	case map[string]any:
		return Record(t), nil
	case string:
		return decodeRecord(param, []byte(t))
	case []byte:
		return decodeRecord(param, t)
	case json.RawMessage:
		return decodeRecord(param, t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errors.NewMalformedInputError(param, "cannot encode value", err)
		}
		return decodeRecord(param, b)
	}
}

func decodeRecord(param string, b []byte) (Record, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.NewMalformedInputError(param, "invalid JSON object", err)
	}
	if m == nil {
		return nil, errors.NewMalformedInputError(param, "record is null", nil)
	}
	return Record(m), nil
}

// ToInt64 coerces numeric values, and numeric strings, to an integer identity.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}

// toFloat reports the numeric value of v for comparisons.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Equal compares two field values, treating all numeric kinds alike.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// typeRank orders values of different kinds: missing/null < bool < number < string < other.
func typeRank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	if _, ok := v.(string); ok {
		return 3
	}
	return 4
}

// CompareValues orders a and b for sorting. Values of different kinds are
// ordered by kind; values of the same kind by their natural order.
func CompareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 2:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

// Snapshot is the persisted form of a whole database.
type Snapshot struct {
	Path          string               `json:"path"`
	EngineVersion string               `json:"engineVersion"`
	SavedAt       time.Time            `json:"savedAt"`
	Collections   []CollectionSnapshot `json:"collections"`
}

// CollectionSnapshot is the persisted form of one collection. Dynamic views
// are not persisted; initializers re-create them on startup.
type CollectionSnapshot struct {
	Name          string                     `json:"name"`
	Data          []Record                   `json:"data"`
	MaxID         int64                      `json:"maxId"`
	BinaryIndices []string                   `json:"binaryIndices,omitempty"`
	UniqueIndices []string                   `json:"uniqueIndices,omitempty"`
	Transforms    map[string][]TransformStep `json:"transforms,omitempty"`
	CloneObjects  bool                       `json:"cloneObjects"`
	CloneMethod   string                     `json:"cloneMethod,omitempty"`
	DisableMeta   bool                       `json:"disableMeta,omitempty"`
}

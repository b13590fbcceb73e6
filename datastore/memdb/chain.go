/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memdb

import (
	"encoding/json"
	"sort"

	"github.com/suparena/storehub/datastore"
	"github.com/suparena/storehub/storagemodels"
)

// ResultSet holds the records produced by a transform chain.
type ResultSet struct {
	collection string
	data       []storagemodels.Record
}

var _ datastore.ResultSet = (*ResultSet)(nil)

// Data returns copies of the result records.
func (rs *ResultSet) Data() []storagemodels.Record {
	out := make([]storagemodels.Record, len(rs.data))
	for i, r := range rs.data {
		out[i] = r.Clone()
	}
	return out
}

// Count returns the number of result records.
func (rs *ResultSet) Count() int { return len(rs.data) }

// Collection names the collection the chain ran against.
func (rs *ResultSet) Collection() string { return rs.collection }

// MarshalJSON renders the handle, not its records.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Collection string `json:"collection"`
		Count      int    `json:"count"`
	}{rs.collection, len(rs.data)})
}

// runSteps applies steps to records in order. records is owned by the
// caller and may be reordered.
func runSteps(records []storagemodels.Record, steps []storagemodels.TransformStep, params map[string]any) ([]storagemodels.Record, error) {
	if len(params) > 0 {
		steps = storagemodels.SubstituteParams(steps, params)
	}
	if err := storagemodels.ValidateSteps(steps); err != nil {
		return nil, err
	}

	for _, step := range steps {
		switch step.Type {
		case storagemodels.StepFind:
			f, err := step.Filter()
			if err != nil {
				return nil, err
			}
			kept := records[:0:0]
			for _, r := range records {
				if f.Match(r) {
					kept = append(kept, r)
				}
			}
			records = kept
		case storagemodels.StepSimpleSort:
			sortRecords(records, []storagemodels.SortKey{{Property: step.Property, Desc: step.Desc}})
		case storagemodels.StepCompoundSort:
			keys, err := step.SortKeys()
			if err != nil {
				return nil, err
			}
			sortRecords(records, keys)
		case storagemodels.StepLimit:
			n, err := step.Count()
			if err != nil {
				return nil, err
			}
			if n < len(records) {
				records = records[:n]
			}
		case storagemodels.StepOffset:
			n, err := step.Count()
			if err != nil {
				return nil, err
			}
			if n > len(records) {
				n = len(records)
			}
			records = records[n:]
		}
	}
	return records, nil
}

// sortRecords is a stable sort over keys; missing values order first.
func sortRecords(records []storagemodels.Record, keys []storagemodels.SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			a, _ := records[i].Lookup(k.Property)
			b, _ := records[j].Lookup(k.Property)
			c := storagemodels.CompareValues(a, b)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storehub/errors"
)

func users() []Record {
	return []Record{
		{"name": "odin", "age": 999, "tags": []any{"allfather", "aesir"}},
		{"name": "frigga", "age": 980.0, "tags": []any{"aesir"}},
		{"name": "thor", "age": 35, "address": map[string]any{"city": "asgard"}},
		{"name": "loki", "age": int64(30)},
		{"name": "sif", "age": 25},
		{"name": "balder", "age": 24},
		{"name": "heimdall", "age": 870, "guard": true},
	}
}

func names(t *testing.T, f Filter) []string {
	t.Helper()
	var out []string
	for _, r := range users() {
		if f.Match(r) {
			out = append(out, r["name"].(string))
		}
	}
	return out
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"nil matches all", nil, []string{"odin", "frigga", "thor", "loki", "sif", "balder", "heimdall"}},
		{"empty string matches all", "  ", []string{"odin", "frigga", "thor", "loki", "sif", "balder", "heimdall"}},
		{"implicit eq", map[string]any{"name": "thor"}, []string{"thor"}},
		{"lt across numeric kinds", `{"age": {"$lt": 100}}`, []string{"thor", "loki", "sif", "balder"}},
		{"range pair", `{"age": {"$gte": 25, "$lte": 35}}`, []string{"thor", "loki", "sif"}},
		{"gt", map[string]any{"age": map[string]any{"$gt": 900}}, []string{"odin", "frigga"}},
		{"ne", `{"name": {"$ne": "odin"}}`, []string{"frigga", "thor", "loki", "sif", "balder", "heimdall"}},
		{"in native slice", map[string]any{"name": map[string]any{"$in": []string{"sif", "loki"}}}, []string{"loki", "sif"}},
		{"nin", `{"age": {"$nin": [999, 980, 870]}}`, []string{"thor", "loki", "sif", "balder"}},
		{"contains element", `{"tags": {"$contains": "aesir"}}`, []string{"odin", "frigga"}},
		{"contains all", `{"tags": {"$contains": ["aesir", "allfather"]}}`, []string{"odin"}},
		{"contains substring", `{"name": {"$contains": "ld"}}`, []string{"balder"}},
		{"regex", `{"name": {"$regex": "^(th|lo)"}}`, []string{"thor", "loki"}},
		{"exists", `{"guard": {"$exists": true}}`, []string{"heimdall"}},
		{"dotted path", `{"address.city": "asgard"}`, []string{"thor"}},
		{"or", `{"$or": [{"name": "odin"}, {"age": 24}]}`, []string{"odin", "balder"}},
		{"and", `{"$and": [{"age": {"$lt": 100}}, {"age": {"$gt": 25}}]}`, []string{"thor", "loki"}},
		{"no range across kinds", `{"name": {"$lt": 100}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(t, f))
		})
	}
}

func TestParseFilterMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"bad json", `{"age": `},
		{"json array", `[1, 2]`},
		{"unknown top-level operator", `{"$where": "this.age > 1"}`},
		{"unknown field operator", `{"age": {"$between": [1, 2]}}`},
		{"in without array", `{"age": {"$in": 5}}`},
		{"exists without bool", `{"age": {"$exists": "yes"}}`},
		{"bad regex", `{"name": {"$regex": "("}}`},
		{"or without array", `{"$or": {"name": "odin"}}`},
		{"unsupported type", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)
		})
	}
}

func TestWhere(t *testing.T) {
	f, err := Where("age", OpLt, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"sif", "balder"}, names(t, f))

	_, err = Where("age", Operator("$near"), 1)
	assert.True(t, errors.IsMalformedInput(err))
}

func TestMissingFieldSemantics(t *testing.T) {
	r := Record{"name": "odin"}

	eqNil, _ := ParseFilter(map[string]any{"age": nil})
	assert.True(t, eqNil.Match(r))

	ne, _ := ParseFilter(`{"age": {"$ne": 5}}`)
	assert.True(t, ne.Match(r))

	nin, _ := ParseFilter(`{"age": {"$nin": [5]}}`)
	assert.True(t, nin.Match(r))

	gt, _ := ParseFilter(`{"age": {"$gt": 0}}`)
	assert.False(t, gt.Match(r))
}

func TestParseNativeFilter(t *testing.T) {
	f, err := ParseFilter(Filter{Kind: FilterField, Field: "age", Op: OpIn, Value: []int{30, 35}})
	require.NoError(t, err)
	assert.Equal(t, []string{"thor", "loki"}, names(t, f))

	f, err = ParseFilter(&Filter{Kind: FilterOr, Children: []Filter{
		{Kind: FilterField, Field: "name", Op: OpRegex, Value: "^h"},
		{Kind: FilterField, Field: "guard", Op: OpExists, Value: false},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"odin", "frigga", "thor", "loki", "sif", "balder", "heimdall"}, names(t, f))

	f, err = ParseFilter(Filter{})
	require.NoError(t, err)
	assert.True(t, f.IsMatchAll())

	for name, bad := range map[string]Filter{
		"unknown operator": {Kind: FilterField, Field: "age", Op: "$bogus"},
		"unknown kind":     {Kind: "xor"},
		"kindless field":   {Field: "age", Op: OpEq, Value: 1},
		"in scalar":        {Kind: FilterField, Field: "age", Op: OpNin, Value: 3},
		"exists string":    {Kind: FilterField, Field: "age", Op: OpExists, Value: "yes"},
		"bad regex":        {Kind: FilterField, Field: "name", Op: OpRegex, Value: "("},
		"nested":           {Kind: FilterAnd, Children: []Filter{{Kind: FilterField, Field: "age", Op: "$near"}}},
	} {
		_, err := ParseFilter(bad)
		assert.True(t, errors.IsMalformedInput(err), "%s: %v", name, err)
	}
}

func TestMatchUnnormalizedFilter(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Empty(t, names(t, Filter{Kind: FilterField, Field: "age", Op: OpIn, Value: "x"}))
		assert.Empty(t, names(t, Filter{Kind: FilterField, Field: "age", Op: OpExists, Value: 1}))
	})
	assert.Equal(t, []string{"loki"}, names(t, Filter{Kind: FilterField, Field: "age", Op: OpIn, Value: []int{30}}))
}

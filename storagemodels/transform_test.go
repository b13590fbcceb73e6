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

func TestParseTransform(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		spec, err := ParseTransform("OrderedByAge")
		require.NoError(t, err)
		assert.True(t, spec.IsNamed())
		assert.Equal(t, "OrderedByAge", spec.Name)
	})

	t.Run("JSONChain", func(t *testing.T) {
		spec, err := ParseTransform(`[
			{"type": "find", "value": {"age": {"$lt": 100}}},
			{"type": "simplesort", "property": "age", "desc": true},
			{"type": "limit", "value": 2}
		]`)
		require.NoError(t, err)
		require.False(t, spec.IsNamed())
		require.Len(t, spec.Steps, 3)
		assert.Equal(t, StepFind, spec.Steps[0].Type)
		assert.Equal(t, "age", spec.Steps[1].Property)
		assert.True(t, spec.Steps[1].Desc)

		n, err := spec.Steps[2].Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("SingleStepObject", func(t *testing.T) {
		spec, err := ParseTransform(map[string]any{"type": "offset", "value": 1})
		require.NoError(t, err)
		require.Len(t, spec.Steps, 1)
		assert.Equal(t, StepOffset, spec.Steps[0].Type)
	})

	t.Run("NativeSteps", func(t *testing.T) {
		spec, err := ParseTransform([]TransformStep{{Type: StepSimpleSort, Property: "name"}})
		require.NoError(t, err)
		assert.Len(t, spec.Steps, 1)
	})

	t.Run("CompoundSort", func(t *testing.T) {
		spec, err := ParseTransform(`{"type": "compoundsort", "value": [["age", true], "name"]}`)
		require.NoError(t, err)
		keys, err := spec.Steps[0].SortKeys()
		require.NoError(t, err)
		assert.Equal(t, []SortKey{{Property: "age", Desc: true}, {Property: "name"}}, keys)
	})
}

func TestParseTransformMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"empty", ""},
		{"bad json", `[{"type": "find"`},
		{"no steps", `[]`},
		{"unknown step", `[{"type": "mapreduce"}]`},
		{"executable step", `[{"type": "where", "value": "function(o) { return true }"}]`},
		{"bad find", `[{"type": "find", "value": {"age": {"$near": 1}}}]`},
		{"negative limit", `[{"type": "limit", "value": -1}]`},
		{"fractional offset", `[{"type": "offset", "value": 1.5}]`},
		{"sort without property", `[{"type": "simplesort"}]`},
		{"bad compoundsort", `[{"type": "compoundsort", "value": [["age", "desc"]]}]`},
		{"non-object step", `[1]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransform(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)
		})
	}
}

func TestSubstituteParams(t *testing.T) {
	spec, err := ParseTransform(`[
		{"type": "find", "value": {"age": {"$lt": "[%lktxp]maxAge"}}},
		{"type": "simplesort", "property": "[%lktxp]sortBy"},
		{"type": "limit", "value": "[%lktxp]take"}
	]`)
	require.NoError(t, err)

	steps := SubstituteParams(spec.Steps, map[string]any{"maxAge": 30, "sortBy": "name", "take": 1})
	require.NoError(t, ValidateSteps(steps))

	f, err := steps[0].Filter()
	require.NoError(t, err)
	assert.True(t, f.Match(Record{"age": 25}))
	assert.False(t, f.Match(Record{"age": 35}))
	assert.Equal(t, "name", steps[1].Property)

	n, err := steps[2].Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the original chain is untouched
	assert.Equal(t, "[%lktxp]sortBy", spec.Steps[1].Property)
	orig := spec.Steps[0].Value.(map[string]any)["age"].(map[string]any)["$lt"]
	assert.Equal(t, "[%lktxp]maxAge", orig)
}

func TestSubstituteParamsMissing(t *testing.T) {
	spec, err := ParseTransform(`[{"type": "limit", "value": "[%lktxp]take"}]`)
	require.NoError(t, err)

	steps := SubstituteParams(spec.Steps, nil)
	err = ValidateSteps(steps)
	assert.NoError(t, err, "unresolved placeholders are left for the engine to report")

	_, err = steps[0].Count()
	assert.True(t, errors.IsMalformedInput(err))
}

func TestBindParams(t *testing.T) {
	spec, err := ParseTransform(`[
		{"type": "simplesort", "property": "[%lktxp]sortBy"},
		{"type": "limit", "value": "[%lktxp]take"}
	]`)
	require.NoError(t, err)

	steps, err := BindParams(spec.Steps, map[string]any{"sortBy": "age", "take": 2})
	require.NoError(t, err)
	assert.Equal(t, "age", steps[0].Property)
	assert.Equal(t, 2, steps[1].Value)

	_, err = BindParams(spec.Steps, map[string]any{"sortBy": "age", "take": "x"})
	assert.True(t, errors.IsMalformedInput(err), "bad value: %v", err)

	_, err = BindParams(spec.Steps, map[string]any{"sortBy": "age"})
	assert.True(t, errors.IsMalformedInput(err), "unbound value: %v", err)

	_, err = BindParams(spec.Steps, map[string]any{"take": 1})
	assert.True(t, errors.IsMalformedInput(err), "unbound property: %v", err)
}

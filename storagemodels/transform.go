/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suparena/storehub/errors"
)

// StepType names one step of a transform chain.
type StepType string

const (
	StepFind         StepType = "find"
	StepSimpleSort   StepType = "simplesort"
	StepCompoundSort StepType = "compoundsort"
	StepLimit        StepType = "limit"
	StepOffset       StepType = "offset"
)

// ParamPrefix marks a string value inside a step as a parameter placeholder,
// e.g. {"type":"find","value":{"age":{"$lt":"[%lktxp]maxAge"}}}.
const ParamPrefix = "[%lktxp]"

// TransformStep is one pure-data step of a transform chain.
//
//	{type: "find", value: <predicate>}
//	{type: "simplesort", property: "age", desc: true}
//	{type: "compoundsort", value: [["age", true], "name"]}
//	{type: "limit", value: 10}
//	{type: "offset", value: 5}
type TransformStep struct {
	Type     StepType `json:"type"`
	Value    any      `json:"value,omitempty"`
	Property string   `json:"property,omitempty"`
	Desc     bool     `json:"desc,omitempty"`
}

// TransformSpec is either the name of a transform registered on a collection
// or a literal chain of steps.
type TransformSpec struct {
	Name  string
	Steps []TransformStep
}

// IsNamed reports whether s refers to a registered transform.
func (s TransformSpec) IsNamed() bool { return s.Name != "" }

// SortKey is one property of a compound sort.
type SortKey struct {
	Property string
	Desc     bool
}

// ParseTransform normalizes a transform argument. Strings that look like JSON
// are decoded as a literal chain; any other non-empty string is a transform name.
func ParseTransform(v any) (TransformSpec, error) {
	switch t := v.(type) {
	case nil:
		return TransformSpec{}, errors.NewMalformedInputError("transform", "transform is required", nil)
	case TransformSpec:
		if !t.IsNamed() {
			if err := ValidateSteps(t.Steps); err != nil {
				return TransformSpec{}, err
			}
		}
		return t, nil
	case []TransformStep:
		if err := ValidateSteps(t); err != nil {
			return TransformSpec{}, err
		}
		return TransformSpec{Steps: t}, nil
	case TransformStep:
		return ParseTransform([]TransformStep{t})
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return TransformSpec{}, errors.NewMalformedInputError("transform", "transform is required", nil)
		}
		if s[0] != '[' && s[0] != '{' {
			return TransformSpec{Name: s}, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return TransformSpec{}, errors.NewMalformedInputError("transform", "invalid JSON", err)
		}
		return ParseTransform(decoded)
	case map[string]any:
		step, err := decodeStep(t)
		if err != nil {
			return TransformSpec{}, err
		}
		return ParseTransform([]TransformStep{step})
	case []any:
		steps := make([]TransformStep, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return TransformSpec{}, errors.NewMalformedInputError("transform", fmt.Sprintf("step %d is not an object", i), nil)
			}
			step, err := decodeStep(m)
			if err != nil {
				return TransformSpec{}, err
			}
			steps = append(steps, step)
		}
		return ParseTransform(steps)
	default:
		return TransformSpec{}, errors.NewMalformedInputError("transform", fmt.Sprintf("unsupported type %T", v), nil)
	}
}

func decodeStep(m map[string]any) (TransformStep, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return TransformStep{}, errors.NewMalformedInputError("transform", "cannot encode step", err)
	}
	var step TransformStep
	if err := json.Unmarshal(b, &step); err != nil {
		return TransformStep{}, errors.NewMalformedInputError("transform", "invalid step", err)
	}
	return step, nil
}

// ValidateSteps checks step types and the shape of their arguments. Values
// holding parameter placeholders are checked after substitution instead.
func ValidateSteps(steps []TransformStep) error {
	if len(steps) == 0 {
		return errors.NewMalformedInputError("transform", "chain has no steps", nil)
	}
	for i, step := range steps {
		if err := validateStep(step); err != nil {
			return errors.NewMalformedInputError("transform", fmt.Sprintf("step %d (%s)", i, step.Type), err)
		}
	}
	return nil
}

func validateStep(step TransformStep) error {
	switch step.Type {
	case StepFind:
		if hasPlaceholder(step.Value) {
			return nil
		}
		_, err := parseFilterValue("transform", step.Value)
		return err
	case StepSimpleSort:
		if step.Property == "" {
			return fmt.Errorf("property is required")
		}
	case StepCompoundSort:
		if hasPlaceholder(step.Value) {
			return nil
		}
		_, err := step.SortKeys()
		return err
	case StepLimit, StepOffset:
		if hasPlaceholder(step.Value) {
			return nil
		}
		_, err := step.Count()
		return err
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
	return nil
}

// Filter parses the predicate of a find step.
func (s TransformStep) Filter() (Filter, error) {
	return parseFilterValue("transform", s.Value)
}

// Count returns the numeric argument of a limit/offset step.
func (s TransformStep) Count() (int, error) {
	n, ok := ToInt64(s.Value)
	if !ok || n < 0 {
		return 0, errors.NewMalformedInputError("transform", fmt.Sprintf("%s expects a non-negative integer", s.Type), nil)
	}
	return int(n), nil
}

// SortKeys returns the properties of a compoundsort step.
func (s TransformStep) SortKeys() ([]SortKey, error) {
	list, ok := asList(s.Value)
	if !ok || len(list) == 0 {
		return nil, errors.NewMalformedInputError("transform", "compoundsort expects a non-empty array", nil)
	}
	keys := make([]SortKey, 0, len(list))
	for _, item := range list {
		switch k := item.(type) {
		case string:
			keys = append(keys, SortKey{Property: k})
		default:
			pair, ok := asList(item)
			if !ok || len(pair) != 2 {
				return nil, errors.NewMalformedInputError("transform", "compoundsort entries are a property or [property, desc]", nil)
			}
			prop, ok1 := pair[0].(string)
			desc, ok2 := pair[1].(bool)
			if !ok1 || !ok2 {
				return nil, errors.NewMalformedInputError("transform", "compoundsort entries are a property or [property, desc]", nil)
			}
			keys = append(keys, SortKey{Property: prop, Desc: desc})
		}
	}
	return keys, nil
}

// SubstituteParams returns a copy of steps with every placeholder string
// replaced by the matching entry of params. Unknown placeholders are left as-is.
func SubstituteParams(steps []TransformStep, params map[string]any) []TransformStep {
	out := make([]TransformStep, len(steps))
	for i, step := range steps {
		step.Value = substitute(cloneValue(step.Value), params)
		if name, ok := placeholder(step.Property); ok {
			if v, ok := params[name].(string); ok {
				step.Property = v
			}
		}
		out[i] = step
	}
	return out
}

// BindParams substitutes params into a literal chain and validates the
// result. A placeholder left without a value is rejected.
func BindParams(steps []TransformStep, params map[string]any) ([]TransformStep, error) {
	if len(params) > 0 {
		steps = SubstituteParams(steps, params)
	}
	for i, step := range steps {
		_, unboundProp := placeholder(step.Property)
		if unboundProp || hasPlaceholder(step.Value) {
			return nil, errors.NewMalformedInputError("params", fmt.Sprintf("step %d (%s) has an unbound parameter", i, step.Type), nil)
		}
	}
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func substitute(v any, params map[string]any) any {
	switch t := v.(type) {
	case string:
		if name, ok := placeholder(t); ok {
			if pv, ok := params[name]; ok {
				return pv
			}
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = substitute(e, params)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = substitute(e, params)
		}
		return t
	}
	return v
}

func placeholder(s string) (string, bool) {
	if strings.HasPrefix(s, ParamPrefix) {
		return strings.TrimPrefix(s, ParamPrefix), true
	}
	return "", false
}

func hasPlaceholder(v any) bool {
	switch t := v.(type) {
	case string:
		_, ok := placeholder(t)
		return ok
	case map[string]any:
		for _, e := range t {
			if hasPlaceholder(e) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if hasPlaceholder(e) {
				return true
			}
		}
	}
	return false
}

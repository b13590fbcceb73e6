/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/suparena/storehub/errors"
)

// FilterKind tags the shape of a Filter.
type FilterKind string

const (
	FilterAll   FilterKind = "all"
	FilterField FilterKind = "field"
	FilterAnd   FilterKind = "and"
	FilterOr    FilterKind = "or"
)

// Operator is a field comparison supported by a FilterField node.
type Operator string

const (
	OpEq       Operator = "$eq"
	OpNe       Operator = "$ne"
	OpGt       Operator = "$gt"
	OpGte      Operator = "$gte"
	OpLt       Operator = "$lt"
	OpLte      Operator = "$lte"
	OpIn       Operator = "$in"
	OpNin      Operator = "$nin"
	OpContains Operator = "$contains"
	OpRegex    Operator = "$regex"
	OpExists   Operator = "$exists"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpIn: {}, OpNin: {}, OpContains: {}, OpRegex: {}, OpExists: {},
}

// Filter is a parsed predicate. It is a closed variant: a match-all node,
// a single field comparison, or a conjunction/disjunction of children.
type Filter struct {
	Kind     FilterKind
	Field    string
	Op       Operator
	Value    any
	Children []Filter

	re *regexp.Regexp
}

// MatchAll returns the filter that accepts every record.
func MatchAll() Filter { return Filter{Kind: FilterAll} }

// Where builds a single field comparison.
func Where(field string, op Operator, value any) (Filter, error) {
	return fieldFilter("predicate", field, op, value)
}

// ParseFilter normalizes a predicate argument. It accepts a Filter, a
// mongo-style map ({"age": {"$lt": 100}}), JSON text of such a map, or nil
// (match all). Anything outside the supported operator set is rejected with
// ErrMalformedInput.
func ParseFilter(v any) (Filter, error) {
	return parseFilterValue("predicate", v)
}

func parseFilterValue(param string, v any) (Filter, error) {
	switch t := v.(type) {
	case nil:
		return MatchAll(), nil
	case Filter:
		return normalizeFilter(param, t)
	case *Filter:
		if t == nil {
			return MatchAll(), nil
		}
		return normalizeFilter(param, *t)
	case map[string]any:
		return parseFilterMap(param, t)
	case Record:
		return parseFilterMap(param, t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return MatchAll(), nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return Filter{}, errors.NewMalformedInputError(param, "invalid JSON", err)
		}
		if decoded == nil {
			return MatchAll(), nil
		}
		m, ok := decoded.(map[string]any)
		if !ok {
			return Filter{}, errors.NewMalformedInputError(param, "expected a JSON object", nil)
		}
		return parseFilterMap(param, m)
	default:
		return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("unsupported type %T", v), nil)
	}
}

// normalizeFilter re-checks a Filter built in Go against the same rules as
// a parsed predicate. Field nodes are rebuilt through fieldFilter so lists,
// booleans and regular expressions are in matchable form.
func normalizeFilter(param string, f Filter) (Filter, error) {
	switch f.Kind {
	case FilterAll:
		return MatchAll(), nil
	case "":
		if f.Field != "" || f.Op != "" || f.Value != nil || len(f.Children) > 0 {
			return Filter{}, errors.NewMalformedInputError(param, "filter kind is required", nil)
		}
		return MatchAll(), nil
	case FilterAnd, FilterOr:
		node := Filter{Kind: f.Kind, Children: make([]Filter, 0, len(f.Children))}
		for _, c := range f.Children {
			child, err := normalizeFilter(param, c)
			if err != nil {
				return Filter{}, err
			}
			node.Children = append(node.Children, child)
		}
		return node, nil
	case FilterField:
		return fieldFilter(param, f.Field, f.Op, f.Value)
	default:
		return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("unsupported filter kind %q", f.Kind), nil)
	}
}

// IsMatchAll reports whether f accepts every record without testing a field.
func (f Filter) IsMatchAll() bool {
	return f.Kind == FilterAll || (f.Kind == "" && f.Field == "" && len(f.Children) == 0)
}

func parseFilterMap(param string, m map[string]any) (Filter, error) {
	if len(m) == 0 {
		return MatchAll(), nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []Filter
	for _, k := range keys {
		v := m[k]
		switch {
		case k == "$and" || k == "$or":
			list, ok := v.([]any)
			if !ok {
				return Filter{}, errors.NewMalformedInputError(param, k+" expects an array", nil)
			}
			kind := FilterAnd
			if k == "$or" {
				kind = FilterOr
			}
			node := Filter{Kind: kind}
			for _, item := range list {
				sub, ok := item.(map[string]any)
				if !ok {
					return Filter{}, errors.NewMalformedInputError(param, k+" expects an array of objects", nil)
				}
				child, err := parseFilterMap(param, sub)
				if err != nil {
					return Filter{}, err
				}
				node.Children = append(node.Children, child)
			}
			parts = append(parts, node)
		case strings.HasPrefix(k, "$"):
			return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("unsupported operator %q", k), nil)
		default:
			conds, err := parseFieldValue(param, k, v)
			if err != nil {
				return Filter{}, err
			}
			parts = append(parts, conds...)
		}
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return Filter{Kind: FilterAnd, Children: parts}, nil
}

// parseFieldValue expands {"age": 5} or {"age": {"$gt": 1, "$lt": 9}}.
func parseFieldValue(param, field string, v any) ([]Filter, error) {
	ops, ok := v.(map[string]any)
	if !ok || len(ops) == 0 || !allOperators(ops) {
		f, err := fieldFilter(param, field, OpEq, v)
		if err != nil {
			return nil, err
		}
		return []Filter{f}, nil
	}

	names := make([]string, 0, len(ops))
	for k := range ops {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Filter, 0, len(ops))
	for _, name := range names {
		f, err := fieldFilter(param, field, Operator(name), ops[name])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func allOperators(m map[string]any) bool {
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func fieldFilter(param, field string, op Operator, value any) (Filter, error) {
	if _, ok := operators[op]; !ok {
		return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("unsupported operator %q on field %q", op, field), nil)
	}
	f := Filter{Kind: FilterField, Field: field, Op: op, Value: value}
	switch op {
	case OpIn, OpNin:
		list, ok := asList(value)
		if !ok {
			return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("%s on %q expects an array", op, field), nil)
		}
		f.Value = list
	case OpContains:
		if list, ok := asList(value); ok {
			f.Value = list
		}
	case OpExists:
		if _, ok := value.(bool); !ok {
			return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("$exists on %q expects a boolean", field), nil)
		}
	case OpRegex:
		pattern, ok := value.(string)
		if !ok {
			return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("$regex on %q expects a string", field), nil)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Filter{}, errors.NewMalformedInputError(param, fmt.Sprintf("$regex on %q", field), err)
		}
		f.re = re
	}
	return f, nil
}

// Match reports whether r satisfies the filter.
func (f Filter) Match(r Record) bool {
	switch f.Kind {
	case FilterAll, "":
		return true
	case FilterAnd:
		for _, c := range f.Children {
			if !c.Match(r) {
				return false
			}
		}
		return true
	case FilterOr:
		for _, c := range f.Children {
			if c.Match(r) {
				return true
			}
		}
		return false
	case FilterField:
		v, present := r.Lookup(f.Field)
		return f.matchValue(v, present)
	}
	return false
}

func (f Filter) matchValue(v any, present bool) bool {
	switch f.Op {
	case OpEq:
		if !present {
			return f.Value == nil
		}
		return Equal(v, f.Value)
	case OpNe:
		if !present {
			return f.Value != nil
		}
		return !Equal(v, f.Value)
	case OpGt, OpGte, OpLt, OpLte:
		if !present || !rangeComparable(v, f.Value) {
			return false
		}
		c := CompareValues(v, f.Value)
		switch f.Op {
		case OpGt:
			return c > 0
		case OpGte:
			return c >= 0
		case OpLt:
			return c < 0
		default:
			return c <= 0
		}
	case OpIn:
		list, ok := asList(f.Value)
		return ok && present && containsEqual(list, v)
	case OpNin:
		list, ok := asList(f.Value)
		return ok && (!present || !containsEqual(list, v))
	case OpContains:
		return present && contains(v, f.Value)
	case OpRegex:
		s, ok := v.(string)
		if !ok || f.re == nil {
			return false
		}
		return f.re.MatchString(s)
	case OpExists:
		want, ok := f.Value.(bool)
		return ok && present == want
	}
	return false
}

// asList converts any slice value to []any.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// rangeComparable reports whether range operators are meaningful between a and b.
func rangeComparable(a, b any) bool {
	ra, rb := typeRank(a), typeRank(b)
	return ra == rb && (ra == 2 || ra == 3)
}

func containsEqual(list []any, v any) bool {
	for _, e := range list {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		switch n := needle.(type) {
		case string:
			return strings.Contains(h, n)
		case []any:
			for _, e := range n {
				s, ok := e.(string)
				if !ok || !strings.Contains(h, s) {
					return false
				}
			}
			return true
		}
	case []any:
		if list, ok := needle.([]any); ok {
			for _, e := range list {
				if !containsEqual(h, e) {
					return false
				}
			}
			return true
		}
		return containsEqual(h, needle)
	}
	return false
}

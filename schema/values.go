package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Any accepts every value unchanged.
func Any() Schema {
	return Func(Valid)
}

// Void accepts only an absent (nil) value. Use it for methods without params.
func Void() Schema {
	return Func(func(input any) Result {
		if input != nil {
			return Invalid(typeIssue("nothing", input))
		}
		return Valid(nil)
	})
}

// String accepts string values.
func String() Schema {
	return Func(func(input any) Result {
		s, ok := input.(string)
		if !ok {
			return Invalid(typeIssue("string", input))
		}
		return Valid(s)
	})
}

// Bool accepts boolean values.
func Bool() Schema {
	return Func(func(input any) Result {
		b, ok := input.(bool)
		if !ok {
			return Invalid(typeIssue("boolean", input))
		}
		return Valid(b)
	})
}

// Number accepts any numeric kind and outputs a float64.
func Number() Schema {
	return Func(func(input any) Result {
		f, ok := toFloat(input)
		if !ok {
			return Invalid(typeIssue("number", input))
		}
		return Valid(f)
	})
}

// Int accepts numbers without a fractional part that fit in an int64, and
// outputs an int64. Integer kinds and json.Number are converted exactly.
func Int() Schema {
	return Func(func(input any) Result {
		if n, ok := input.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return Valid(i)
			}
		}
		rv := reflect.ValueOf(input)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return Valid(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.Uint() > math.MaxInt64 {
				return Invalid(intRangeIssue(CodeTooBig))
			}
			return Valid(int64(rv.Uint()))
		}

		f, ok := toFloat(input)
		if !ok {
			return Invalid(typeIssue("integer", input))
		}
		if f != math.Trunc(f) {
			return Invalid(Issue{Message: fmt.Sprintf("expected integer, received %v", f), Code: CodeInvalidType})
		}
		// -2^63 is exact in a float64; 2^63 is one past MaxInt64.
		if f >= 1<<63 {
			return Invalid(intRangeIssue(CodeTooBig))
		}
		if f < -(1 << 63) {
			return Invalid(intRangeIssue(CodeTooSmall))
		}
		return Valid(int64(f))
	})
}

func intRangeIssue(code string) Issue {
	return Issue{
		Message: fmt.Sprintf("expected integer between %d and %d", int64(math.MinInt64), int64(math.MaxInt64)),
		Code:    code,
	}
}

// Literal accepts exactly the given value.
func Literal(want any) Schema {
	return Func(func(input any) Result {
		if !equal(input, want) {
			return Invalid(Issue{Message: fmt.Sprintf("expected %v", want), Code: CodeInvalidLiteral})
		}
		return Valid(input)
	})
}

// Tuple accepts an array of exactly len(items) elements, validating each
// element positionally.
func Tuple(items ...Schema) Schema {
	return Func(func(input any) Result {
		list, ok := toSlice(input)
		if !ok {
			return Invalid(typeIssue("array", input))
		}
		if len(list) < len(items) {
			return Invalid(Issue{Message: fmt.Sprintf("expected %d elements, received %d", len(items), len(list)), Code: CodeTooSmall})
		}
		if len(list) > len(items) {
			return Invalid(Issue{Message: fmt.Sprintf("expected %d elements, received %d", len(items), len(list)), Code: CodeTooBig})
		}
		out := make([]any, len(list))
		var issues []Issue
		for i, item := range items {
			res := item.Validate(list[i])
			if res.Pending {
				return res
			}
			if !res.OK() {
				issues = append(issues, prefix(i, res.Issues)...)
				continue
			}
			out[i] = res.Value
		}
		if len(issues) > 0 {
			return Invalid(issues...)
		}
		return Valid(out)
	})
}

// ArrayOf accepts an array whose every element satisfies item.
func ArrayOf(item Schema) Schema {
	return Func(func(input any) Result {
		list, ok := toSlice(input)
		if !ok {
			return Invalid(typeIssue("array", input))
		}
		out := make([]any, len(list))
		var issues []Issue
		for i, v := range list {
			res := item.Validate(v)
			if res.Pending {
				return res
			}
			if !res.OK() {
				issues = append(issues, prefix(i, res.Issues)...)
				continue
			}
			out[i] = res.Value
		}
		if len(issues) > 0 {
			return Invalid(issues...)
		}
		return Valid(out)
	})
}

type optional struct {
	Schema
}

// Optional marks an Object field that may be missing.
func Optional(s Schema) Schema {
	return optional{s}
}

// Object accepts a JSON object. Every field in fields is validated; fields
// not wrapped in Optional are required. Unknown keys are passed through.
func Object(fields map[string]Schema) Schema {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Func(func(input any) Result {
		m, ok := input.(map[string]any)
		if !ok {
			return Invalid(typeIssue("object", input))
		}
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		var issues []Issue
		for _, k := range keys {
			field := fields[k]
			v, present := m[k]
			if !present {
				if _, opt := field.(optional); opt {
					continue
				}
				issues = append(issues, Issue{Path: []any{k}, Message: "required", Code: CodeRequired})
				continue
			}
			res := field.Validate(v)
			if res.Pending {
				return res
			}
			if !res.OK() {
				issues = append(issues, prefix(k, res.Issues)...)
				continue
			}
			out[k] = res.Value
		}
		if len(issues) > 0 {
			return Invalid(issues...)
		}
		return Valid(out)
	})
}

// Union accepts the output of the first member that validates.
func Union(members ...Schema) Schema {
	return Func(func(input any) Result {
		var issues []Issue
		for _, m := range members {
			res := m.Validate(input)
			if res.Pending || res.OK() {
				return res
			}
			issues = append(issues, res.Issues...)
		}
		return Invalid(append([]Issue{{Message: "no union member matched", Code: CodeInvalidUnion}}, issues...)...)
	})
}

// Transform validates with s, then maps the output through fn. An error from
// fn is reported as a custom issue.
func Transform(s Schema, fn func(any) (any, error)) Schema {
	return Func(func(input any) Result {
		res := s.Validate(input)
		if !res.OK() {
			return res
		}
		v, err := fn(res.Value)
		if err != nil {
			return Invalid(Issue{Message: err.Error(), Code: CodeCustom})
		}
		return Valid(v)
	})
}

// Refine validates with s, then rejects outputs for which check returns false.
func Refine(s Schema, check func(any) bool, message string) Schema {
	return Func(func(input any) Result {
		res := s.Validate(input)
		if !res.OK() {
			return res
		}
		if !check(res.Value) {
			return Invalid(Issue{Message: message, Code: CodeCustom})
		}
		return res
	})
}

// Decode converts the input to T by round-tripping it through encoding/json.
// The output is a T value, not a pointer.
func Decode[T any]() Schema {
	return Func(func(input any) Result {
		if v, ok := input.(T); ok {
			return Valid(v)
		}
		b, err := json.Marshal(input)
		if err != nil {
			return Invalid(Issue{Message: err.Error(), Code: CodeInvalidType})
		}
		var out T
		if err := json.Unmarshal(b, &out); err != nil {
			return Invalid(Issue{Message: err.Error(), Code: CodeInvalidType})
		}
		return Valid(out)
	})
}

func toFloat(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// toSlice accepts []any directly and any other slice or array kind through
// reflection, so values passed in-process need not be JSON-shaped.
func toSlice(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a string on the wire, not an array.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func equal(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	if _, ok := toSlice(v); ok {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// Package schema defines the synchronous validation contract used by the
// jsonrpc package, together with a small set of value schemas that satisfy it.
//
// A Schema receives an already-decoded value (the output of json.Unmarshal
// into an interface{}, or any Go value passed in-process) and answers with a
// Result: either the validated, possibly transformed, value or a non-empty
// list of Issues.
//
//	params := schema.Tuple(schema.String())
//	res := params.Validate([]any{"Dan"})
//	if !res.OK() {
//	    fmt.Println(res.Issues)
//	}
//
// Any validation library can be plugged in by implementing Schema; see the
// jsonschema subpackage for an adapter over compiled JSON Schema documents.
//
// # Asynchronous validators
//
// Validation is synchronous. A Schema that cannot answer without waiting
// must return a Result with Pending set. Consumers treat a pending result as
// a fatal misconfiguration rather than a validation failure.
package schema

import (
	"fmt"
	"strings"
)

// Schema validates and optionally transforms a value.
type Schema interface {
	Validate(input any) Result
}

// Func adapts a function to a Schema.
type Func func(input any) Result

func (f Func) Validate(input any) Result {
	return f(input)
}

// Issue describes why a value failed validation.
type Issue struct {
	// Path locates the offending value: object keys are strings, array
	// indices are ints. Empty for the root value.
	Path    []any  `json:"path,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	parts := make([]string, len(i.Path))
	for n, p := range i.Path {
		parts[n] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".") + ": " + i.Message
}

// Result is the outcome of Schema.Validate.
type Result struct {
	// Value is the validated output. It is only meaningful when OK reports true.
	Value  any
	Issues []Issue
	// Pending is set by schemas that could not produce an answer synchronously.
	Pending bool
}

// OK reports whether validation succeeded.
func (r Result) OK() bool {
	return !r.Pending && len(r.Issues) == 0
}

// Valid returns a successful Result carrying v.
func Valid(v any) Result {
	return Result{Value: v}
}

// Invalid returns a failed Result. Callers must pass at least one issue.
func Invalid(issues ...Issue) Result {
	if len(issues) == 0 {
		issues = []Issue{{Message: "invalid value", Code: CodeCustom}}
	}
	return Result{Issues: issues}
}

// Pending returns a Result signalling an asynchronous validator.
func Pending() Result {
	return Result{Pending: true}
}

// Issue codes produced by this package.
const (
	CodeInvalidType    = "invalid_type"
	CodeInvalidLiteral = "invalid_literal"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeRequired       = "required"
	CodeInvalidUnion   = "invalid_union"
	CodeCustom         = "custom"
)

func typeIssue(want string, got any) Issue {
	return Issue{
		Message: fmt.Sprintf("expected %s, received %s", want, describe(got)),
		Code:    CodeInvalidType,
	}
}

// prefix prepends key to the path of every issue.
func prefix(key any, issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	for i, is := range issues {
		path := make([]any, 0, len(is.Path)+1)
		path = append(path, key)
		path = append(path, is.Path...)
		is.Path = path
		out[i] = is
	}
	return out
}

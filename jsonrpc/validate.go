package jsonrpc

import (
	"github.com/mnehpets/rpcschema/schema"
)

const asyncUnsupported = "asynchronous validation is not supported"

// Checked is the outcome of Check.
type Checked struct {
	OK     bool
	Value  any
	Issues []schema.Issue
	// Err is set when the schema could not be evaluated at all (it panicked
	// or reported a pending result). It is always an InternalError.
	Err *Error
}

// Check validates v against s without failing the caller: validation
// failures are reported in the returned Checked so that the caller can map
// them to the protocol error of its choosing. A nil schema accepts v as is.
func Check(s schema.Schema, v any) (c Checked) {
	if s == nil {
		return Checked{OK: true, Value: v}
	}
	defer func() {
		if r := recover(); r != nil {
			c = Checked{Err: Coerce(r)}
		}
	}()

	res := s.Validate(v)
	if res.Pending {
		return Checked{Err: NewInternalError(asyncUnsupported)}
	}
	if len(res.Issues) > 0 {
		return Checked{Issues: res.Issues}
	}
	return Checked{OK: true, Value: res.Value}
}

// Assert validates v against s and returns the transformed value. Any
// failure is an InternalError; use it where the value must already be valid.
func Assert(s schema.Schema, v any) (any, error) {
	c := Check(s, v)
	if c.Err != nil {
		return nil, c.Err
	}
	if !c.OK {
		return nil, NewInternalError("validation failed").WithData(IssueData{Issues: c.Issues, Value: v})
	}
	return c.Value, nil
}

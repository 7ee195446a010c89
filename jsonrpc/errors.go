package jsonrpc

import (
	"errors"
	"fmt"

	"github.com/mnehpets/rpcschema/schema"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var standardMessages = map[int]string{
	CodeParseError:     "Parse error",
	CodeInvalidRequest: "Invalid Request",
	CodeMethodNotFound: "Method not found",
	CodeInvalidParams:  "Invalid params",
	CodeInternalError:  "Internal error",
}

// Error is a JSON-RPC error object. It is also the error type returned by
// handlers and clients.
//
// Each constructor returns a fresh value; never share an *Error between
// responses, since messages and data are per-request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "jsonrpc: error: <nil>"
	}
	return fmt.Sprintf("jsonrpc: %s (%d)", e.Message, e.Code)
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, ErrMethodNotFound) matches any method-not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data = data
	return &c
}

// Sentinels for errors.Is. Do not send these; use the constructors.
var (
	ErrParse          = &Error{Code: CodeParseError, Message: standardMessages[CodeParseError]}
	ErrInvalidRequest = &Error{Code: CodeInvalidRequest, Message: standardMessages[CodeInvalidRequest]}
	ErrMethodNotFound = &Error{Code: CodeMethodNotFound, Message: standardMessages[CodeMethodNotFound]}
	ErrInvalidParams  = &Error{Code: CodeInvalidParams, Message: standardMessages[CodeInvalidParams]}
	ErrInternal       = &Error{Code: CodeInternalError, Message: standardMessages[CodeInternalError]}
)

// NewError creates an error with an application-defined code.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func newStandardError(code int, detail string) *Error {
	msg := standardMessages[code]
	if detail != "" {
		msg += ": " + detail
	}
	return &Error{Code: code, Message: msg}
}

func NewParseError(detail string) *Error {
	return newStandardError(CodeParseError, detail)
}

func NewInvalidRequestError(detail string) *Error {
	return newStandardError(CodeInvalidRequest, detail)
}

func NewMethodNotFoundError(detail string) *Error {
	return newStandardError(CodeMethodNotFound, detail)
}

func NewInvalidParamsError(detail string) *Error {
	return newStandardError(CodeInvalidParams, detail)
}

func NewInternalError(detail string) *Error {
	return newStandardError(CodeInternalError, detail)
}

// ErrorData is the data payload of an InternalError produced from a foreign
// error or a recovered panic.
type ErrorData struct {
	Message string `json:"message"`
}

// IssueData is the data payload of errors caused by schema validation.
type IssueData struct {
	Issues []schema.Issue `json:"issues"`
	Value  any            `json:"value"`
}

// AsError converts err to an *Error. Errors that are (or wrap) an *Error are
// returned as is; anything else becomes an InternalError whose data preserves
// the original message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	if errors.As(err, &rpcErr) && rpcErr != nil {
		return rpcErr
	}
	return NewInternalError("").WithData(ErrorData{Message: err.Error()})
}

// Coerce converts any value, typically one recovered from a panic, to an
// *Error.
func Coerce(v any) *Error {
	switch x := v.(type) {
	case nil:
		return NewInternalError("")
	case error:
		return AsError(x)
	case string:
		return NewInternalError("").WithData(ErrorData{Message: x})
	default:
		return NewInternalError("").WithData(ErrorData{Message: fmt.Sprint(x)})
	}
}

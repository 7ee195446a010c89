package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/rpcschema/schema"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		code int
		msg  string
	}{
		{NewParseError(""), CodeParseError, "Parse error"},
		{NewInvalidRequestError("bad"), CodeInvalidRequest, "Invalid Request: bad"},
		{NewMethodNotFoundError("foo"), CodeMethodNotFound, "Method not found: foo"},
		{NewInvalidParamsError(""), CodeInvalidParams, "Invalid params"},
		{NewInternalError("Invalid result"), CodeInternalError, "Internal error: Invalid result"},
		{NewError(-32000, "app"), -32000, "app"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.msg, tt.err.Message)
			assert.Nil(t, tt.err.Data)
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("call: %w", NewMethodNotFoundError("foo"))
	assert.ErrorIs(t, err, ErrMethodNotFound)
	assert.NotErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, "jsonrpc: Method not found: foo (-32601)", NewMethodNotFoundError("foo").Error())
}

func TestWithDataCopies(t *testing.T) {
	base := NewInternalError("")
	withData := base.WithData(ErrorData{Message: "x"})
	assert.Nil(t, base.Data)
	assert.Equal(t, ErrorData{Message: "x"}, withData.Data)
}

func TestAsErrorAndCoerce(t *testing.T) {
	custom := NewError(-1, "custom")
	assert.Same(t, custom, AsError(fmt.Errorf("wrapped: %w", custom)))
	assert.Nil(t, AsError(nil))

	internal := AsError(errors.New("plain"))
	assert.Equal(t, CodeInternalError, internal.Code)
	assert.Equal(t, ErrorData{Message: "plain"}, internal.Data)

	assert.Equal(t, ErrorData{Message: "oops"}, Coerce("oops").Data)
	assert.Equal(t, ErrorData{Message: "42"}, Coerce(42).Data)
	assert.Same(t, custom, Coerce(custom))
	assert.Equal(t, CodeInternalError, Coerce(nil).Code)
}

func TestErrorJSON(t *testing.T) {
	b, err := json.Marshal(NewInvalidParamsError("").WithData(IssueData{
		Issues: []schema.Issue{{Path: []any{0}, Message: "expected string", Code: schema.CodeInvalidType}},
		Value:  []any{1},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"code": -32602,
		"message": "Invalid params",
		"data": {"issues": [{"path": [0], "message": "expected string", "code": "invalid_type"}], "value": [1]}
	}`, string(b))
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(decode(t, `{"jsonrpc":"2.0","method":"m","params":{"a":1},"id":"x"}`))
	require.Nil(t, err)
	assert.Equal(t, "m", req.Method)
	assert.Equal(t, map[string]any{"a": 1.0}, req.Params)
	assert.Equal(t, "x", req.ID)
	assert.False(t, req.IsNotification())

	req, err = ParseRequest(decode(t, `{"jsonrpc":"2.0","method":"m"}`))
	require.Nil(t, err)
	assert.True(t, req.IsNotification())

	req, err = ParseRequest(decode(t, `{"jsonrpc":"2.0","method":"m","id":null}`))
	require.Nil(t, err)
	assert.False(t, req.IsNotification())
	assert.Nil(t, req.ID)

	_, err = ParseRequest(decode(t, `{"jsonrpc":"2.0","method":"","params":1,"id":[]}`))
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidRequest, err.Code)
	data := err.Data.(IssueData)
	paths := make([]any, len(data.Issues))
	for i, is := range data.Issues {
		paths[i] = is.Path[0]
	}
	assert.Equal(t, []any{"method", "params", "id"}, paths)
}

func TestParseBatchPrefixesIssues(t *testing.T) {
	_, err := ParseBatch(decode(t, `[{"jsonrpc":"2.0","method":"m"},{"jsonrpc":"2.0"}]`))
	require.NotNil(t, err)
	data := err.Data.(IssueData)
	require.Len(t, data.Issues, 1)
	assert.Equal(t, []any{1, "method"}, data.Issues[0].Path)
	assert.Equal(t, "1.method: must not be empty", data.Issues[0].String())
}

func TestRequestJSON(t *testing.T) {
	b, err := json.Marshal(&Request{JSONRPC: Version, Method: "m", Params: []any{1}, ID: nil, HasID: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"m","params":[1],"id":null}`, string(b))

	b, err = json.Marshal(&Request{JSONRPC: Version, Method: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"m"}`, string(b))

	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"m","id":3}`), &req))
	assert.Equal(t, 3.0, req.ID)
	assert.True(t, req.HasID)

	assert.Error(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0"}`), &req))
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		wantErr bool
	}{
		{"Result", decode(t, `{"jsonrpc":"2.0","result":1,"id":1}`), false},
		{"NullResult", decode(t, `{"jsonrpc":"2.0","result":null,"id":1}`), false},
		{"Error", decode(t, `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":null}`), false},
		{"Both", decode(t, `{"jsonrpc":"2.0","result":1,"error":{"code":1,"message":"x"},"id":1}`), true},
		{"Neither", decode(t, `{"jsonrpc":"2.0","id":1}`), true},
		{"MissingID", decode(t, `{"jsonrpc":"2.0","result":1}`), true},
		{"WrongVersion", decode(t, `{"jsonrpc":"1.0","result":1,"id":1}`), true},
		{"FractionalCode", decode(t, `{"jsonrpc":"2.0","error":{"code":1.5,"message":"x"},"id":1}`), true},
		{"MissingMessage", decode(t, `{"jsonrpc":"2.0","error":{"code":1},"id":1}`), true},
		{"Scalar", "garbage", true},
		{"Typed", &Response{JSONRPC: Version, Result: "ok", ID: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, resp)
		})
	}
}

func TestResponseJSON(t *testing.T) {
	b, err := json.Marshal(newErrorResponse(nil, NewMethodNotFoundError("")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":null}`, string(b))

	var resp Response
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestIDKey(t *testing.T) {
	assert.Equal(t, idKey(1), idKey(1.0))
	assert.Equal(t, idKey(int64(7)), idKey(json.Number("7")))
	assert.NotEqual(t, idKey("1"), idKey(1))
	assert.NotEqual(t, idKey(nil), idKey("null"))

	assert.Equal(t, idKey(uint64(9007199254740993)), idKey(json.Number("9007199254740993")))
	assert.NotEqual(t, idKey(json.Number("9007199254740993")), idKey(json.Number("9007199254740992")))
	assert.Equal(t, idKey(1000), idKey(json.Number("1e3")))
	assert.Equal(t, idKey(1.5), idKey(json.Number("1.5")))
}

func TestCheck(t *testing.T) {
	c := Check(nil, "anything")
	assert.True(t, c.OK)
	assert.Equal(t, "anything", c.Value)

	c = Check(schema.Transform(schema.String(), func(v any) (any, error) { return v.(string) + "!", nil }), "hi")
	assert.True(t, c.OK)
	assert.Equal(t, "hi!", c.Value)

	c = Check(schema.String(), 1)
	assert.False(t, c.OK)
	assert.Nil(t, c.Err)
	assert.NotEmpty(t, c.Issues)

	c = Check(schema.Func(func(any) schema.Result { return schema.Pending() }), 1)
	require.NotNil(t, c.Err)
	assert.Equal(t, CodeInternalError, c.Err.Code)

	c = Check(schema.Func(func(any) schema.Result { panic("broken schema") }), 1)
	require.NotNil(t, c.Err)
	assert.Equal(t, ErrorData{Message: "broken schema"}, c.Err.Data)
}

func TestAssert(t *testing.T) {
	v, err := Assert(schema.Int(), 3.0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = Assert(schema.Int(), "3")
	require.ErrorIs(t, err, ErrInternal)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "3", rpcErr.Data.(IssueData).Value)
}

// label returns a method whose handler reports which definition it came from.
func label(s string) Method {
	return Method{Handler: func(context.Context, any) (any, error) { return s, nil }}
}

func resolve(t *testing.T, r *Registry, name string) any {
	t.Helper()
	m, ok := r.Lookup(name)
	require.True(t, ok, "method %q not registered", name)
	v, err := m.Handler(context.Background(), nil)
	require.NoError(t, err)
	return v
}

func TestRegistryExtend(t *testing.T) {
	base := NewRegistry(map[string]Method{"a": label("base"), "b": label("base")})
	ext := base.Extend(map[string]Method{"b": label("ext"), "c": label("ext")})

	assert.Equal(t, []string{"a", "b"}, base.Names())
	assert.Equal(t, []string{"a", "b", "c"}, ext.Names())
	assert.Equal(t, "base", resolve(t, ext, "a"))
	assert.Equal(t, "ext", resolve(t, ext, "b"))
	assert.Equal(t, "base", resolve(t, base, "b"))
}

func TestRegistryExtendIsAssociative(t *testing.T) {
	a := map[string]Method{"x": label("a"), "y": label("a")}
	b := map[string]Method{"y": label("b"), "z": label("b")}
	c := map[string]Method{"z": label("c"), "w": label("c")}

	left := NewRegistry(a).Extend(b).Extend(c)
	right := NewRegistry(a).Merge(NewRegistry(b).Extend(c))

	assert.Equal(t, left.Names(), right.Names())
	for _, name := range left.Names() {
		assert.Equal(t, resolve(t, left, name), resolve(t, right, name), name)
	}
}

func TestRegistryContracts(t *testing.T) {
	reg := NewRegistry(map[string]Method{"greeting": greetingMethod()})
	contracts := reg.Contracts()

	m, ok := contracts.Lookup("greeting")
	require.True(t, ok)
	assert.Nil(t, m.Handler)
	assert.NotNil(t, m.Params)

	orig, _ := reg.Lookup("greeting")
	assert.NotNil(t, orig.Handler)

	var nilReg *Registry
	_, ok = nilReg.Lookup("greeting")
	assert.False(t, ok)
	assert.Equal(t, 0, nilReg.Len())
	assert.Equal(t, 1, nilReg.Extend(map[string]Method{"x": label("x")}).Len())
}

package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/rpcschema/jsonrpc"
	"github.com/mnehpets/rpcschema/schema"
)

func TestByName(t *testing.T) {
	c, err := ByName("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, c)

	c, err = ByName("cbor")
	require.NoError(t, err)
	assert.Equal(t, "application/cbor", c.ContentType())

	_, err = ByName("msgpack")
	assert.Error(t, err)
}

func TestForContentType(t *testing.T) {
	tests := []struct {
		header string
		want   Codec
		ok     bool
	}{
		{"", JSON, true},
		{"application/json", JSON, true},
		{"application/json; charset=utf-8", JSON, true},
		{"application/cbor", CBOR, true},
		{"text/plain", nil, false},
		{"not a media type;;", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ForContentType(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONDecode(t *testing.T) {
	v, err := JSON.Decode(strings.NewReader(`{"jsonrpc":"2.0","method":"m","id":1}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"jsonrpc": "2.0", "method": "m", "id": json.Number("1")}, v)

	_, err = JSON.Decode(strings.NewReader(`{"jsonrpc":"2.0"`))
	assert.Error(t, err)

	_, err = JSON.Decode(strings.NewReader(`{} {}`))
	assert.Error(t, err)

	_, err = JSON.Decode(strings.NewReader(``))
	assert.Error(t, err)
}

func TestJSONEncodeDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON.Encode(&buf, map[string]any{"html": "<b>"}))
	assert.Equal(t, `{"html":"<b>"}`+"\n", buf.String())
}

func TestCBORRequest(t *testing.T) {
	var buf bytes.Buffer
	req := &jsonrpc.Request{JSONRPC: jsonrpc.Version, Method: "greeting", Params: []any{"Dan"}, ID: 1, HasID: true}
	require.NoError(t, CBOR.Encode(&buf, req))

	decoded, err := CBOR.Decode(&buf)
	require.NoError(t, err)
	parsed, rpcErr := jsonrpc.ParseRequest(decoded)
	require.Nil(t, rpcErr)
	assert.Equal(t, "greeting", parsed.Method)
	assert.Equal(t, []any{"Dan"}, parsed.Params)
	assert.EqualValues(t, 1, parsed.ID)
}

func TestCBORNotificationOmitsID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CBOR.Encode(&buf, &jsonrpc.Request{JSONRPC: jsonrpc.Version, Method: "log"}))

	var m map[string]any
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &m))
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "params")
}

func TestCBORServerRoundTrip(t *testing.T) {
	srv := jsonrpc.NewServer(jsonrpc.NewRegistry(map[string]jsonrpc.Method{
		"greeting": {
			Params: schema.Tuple(schema.String()),
			Result: schema.String(),
			Handler: func(_ context.Context, params any) (any, error) {
				return "Hello, " + params.([]any)[0].(string) + "!", nil
			},
		},
	}))

	var in bytes.Buffer
	require.NoError(t, CBOR.Encode(&in, []*jsonrpc.Request{
		{JSONRPC: jsonrpc.Version, Method: "greeting", Params: []any{"Dan"}, ID: "a", HasID: true},
		{JSONRPC: jsonrpc.Version, Method: "greeting", Params: []any{7}, ID: -3, HasID: true},
	}))
	payload, err := CBOR.Decode(&in)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, CBOR.Encode(&out, srv.Request(context.Background(), payload)))
	reply, err := CBOR.Decode(&out)
	require.NoError(t, err)

	items, ok := reply.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	first, err := jsonrpc.ParseResponse(items[0])
	require.NoError(t, err)
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "Hello, Dan!", first.Result)

	second, err := jsonrpc.ParseResponse(items[1])
	require.NoError(t, err)
	assert.EqualValues(t, -3, second.ID)
	require.NotNil(t, second.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, second.Error.Code)
	data, ok := second.Error.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "issues")
}

func TestCBORRejectsTrailingData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CBOR.Encode(&buf, map[string]any{"a": 1}))
	buf.WriteByte(0x01)

	_, err := CBOR.Decode(&buf)
	assert.Error(t, err)

	_, err = CBOR.Decode(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestWireLeavesPlainValues(t *testing.T) {
	assert.Equal(t, []byte("x"), wire([]byte("x")))
	assert.Equal(t, []int{1, 2}, wire([]int{1, 2}))
	assert.Nil(t, wire((*jsonrpc.Response)(nil)))
	assert.Nil(t, wire(jsonrpc.Reply{}))
}

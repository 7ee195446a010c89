package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/rpcschema/jsonrpc"
)

func call(t *testing.T, srv *jsonrpc.Server, body string) *jsonrpc.Response {
	t.Helper()
	var payload any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	reply := srv.Request(context.Background(), payload)
	require.Len(t, reply.Responses, 1)
	return reply.Responses[0]
}

func TestMethods(t *testing.T) {
	srv := jsonrpc.NewServer(Registry(nil))

	tests := []struct {
		name     string
		body     string
		want     any
		wantCode int
	}{
		{"Greeting", `{"jsonrpc":"2.0","method":"greeting","params":["Dan"],"id":1}`, "Hello, Dan!", 0},
		{"Add", `{"jsonrpc":"2.0","method":"add","params":[2,3.5],"id":1}`, 5.5, 0},
		{"AddWrongArity", `{"jsonrpc":"2.0","method":"add","params":[2],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"Divide", `{"jsonrpc":"2.0","method":"divide","params":{"dividend":9,"divisor":3},"id":1}`, 3.0, 0},
		{"DivideByZero", `{"jsonrpc":"2.0","method":"divide","params":{"dividend":9,"divisor":0},"id":1}`, nil, CodeDivisionByZero},
		{"DivideMissingField", `{"jsonrpc":"2.0","method":"divide","params":{"dividend":9},"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"Echo", `{"jsonrpc":"2.0","method":"echo","params":{"a":[1,"x"]},"id":1}`, map[string]any{"a": []any{1.0, "x"}}, 0},
		{"Sleep", `{"jsonrpc":"2.0","method":"sleep","params":[1],"id":1}`, int64(1), 0},
		{"SleepTooLong", `{"jsonrpc":"2.0","method":"sleep","params":[60000],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"SleepFraction", `{"jsonrpc":"2.0","method":"sleep","params":[1.5],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"User", `{"jsonrpc":"2.0","method":"user.validate","params":[{"name":"Dan","email":"dan@example.com","tags":["a"]}],"id":1}`,
			map[string]any{"name": "Dan", "email": "dan@example.com"}, 0},
		{"UserBadEmail", `{"jsonrpc":"2.0","method":"user.validate","params":[{"name":"Dan","email":"nope"}],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"UserExtraField", `{"jsonrpc":"2.0","method":"user.validate","params":[{"name":"Dan","email":"d@e.f","admin":true}],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"Summarize", `{"jsonrpc":"2.0","method":"stats.summarize","params":[1,2,3,6],"id":1}`, Summary{Count: 4, Sum: 12, Mean: 3, Min: 1, Max: 6}, 0},
		{"SummarizeEmpty", `{"jsonrpc":"2.0","method":"stats.summarize","params":[],"id":1}`, nil, jsonrpc.CodeInvalidParams},
		{"Upper", `{"jsonrpc":"2.0","method":"strings.upper","params":["abc"],"id":1}`, "ABC", 0},
		{"Split", `{"jsonrpc":"2.0","method":"strings.split","params":{"s":"a,b","sep":","},"id":1}`, []string{"a", "b"}, 0},
		{"Reverse", `{"jsonrpc":"2.0","method":"strings.reverse","params":["héllo"],"id":1}`, "olléh", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, tt.body)
			if tt.wantCode != 0 {
				require.NotNil(t, resp.Error, "got result %v", resp.Result)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				return
			}
			require.Nil(t, resp.Error)
			assert.Equal(t, tt.want, resp.Result)
		})
	}
}

func TestInvalidEmailIssuePath(t *testing.T) {
	srv := jsonrpc.NewServer(Registry(nil))

	resp := call(t, srv, `{"jsonrpc":"2.0","method":"user.validate","params":[{"name":"Dan","email":"nope"}],"id":1}`)
	require.NotNil(t, resp.Error)
	data := resp.Error.Data.(jsonrpc.IssueData)
	require.NotEmpty(t, data.Issues)
	assert.Equal(t, []any{0, "email"}, data.Issues[0].Path)
}

func TestLogNotification(t *testing.T) {
	var buf bytes.Buffer
	srv := jsonrpc.NewServer(Registry(slog.New(slog.NewTextHandler(&buf, nil))))

	reply := srv.Request(context.Background(), map[string]any{"jsonrpc": "2.0", "method": "log", "params": []any{"hello from client"}})
	assert.True(t, reply.Empty())
	assert.Contains(t, buf.String(), "hello from client")
}

func TestSleepHonorsCancellation(t *testing.T) {
	m := Methods(nil)["sleep"]
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Handler(ctx, []any{int64(5000)})
	assert.ErrorIs(t, err, jsonrpc.ErrInternal)
	assert.Less(t, time.Since(start), time.Second)
}

func TestContractsHaveNoHandlers(t *testing.T) {
	contracts := Contracts()
	assert.Equal(t, Registry(nil).Names(), contracts.Names())
	for _, name := range contracts.Names() {
		m, _ := contracts.Lookup(name)
		assert.Nil(t, m.Handler, name)
	}
}

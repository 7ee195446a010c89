package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/mnehpets/rpcschema/httprpc"
	"github.com/mnehpets/rpcschema/jsonrpc"
	"github.com/mnehpets/rpcschema/schema"
)

type MathMethods struct{}

type SubParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (m *MathMethods) Sub(ctx context.Context, p SubParams) (int, error) {
	return p.A - p.B, nil
}

func main() {
	reg := jsonrpc.NewRegistry(map[string]jsonrpc.Method{
		"greeting": {
			Params: schema.Tuple(schema.String()),
			Result: schema.String(),
			Handler: func(_ context.Context, params any) (any, error) {
				return "Hello, " + params.([]any)[0].(string) + "!", nil
			},
		},
	}).Extend(jsonrpc.Receiver("math", &MathMethods{}))
	srv := jsonrpc.NewServer(reg)

	mux := http.NewServeMux()
	mux.Handle("/rpc", httprpc.NewEndpoint(srv).Handler())
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := jsonrpc.NewClient(reg.Contracts(), httprpc.Transport(ts.URL+"/rpc"))
	ctx := context.Background()

	greeting, err := client.Call(ctx, "greeting", []any{"Dan"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(greeting)

	diff, err := jsonrpc.Invoke[int](ctx, client, "math.Sub", map[string]any{"a": 5, "b": 3})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(diff)

	results, err := client.Batch(ctx, func(b *jsonrpc.BatchBuilder) map[string]*jsonrpc.Call {
		return map[string]*jsonrpc.Call{
			"dan": b.Call("greeting", []any{"Dan"}),
			"eve": b.Call("greeting", []any{"Eve"}),
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results["dan"].Value, results["eve"].Value)
}

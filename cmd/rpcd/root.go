package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/mnehpets/rpcschema/httprpc"
	"github.com/mnehpets/rpcschema/internal/config"
	"github.com/mnehpets/rpcschema/internal/demo"
	"github.com/mnehpets/rpcschema/jsonrpc"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rpcd",
		Short:         "Serve and call schema-validated JSON-RPC methods",
		Version:       Version + " (" + CommitHash + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(callCmd())
	cmd.AddCommand(batchCmd())
	cmd.AddCommand(methodsCmd())

	return cmd
}

// newClient returns a client for the demo contracts posting to url, with
// local validation set by the configuration.
func newClient(cfg *config.Config, url string) *jsonrpc.Client {
	if url == "" {
		url = cfg.GetEndpoint()
	}
	c := jsonrpc.NewClient(demo.Contracts(), httprpc.Transport(url, httprpc.WithCodec(cfg.GetCodec())))
	if !cfg.ValidateParams() {
		c = c.RawParams()
	}
	if !cfg.ValidateResults() {
		c = c.RawResults()
	}
	return c
}

// parseJSON decodes an optional JSON argument. An empty string is nil.
func parseJSON(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// errorView renders err for output: JSON-RPC errors keep their structure.
func errorView(err error) any {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return map[string]any{"message": err.Error()}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnehpets/rpcschema/internal/config"
	"github.com/mnehpets/rpcschema/internal/demo"
	"github.com/mnehpets/rpcschema/jsonrpc"
)

func callCmd() *cobra.Command {
	var (
		url    string
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "call <method> [params-json]",
		Short: "Call a method and print its result",
		Example: `  rpcd call greeting '["Dan"]'
  rpcd call divide '{"dividend": 1, "divisor": 4}'
  rpcd call --notify log '["hello"]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			params, err := parseJSON(raw)
			if err != nil {
				return fmt.Errorf("params: %w", err)
			}

			client := newClient(cfg, url)
			if notify {
				return client.Notify(cmd.Context(), args[0], params)
			}
			result, err := client.Call(cmd.Context(), args[0], params)
			if err != nil {
				_ = printJSON(cmd.ErrOrStderr(), errorView(err))
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&url, "endpoint", "", "server URL (default $RPCD_ENDPOINT)")
	cmd.Flags().BoolVar(&notify, "notify", false, "send as a notification and expect no result")

	return cmd
}

// batchEntry is one call of a batch file.
type batchEntry struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	Notify bool   `json:"notify,omitempty"`
}

type batchOutcome struct {
	OK    bool `json:"ok"`
	Value any  `json:"value,omitempty"`
	Error any  `json:"error,omitempty"`
}

func batchCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Send a batch of calls described by a JSON file",
		Long: `
Send several calls as a single JSON-RPC batch.

The input is a JSON object mapping keys to calls:

  {
    "dan": {"method": "greeting", "params": ["Dan"]},
    "sum": {"method": "add", "params": [1, 2]},
    "log": {"method": "log", "params": ["batch sent"], "notify": true}
  }

The outcome of each call is printed under the same key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var entries map[string]batchEntry
			if err := json.NewDecoder(in).Decode(&entries); err != nil {
				return fmt.Errorf("batch file: %w", err)
			}

			results, err := newClient(cfg, url).Batch(cmd.Context(), func(b *jsonrpc.BatchBuilder) map[string]*jsonrpc.Call {
				calls := make(map[string]*jsonrpc.Call, len(entries))
				for key, e := range entries {
					if e.Notify {
						calls[key] = b.Notify(e.Method, e.Params)
					} else {
						calls[key] = b.Call(e.Method, e.Params)
					}
				}
				return calls
			})
			if err != nil {
				_ = printJSON(cmd.ErrOrStderr(), errorView(err))
				return err
			}

			out := make(map[string]batchOutcome, len(results))
			for key, res := range results {
				o := batchOutcome{OK: res.OK, Value: res.Value}
				if res.Err != nil {
					o.Error = errorView(res.Err)
				}
				out[key] = o
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&url, "endpoint", "", "server URL (default $RPCD_ENDPOINT)")

	return cmd
}

func methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the methods served by rpcd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range demo.Contracts().Names() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mnehpets/rpcschema/endpoint"
	"github.com/mnehpets/rpcschema/httprpc"
	"github.com/mnehpets/rpcschema/internal/config"
	"github.com/mnehpets/rpcschema/internal/demo"
	"github.com/mnehpets/rpcschema/internal/logging"
	"github.com/mnehpets/rpcschema/jsonrpc"
	"github.com/mnehpets/rpcschema/metrics"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC server",
		Long: `
Run the JSON-RPC server over HTTP.

Requests are accepted as JSON or CBOR POST bodies on RPCD_RPC_PATH. Prometheus
metrics are served on RPCD_METRICS_PATH unless RPCD_METRICS_ENABLED is false.

All settings are read from RPCD_* environment variables or a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

			ln, err := net.Listen("tcp", cfg.GetListenAddr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, ln)
		},
	}

	return cmd
}

// newHandler wires the demo methods, metrics and HTTP endpoint into a mux.
func newHandler(cfg *config.Config, logger *slog.Logger) http.Handler {
	opts := []jsonrpc.ServerOption{
		jsonrpc.WithLogger(logger),
		jsonrpc.WithConcurrency(cfg.GetBatchConcurrency()),
	}
	processors := []endpoint.Processor{endpoint.AccessLog(logger)}

	mux := http.NewServeMux()
	if mc := cfg.GetMetricsConfig(); mc.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		rpcMetrics := metrics.NewRPCMetrics()
		rpcMetrics.Register(reg)
		httpMetrics := metrics.NewHTTPMetrics()
		httpMetrics.Register(reg)

		opts = append(opts, jsonrpc.WithObserver(rpcMetrics))
		processors = append(processors, httpMetrics.Processor())
		mux.Handle(mc.Path, metrics.Handler(reg))
	}

	srv := jsonrpc.NewServer(demo.Registry(logger), opts...)
	e := httprpc.NewEndpoint(srv,
		httprpc.WithLogger(logger),
		httprpc.WithMaxBodyBytes(cfg.GetMaxBodyBytes()))
	mux.Handle(cfg.GetRPCPath(), e.Handler(processors...))
	return mux
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ln net.Listener) error {
	server := &http.Server{
		Handler:           newHandler(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting JSON-RPC server",
			slog.String("addr", ln.Addr().String()),
			slog.String("path", cfg.GetRPCPath()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down JSON-RPC server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

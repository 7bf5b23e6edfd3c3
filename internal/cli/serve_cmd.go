package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/itopnl/internal/mcpserver"
	"github.com/alexanderramin/itopnl/internal/metrics"
)

func newServeCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query tools over MCP on stdin/stdout",
		Long: `Run an MCP server on stdio exposing smart_query, one query tool per
well-known class, describe_class, discover_field_values and list_operations.
With --metrics-addr, Prometheus metrics are served over HTTP as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = app.Config.MetricsAddr
			}
			if metricsAddr != "" {
				stop := serveMetrics(cmd.Context(), metricsAddr)
				defer stop()
			}
			return mcpserver.Serve(mcpserver.New(app.Service, app.Config.DefaultLimit))
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint, e.g. :9102")
	return cmd
}

// serveMetrics starts the metrics endpoint in the background. stdout is
// the MCP channel, so failures go to the log only.
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "metrics_server_failed", "addr", addr, "error", err.Error())
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "metrics_server_shutdown", "error", fmt.Sprint(err))
		}
	}
}

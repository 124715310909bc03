package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/srip/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analyses over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health             liveness check
  POST /api/v1/analyses    run an analysis: {"query": "...", "targets": "a, b"}
  GET  /api/v1/metrics     run and per-model counters
  GET  /api/v1/events      pipeline events as Server-Sent Events
                           (?run=<id> and ?types=a,b filter the stream)

Examples:
  # Listen on the configured address (server.addr, default :8080)
  srip serve

  # Listen on a custom address
  srip serve --addr 127.0.0.1:3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	deps, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	addr := serveAddr
	if addr == "" {
		addr = deps.Config.Server.Addr
	}

	srv := api.NewServer(deps.Service,
		api.WithLogger(deps.Logger),
		api.WithEventBus(deps.Bus),
		api.WithMetrics(deps.Metrics),
		api.WithMiddleware(deps.Telemetry.HTTPMiddleware("srip-api", "/health")),
	)

	fmt.Fprintf(cmd.ErrOrStderr(), "srip API listening on %s\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

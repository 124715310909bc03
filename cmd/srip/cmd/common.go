package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/srip/internal/adapters/llm"
	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/fsutil"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
	"github.com/hugo-lorenzo-mato/srip/internal/service/pipeline"
	"github.com/hugo-lorenzo-mato/srip/internal/telemetry"
)

const eventBufferSize = 256

// newCompleter creates the provider client. Tests replace it with a
// scripted completer.
var newCompleter = func(cfg config.GatewayConfig, httpClient *http.Client) (core.Completer, error) {
	if err := config.ValidateCredentials(&cfg); err != nil {
		return nil, err
	}
	return llm.NewRegistry().New(cfg, httpClient)
}

// loadConfig loads and validates configuration using the global viper
// instance so persistent flag bindings apply.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// pipelineDeps holds everything a command needs to run analyses.
type pipelineDeps struct {
	Config    *config.Config
	Logger    *logging.Logger
	Telemetry *telemetry.Provider
	Bus       *events.EventBus
	Metrics   *service.MetricsCollector
	Service   *pipeline.Service
}

// Close flushes spans and releases the event bus and log file.
func (d *pipelineDeps) Close() {
	d.Bus.Close()
	if err := d.Telemetry.Shutdown(context.Background()); err != nil {
		d.Logger.Warn("flushing traces", "error", err)
	}
	_ = d.Logger.Close()
}

// initPipeline loads configuration and wires the gateway, pipeline and
// its observers.
func initPipeline(ctx context.Context) (*pipelineDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Output:  os.Stderr,
		Secrets: []string{cfg.Gateway.APIKey},
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	tp, err := telemetry.New(ctx, telemetry.Config{
		Exporter:    cfg.Trace.Exporter,
		Endpoint:    cfg.Trace.Endpoint,
		ServiceName: cfg.Trace.ServiceName,
		Version:     appVersion,
	})
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	completer, err := newCompleter(cfg.Gateway, tp.HTTPClient(nil))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = logger.Close()
		return nil, err
	}

	metrics := service.NewMetricsCollector()
	gateway, err := pipeline.NewGatewayFromConfig(completer, cfg.Gateway, metrics, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = logger.Close()
		return nil, fmt.Errorf("creating gateway: %w", err)
	}

	bus := events.New(eventBufferSize)
	svc, err := pipeline.NewService(gateway, cfg,
		pipeline.WithServiceEvents(bus),
		pipeline.WithServiceMetrics(metrics),
		pipeline.WithServiceLogger(logger),
		pipeline.WithServiceTracer(tp.Tracer()),
	)
	if err != nil {
		bus.Close()
		_ = tp.Shutdown(ctx)
		_ = logger.Close()
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	logger.Debug("pipeline ready",
		"provider", cfg.Gateway.Provider,
		"models", strings.Join(cfg.Gateway.Models, ","),
		"trace_exporter", cfg.Trace.Exporter)

	return &pipelineDeps{
		Config:    cfg,
		Logger:    logger,
		Telemetry: tp,
		Bus:       bus,
		Metrics:   metrics,
		Service:   svc,
	}, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// getQuery returns the query from the first argument or from file.
func getQuery(args []string, file string) (string, error) {
	if file != "" {
		data, err := fsutil.ReadFileScoped(file)
		if err != nil {
			return "", fmt.Errorf("reading query file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return "", fmt.Errorf("query required: provide as argument or use --file")
}

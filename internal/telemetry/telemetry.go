// Package telemetry configures OpenTelemetry tracing for pipeline runs.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// InstrumentationName names the tracer used by the pipeline.
const InstrumentationName = "github.com/hugo-lorenzo-mato/srip"

// Config selects and configures the span exporter.
type Config struct {
	Exporter    string
	Endpoint    string
	ServiceName string
	Version     string
	// Writer receives stdout spans; defaults to os.Stderr.
	Writer io.Writer
}

// Provider owns the tracer provider for the life of the process.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// New creates a provider for cfg. The "none" exporter yields a no-op
// tracer and installs nothing globally.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "", ExporterNone:
		return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s exporter: %w", cfg.Exporter, err)
	}

	p, err := NewWithExporter(exporter, cfg.ServiceName, cfg.Version)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return p, nil
}

// NewWithExporter creates a provider that sends spans synchronously to
// exporter. It does not touch the global tracer provider.
func NewWithExporter(exporter sdktrace.SpanExporter, serviceName, version string) (*Provider, error) {
	if serviceName == "" {
		serviceName = "srip"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	return &Provider{tp: tp, tracer: tp.Tracer(InstrumentationName)}, nil
}

// Tracer returns the pipeline tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

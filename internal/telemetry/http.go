package telemetry

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProvider returns the provider backing Tracer. The none exporter
// yields a no-op provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p.tp == nil {
		return noop.NewTracerProvider()
	}
	return p.tp
}

// HTTPMiddleware returns middleware that opens a server span per request.
// Requests whose path is in excluded are not traced.
func (p *Provider) HTTPMiddleware(operation string, excluded ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(excluded))
	for _, path := range excluded {
		skip[path] = true
	}
	opts := []otelhttp.Option{
		otelhttp.WithTracerProvider(p.TracerProvider()),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.Path
		}),
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation, opts...)
	}
}

// HTTPClient returns a client whose requests carry client spans and
// propagate trace context. A nil base uses http.DefaultTransport.
func (p *Provider) HTTPClient(base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(base, otelhttp.WithTracerProvider(p.TracerProvider())),
	}
}

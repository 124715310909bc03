package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHTTPMiddleware_TracesAndSkips(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	p, err := NewWithExporter(exporter, "srip-test", "test")
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}

	handler := p.HTTPMiddleware("srip", "/health")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, path := range []string{"/health", "/api/v1/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "HTTP GET /api/v1/metrics" {
		t.Errorf("span name = %q", spans[0].Name)
	}
}

func TestHTTPClient_WrapsTransport(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	p, err := NewWithExporter(exporter, "srip-test", "test")
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := p.HTTPClient(nil).Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if len(exporter.GetSpans()) != 1 {
		t.Errorf("client spans = %d, want 1", len(exporter.GetSpans()))
	}
}

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_NoneIsNoop(t *testing.T) {
	p, err := New(context.Background(), Config{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer should produce invalid span contexts")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	if _, err := New(context.Background(), Config{Exporter: "zipkin"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestNew_StdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(context.Background(), Config{Exporter: ExporterStdout, Writer: &buf, ServiceName: "srip-test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "pipeline.run")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("pipeline.run")) {
		t.Errorf("stdout exporter output missing span name: %s", buf.String())
	}
}

func TestNewWithExporter_RecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := NewWithExporter(exp, "", "test")
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	ctx, parent := p.Tracer().Start(context.Background(), "parent")
	_, child := p.Tracer().Start(ctx, "child")
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	if spans[0].Name != "child" || spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Errorf("child span not parented: %+v", spans[0])
	}
}

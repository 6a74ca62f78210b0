package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg.ServiceName != "nodegraph" {
		t.Fatalf("expected service name 'nodegraph', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{ServiceName: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	tp, err := InitTracing(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := Sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("Sampler(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

// recordSpans installs an in-memory provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartStoreSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartStoreSpan(context.Background(), "postgres", "save", "doc-1")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "store.save" {
		t.Errorf("unexpected span name %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status())
	}
	want := map[attribute.Key]string{
		"store.backend":   "postgres",
		"store.operation": "save",
		"document.id":     "doc-1",
	}
	for _, kv := range s.Attributes() {
		if v, ok := want[kv.Key]; ok && kv.Value.AsString() != v {
			t.Errorf("attribute %s = %q, want %q", kv.Key, kv.Value.AsString(), v)
		}
		delete(want, kv.Key)
	}
	if len(want) != 0 {
		t.Errorf("missing attributes: %v", want)
	}
}

func TestStartRequestSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartRequestSpan(context.Background(), "GET", "/graphs/:id")
	RecordError(span, nil)
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "GET /graphs/:id" {
		t.Fatalf("unexpected spans: %v", spans)
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("nil error should not mark the span")
	}
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

// logLine runs one Info call through a logger enriched from ctx and decodes
// the emitted JSON line.
func logLine(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	WithContext(ctx, NewWithWriter("wbradar", "info", &buf)).Info("crawl progress")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func spanContext(t *testing.T, traceHex, spanHex string) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex(traceHex)
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex(spanHex)
	require.NoError(t, err)
	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestNew_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("wbradar", "info", &buf).Info("starting")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "wbradar", out["service"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("wbradar", "warn", &buf)

	l.Info("suppressed")
	assert.Zero(t, buf.Len())

	l.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestWithContext_CorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-123")
	out := logLine(t, ctx)
	assert.Equal(t, "req-123", out["correlation_id"])
}

func TestWithContext_CrawlID(t *testing.T) {
	ctx := WithCrawlID(context.Background(), "crawl-789")
	out := logLine(t, ctx)
	assert.Equal(t, "crawl-789", out["crawl_id"])
}

func TestWithContext_TraceFields(t *testing.T) {
	ctx := spanContext(t, "4bf92f3577b34da6a3ce929d0e0e4736", "00f067aa0ba902b7")
	out := logLine(t, ctx)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestWithContext_EmptyContextAddsNothing(t *testing.T) {
	out := logLine(t, context.Background())
	assert.NotContains(t, out, "correlation_id")
	assert.NotContains(t, out, "crawl_id")
	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "span_id")
}

func TestWithContext_AllFields(t *testing.T) {
	ctx := spanContext(t, "abcdef1234567890abcdef1234567890", "1234567890abcdef")
	ctx = WithCorrelationID(ctx, "corr-all")
	ctx = WithCrawlID(ctx, "crawl-all")

	out := logLine(t, ctx)
	assert.Equal(t, "corr-all", out["correlation_id"])
	assert.Equal(t, "crawl-all", out["crawl_id"])
	assert.Equal(t, "abcdef1234567890abcdef1234567890", out["trace_id"])
	assert.Equal(t, "1234567890abcdef", out["span_id"])
}

func TestContextRoundTrips(t *testing.T) {
	assert.Equal(t, "corr-1", CorrelationIDFromContext(WithCorrelationID(context.Background(), "corr-1")))
	assert.Equal(t, "crawl-1", CrawlIDFromContext(WithCrawlID(context.Background(), "crawl-1")))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.Empty(t, CrawlIDFromContext(context.Background()))
}

func TestFromContext(t *testing.T) {
	l := NewWithWriter("wbradar", "info", &bytes.Buffer{})
	assert.Same(t, l, FromContext(NewContext(context.Background(), l)))
	assert.NotNil(t, FromContext(context.Background()))
}

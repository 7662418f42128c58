package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/pricepulse/wbradar/pkg/logger"
)

// runLogged sends one request through RequestLogger and decodes the single
// JSON line the handler emits via the context logger.
func runLogged(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := logger.NewWithWriter("wbradar", "info", &buf)

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("listing history")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil).WithContext(ctx)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotZero(t, buf.Len(), "handler should have logged through the context logger")
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRequestLogger_StoresLoggerInContext(t *testing.T) {
	var got *slog.Logger
	handler := RequestLogger(logger.NewWithWriter("wbradar", "info", &bytes.Buffer{}))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = logger.FromContext(r.Context())
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	require.NotNil(t, got)
	assert.NotEqual(t, slog.Default(), got)
}

func TestRequestLogger_IncludesCorrelationID(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-test-123")
	out := runLogged(t, ctx)
	assert.Equal(t, "corr-test-123", out["correlation_id"])
}

func TestRequestLogger_IncludesCrawlID(t *testing.T) {
	ctx := logger.WithCrawlID(context.Background(), "crawl-42")
	out := runLogged(t, ctx)
	assert.Equal(t, "crawl-42", out["crawl_id"])
}

func TestRequestLogger_IncludesTraceFields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	out := runLogged(t, ctx)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestRequestLogger_OmitsAbsentFields(t *testing.T) {
	out := runLogged(t, context.Background())
	assert.NotContains(t, out, "crawl_id")
	assert.NotContains(t, out, "correlation_id")
}

package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func breakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestCircuitBreaker_PassesThroughWhileClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"products":[{"id":211034621}]}}`))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(DefaultConfig()), breakerConfig("catalog-closed"), breakerLogger())

	resp, err := cb.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ServerErrorCountsAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream shard unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(DefaultConfig()), breakerConfig("catalog-5xx"), breakerLogger())

	_, err := cb.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 502")
	assert.Contains(t, err.Error(), "upstream shard unavailable")
}

func TestCircuitBreaker_TripsAfterFailureRatio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(DefaultConfig()), breakerConfig("catalog-trip"), breakerLogger())

	for i := 0; i < 3; i++ {
		_, err := cb.Get(context.Background(), server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	var mu sync.Mutex
	failing := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := failing
		mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"products":[]}}`))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(DefaultConfig()), breakerConfig("catalog-recover"), breakerLogger())

	for i := 0; i < 3; i++ {
		_, _ = cb.Get(context.Background(), server.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	mu.Lock()
	failing = false
	mu.Unlock()
	time.Sleep(80 * time.Millisecond)

	resp, err := cb.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_TransportErrorCountsAsFailure(t *testing.T) {
	cb := NewCircuitBreakerClient(
		New(Config{Timeout: 50 * time.Millisecond, MaxConnsPerHost: 1}),
		breakerConfig("catalog-transport"), breakerLogger())

	for i := 0; i < 3; i++ {
		_, err := cb.Get(context.Background(), "http://127.0.0.1:1/catalog")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

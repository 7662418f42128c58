package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func allowlistProbe(cidrs []string, remoteAddr string) *httptest.ResponseRecorder {
	handler := IPAllowlist(cidrs, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil)
	req.RemoteAddr = remoteAddr
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   int
	}{
		{"loopback allowed", []string{"127.0.0.0/8"}, "127.0.0.1:12345", http.StatusOK},
		{"outside range denied", []string{"10.0.0.0/8"}, "192.168.1.1:12345", http.StatusForbidden},
		{"second range matches", []string{"10.0.0.0/8", "172.16.0.0/12"}, "172.16.4.2:9000", http.StatusOK},
		{"empty allowlist denies all", nil, "127.0.0.1:12345", http.StatusForbidden},
		{"unparseable remote denied", []string{"0.0.0.0/0"}, "not-an-address", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := allowlistProbe(tt.cidrs, tt.remote)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIPAllowlist_DeniedBodyShape(t *testing.T) {
	rec := allowlistProbe([]string{"10.0.0.0/8"}, "203.0.113.7:44123")
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body, "error")
}

func TestIPAllowlist_SkipsInvalidCIDR(t *testing.T) {
	// The malformed entry is dropped; the valid one still admits traffic.
	rec := allowlistProbe([]string{"bogus-cidr", "127.0.0.0/8"}, "127.0.0.1:5000")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:50000"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.7:50000"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

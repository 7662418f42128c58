// Package middleware holds the chi middleware chain for the read API:
// request logging with correlation IDs, Prometheus metrics, OpenTelemetry
// spans, panic recovery, CORS, and an IP-allowlisted pprof mount.
package middleware

import (
	"encoding/json"
	"net/http"
)

// statusWriter captures the status code and body size of a response. All
// middleware in this package share it so a request is wrapped consistently
// regardless of chain order.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func wrap(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// writeErrorJSON emits the same error envelope the handlers use, for
// middleware that rejects a request before it reaches them.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

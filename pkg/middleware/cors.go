package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware. The API is read-only, so the
// defaults only admit GET and preflight.
type CORSConfig struct {
	// AllowedOrigins lists acceptable origins. A "*" entry allows any
	// origin, which is only sane in development.
	AllowedOrigins []string

	// AllowedMethods defaults to GET, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Accept, Content-Type, X-Correlation-ID.
	AllowedHeaders []string

	// ExposedHeaders lists response headers the browser may read.
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds; 0 means 3600.
	MaxAge int

	// AllowCredentials permits cookies and auth headers cross-origin.
	AllowCredentials bool

	// Environment gates the wildcard: "development" implies it even when
	// AllowedOrigins doesn't contain "*".
	Environment string
}

// DefaultCORSConfig returns the development configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         3600,
		Environment:    "development",
	}
}

// corsHeaders holds the precomputed header values; they never vary per
// request except for the origin itself.
type corsHeaders struct {
	methods     string
	headers     string
	exposed     string
	maxAge      string
	credentials bool
	wildcard    bool
	origins     map[string]struct{}
}

func newCORSHeaders(cfg CORSConfig) corsHeaders {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Accept", "Content-Type", "X-Correlation-ID"}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	h := corsHeaders{
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:      strconv.Itoa(cfg.MaxAge),
		credentials: cfg.AllowCredentials,
		wildcard:    cfg.Environment == "development",
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			h.wildcard = true
		}
		h.origins[o] = struct{}{}
	}
	return h
}

// CORS sets Cross-Origin Resource Sharing headers and short-circuits
// preflight requests with 204. Non-allowed origins still reach the
// handler; withholding the Allow-Origin header is what makes the browser
// block the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	h := newCORSHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := w.Header()

			switch origin := r.Header.Get("Origin"); {
			case h.wildcard:
				out.Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := h.origins[origin]; ok {
					out.Set("Access-Control-Allow-Origin", origin)
					out.Set("Vary", "Origin")
				}
			}

			out.Set("Access-Control-Allow-Methods", h.methods)
			out.Set("Access-Control-Allow-Headers", h.headers)
			if h.exposed != "" {
				out.Set("Access-Control-Expose-Headers", h.exposed)
			}
			out.Set("Access-Control-Max-Age", h.maxAge)
			if h.credentials {
				out.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package api exposes the document service as a JSON HTTP API.
//
// Route structure:
//
//	GET  /health  →  liveness probe (outside middleware)
//	GET  /ready   →  readiness probe (outside middleware)
//	POST /add     →  store and index a document
//	POST /search  →  nearest-neighbor query
package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncmind/syncmind/internal/log"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      log.Logger
	Service     DocumentService // Required
	Pool        *pgxpool.Pool   // Optional: nil makes /ready report not ready
	CORSOrigins []string        // Allowed origins for CORS
	TrustProxy  bool            // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int             // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("document service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	dh := &documentHandler{svc: cfg.Service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add", dh.add)
	mux.HandleFunc("POST /search", dh.search)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack (outermost first):
	//   Recovery → Logging → CORS → RateLimit → Routes
	// CORS must be before RateLimit so preflight OPTIONS gets proper
	// CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux separates health probes from the middleware stack.
	hh := &healthHandler{pool: cfg.Pool, logger: logger}
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", hh.liveness)
	topMux.HandleFunc("GET /ready", hh.readiness)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

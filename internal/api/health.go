package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/syncmind/syncmind/internal/log"
)

// healthHandler handles health check endpoints.
type healthHandler struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *healthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness is a readiness probe endpoint.
// Performs an actual health check by pinging the database.
func (h *healthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database pool not configured")
		return
	}
	if err := h.pool.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "not_ready", "database not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Database states reported by /api/health.
const (
	DatabaseConnected    = "Connected"
	DatabaseDisconnected = "Disconnected"
	DatabaseError        = "Error"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Version   string    `json:"version"`
}

// HealthHandler answers GET /api/health. A nil db reports Disconnected.
type HealthHandler struct {
	db      Pinger
	version string
	logger  *slog.Logger
	now     func() time.Time
}

func NewHealthHandler(db Pinger, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, version: version, logger: logger, now: time.Now}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC(),
		Database:  DatabaseConnected,
		Version:   h.version,
	}
	status := http.StatusOK

	switch {
	case h.db == nil:
		resp.Database = DatabaseDisconnected
	default:
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error("health check: database ping failed", slog.String("error", err.Error()))
			resp.Database = DatabaseError
		}
	}
	if resp.Database != DatabaseConnected {
		resp.Status = "ERROR"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/exam-ide/internal/service"
)

// StatusHandler serves the read-only endpoints that describe the server.
type StatusHandler struct {
	svc    *service.ExecutionService
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.ExecutionService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger, now: time.Now}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	InFlight  int64     `json:"inflight"`
}

// HandleHealth reports liveness and current load.
//
// HTTP: GET /health
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		InFlight:  h.svc.InFlight(),
	})
}

// HandleLanguages lists the enabled languages and accepted synonyms.
//
// HTTP: GET /api/languages
func (h *StatusHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Catalog())
}

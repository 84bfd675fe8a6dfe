package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tush00nka/filehub/internal/pkg/httputils"
	"tush00nka/filehub/internal/ws"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type StorageChecker interface {
	HealthCheck(ctx context.Context) error
}

type HubStats interface {
	Stats() ws.Stats
}

type HealthHandler struct {
	db      Pinger
	storage StorageChecker
	hub     HubStats
	log     *slog.Logger
}

func NewHealthHandler(db Pinger, storage StorageChecker, hub HubStats, log *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, storage: storage, hub: hub, log: log}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.health).Methods("GET")
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Database  string   `json:"database"`
	Storage   string   `json:"storage"`
	WebSocket ws.Stats `json:"websocket"`
}

// @Summary Health check
// @Description Reports database, object storage and websocket hub state
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "up", Storage: "up"}

	if err := h.db.PingContext(ctx); err != nil {
		h.log.WarnContext(ctx, "database health check failed", "err", err)
		resp.Database = "down"
		resp.Status = "degraded"
	}
	if err := h.storage.HealthCheck(ctx); err != nil {
		h.log.WarnContext(ctx, "storage health check failed", "err", err)
		resp.Storage = "down"
		resp.Status = "degraded"
	}
	if h.hub != nil {
		resp.WebSocket = h.hub.Stats()
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputils.ResponseJSON(w, status, resp)
}

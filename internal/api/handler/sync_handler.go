package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/ricirt/offline-sync/internal/api/middleware"
	"github.com/ricirt/offline-sync/internal/service"
)

// SyncHandler exposes the manual trigger, connectivity events and the status
// view used by badges and debug panels.
type SyncHandler struct {
	svc    *service.SyncService
	logger *zap.Logger
}

func NewSyncHandler(svc *service.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, logger: logger}
}

// Trigger handles POST /api/v1/sync
//
// @Summary  Request a sync pass
// @Tags     sync
// @Produce  json
// @Success  202  {object}  map[string]bool
// @Router   /api/v1/sync [post]
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	started := h.svc.TriggerSync()
	h.logger.Info("manual sync requested",
		zap.Bool("started", started),
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
	)
	respondJSON(w, http.StatusAccepted, map[string]bool{"started": started})
}

type connectivityRequest struct {
	Reachable *bool `json:"reachable"`
}

// Connectivity handles POST /api/v1/connectivity
//
// @Summary  Report a connectivity change observed by the host
// @Tags     sync
// @Accept   json
// @Produce  json
// @Success  200  {object}  map[string]bool
// @Failure  400  {object}  map[string]string
// @Router   /api/v1/connectivity [post]
func (h *SyncHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reachable == nil {
		respondError(w, http.StatusBadRequest, `body must be {"reachable": true|false}`)
		return
	}

	changed := h.svc.SetConnectivity(*req.Reachable)
	respondJSON(w, http.StatusOK, map[string]bool{
		"reachable": *req.Reachable,
		"changed":   changed,
	})
}

// Status handles GET /api/v1/status
//
// @Summary  Pending count, connectivity and pass state
// @Tags     sync
// @Produce  json
// @Success  200  {object}  service.Status
// @Router   /api/v1/status [get]
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Status())
}

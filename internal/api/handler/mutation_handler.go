package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/ricirt/offline-sync/internal/api/middleware"
	"github.com/ricirt/offline-sync/internal/domain"
	"github.com/ricirt/offline-sync/internal/service"
)

// MutationHandler is the producer surface: enqueue and inspect the log.
type MutationHandler struct {
	svc    *service.SyncService
	logger *zap.Logger
}

func NewMutationHandler(svc *service.SyncService, logger *zap.Logger) *MutationHandler {
	return &MutationHandler{svc: svc, logger: logger}
}

// Enqueue handles POST /api/v1/mutations
//
// @Summary     Enqueue a mutation
// @Tags        mutations
// @Accept      json
// @Produce     json
// @Param       body  body      domain.EnqueueRequest  true  "Mutation"
// @Success     201   {object}  domain.MutationRecord
// @Failure     422   {object}  map[string]string
// @Failure     503   {object}  map[string]string
// @Router      /api/v1/mutations [post]
func (h *MutationHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.svc.Enqueue(r.Context(), req)
	if err != nil {
		h.logger.Warn("enqueue mutation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// List handles GET /api/v1/mutations
//
// @Summary  Snapshot of the whole log, synced records included
// @Tags     mutations
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/mutations [get]
func (h *MutationHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.svc.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"total": len(records),
	})
}

// Pending handles GET /api/v1/mutations/pending
func (h *MutationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"pending": h.svc.PendingCount()})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
)

type JobHandler struct {
	store  core.Store
	logger *zap.Logger
}

func NewJobHandler(store core.Store, logger *zap.Logger) *JobHandler {
	return &JobHandler{store: store, logger: logger}
}

type jobContentRequest struct {
	Description  string   `json:"description"`
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills"`
}

// UpdateContent rewrites a posting's embeddable fields. The stored embedding
// is invalidated in the same statement and recomputed by the backfill sweep.
func (h *JobHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !validID(jobID) {
		writeError(w, http.StatusBadRequest, "job id must be a valid uuid")
		return
	}

	var req jobContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	if err := h.store.UpdateJobContent(r.Context(), jobID, req.Description, req.Requirements, req.Skills); err != nil {
		h.logger.Warn("job content update failed", zap.String("job_id", jobID), zap.Error(err))
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

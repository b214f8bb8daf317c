package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// SummaryApplier applies a summarized conversation onto profile and session.
type SummaryApplier interface {
	ApplySessionSummary(ctx context.Context, sessionID, chatSummary string, reqs *models.Preferences) error
}

type SessionHandler struct {
	profiles SummaryApplier
	logger   *zap.Logger
}

func NewSessionHandler(profiles SummaryApplier, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{profiles: profiles, logger: logger}
}

type sessionSummaryRequest struct {
	ChatSummary           string              `json:"chat_summary"`
	ExtractedRequirements *models.Preferences `json:"extracted_requirements"`
}

// ApplySummary is the hand-off point for the external chat service: it posts
// the conversation summary and extracted requirements once a session ends.
func (h *SessionHandler) ApplySummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !validID(sessionID) {
		writeError(w, http.StatusBadRequest, "session id must be a valid uuid")
		return
	}

	var req sessionSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.profiles.ApplySessionSummary(r.Context(), sessionID, req.ChatSummary, req.ExtractedRequirements); err != nil {
		h.logger.Warn("apply session summary failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": models.SessionStatusSummarized})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/core/matching"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// Matcher is the engine surface the HTTP layer needs; tests substitute fakes.
type Matcher interface {
	Match(ctx context.Context, req matching.MatchRequest) (*matching.MatchOutcome, error)
}

type MatchHandler struct {
	engine        Matcher
	store         core.Store
	defaultTopK   int
	minSimilarity float64
	logger        *zap.Logger
}

func NewMatchHandler(engine Matcher, store core.Store, defaultTopK int, minSimilarity float64, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		engine:        engine,
		store:         store,
		defaultTopK:   defaultTopK,
		minSimilarity: minSimilarity,
		logger:        logger,
	}
}

// RunMatch triggers a full matching run for a session and returns the ranked
// list. Omitted top_k and min_similarity fall back to configured defaults;
// explicit bad values are rejected by the engine.
func (h *MatchHandler) RunMatch(w http.ResponseWriter, r *http.Request) {
	var req matching.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validID(req.SessionID) {
		writeError(w, http.StatusBadRequest, "session_id must be a valid uuid")
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}
	if req.MinSimilarity == 0 {
		req.MinSimilarity = h.minSimilarity
	}

	outcome, err := h.engine.Match(r.Context(), req)
	if err != nil {
		h.logger.Warn("matching run failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// GetSessionMatches returns the currently stored ranking for a session. A
// session without stored results yields an empty list, not an error.
func (h *MatchHandler) GetSessionMatches(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !validID(sessionID) {
		writeError(w, http.StatusBadRequest, "session id must be a valid uuid")
		return
	}

	matches, err := h.store.GetMatchesBySession(r.Context(), sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if matches == nil {
		matches = []models.MatchResult{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

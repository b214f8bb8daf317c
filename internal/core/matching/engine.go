package matching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// MatchRequest is one matching invocation for a session.
type MatchRequest struct {
	SessionID     string  `json:"session_id"`
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
}

// MatchOutcome carries the persisted ranking plus best-effort prose
// explanations for the leading matches, keyed by job id. Explanations are
// produced after persistence; their absence never signals a failed run.
type MatchOutcome struct {
	Matches      []models.MatchResult `json:"matches"`
	Explanations map[string]string    `json:"explanations,omitempty"`
}

// Engine orchestrates one matching run:
// session → candidate → vector search → enhance → persist → explain.
// It holds no state between invocations; concurrent runs for different
// sessions are independent. Runs for the same session are last-writer-wins,
// so callers that need serialization must lock per session id themselves.
type Engine struct {
	store       core.Store
	enhancer    *Enhancer
	explainer   *Explainer
	explainTopN int
	logger      *zap.Logger
}

func NewEngine(store core.Store, explainer *Explainer, explainTopN int, logger *zap.Logger) *Engine {
	return &Engine{
		store:       store,
		enhancer:    NewEnhancer(store),
		explainer:   explainer,
		explainTopN: explainTopN,
		logger:      logger,
	}
}

// Match runs the full pipeline. Every step that affects the persisted ranking
// fails fast; only the explanation step is absorbed. Persistence happens once
// at the end, so an aborted run leaves the previous ranking untouched.
func (e *Engine) Match(ctx context.Context, req MatchRequest) (*MatchOutcome, error) {
	if req.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", req.TopK, core.ErrInvalidArgument)
	}
	start := time.Now()

	session, err := e.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	candidate, err := e.store.GetCandidate(ctx, session.CandidateID)
	if err != nil {
		return nil, err
	}

	if len(candidate.ProfileEmbedding) == 0 && len(session.ChatEmbedding) == 0 {
		return nil, fmt.Errorf("session %s has no profile or chat embedding: %w", session.ID, core.ErrInsufficientData)
	}

	hits, err := e.store.SearchJobs(ctx, core.SearchQuery{
		ProfileVector: candidate.ProfileEmbedding,
		ChatVector:    session.ChatEmbedding,
		ActiveOnly:    true,
		MinSimilarity: req.MinSimilarity,
		Limit:         req.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w: %v", core.ErrBackendUnavailable, err)
	}

	matches, err := e.enhancer.Enhance(ctx, hits, session, candidate, req.TopK)
	if err != nil {
		return nil, err
	}

	// An empty set is still persisted: clearing stale results is meaningful.
	if err := e.store.ReplaceMatches(ctx, session.ID, matches); err != nil {
		return nil, fmt.Errorf("replace matches for session %s: %w: %v", session.ID, core.ErrPersistenceFailure, err)
	}

	outcome := &MatchOutcome{Matches: matches}
	outcome.Explanations = e.explainTop(ctx, matches, candidate, session)

	e.logger.Info("matching run complete",
		zap.String("session_id", session.ID),
		zap.Int("raw_hits", len(hits)),
		zap.Int("matches", len(matches)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcome, nil
}

// explainTop produces prose for the first explainTopN matches. Any failure in
// here is absorbed; the ranking is already persisted.
func (e *Engine) explainTop(ctx context.Context, matches []models.MatchResult, candidate *models.CandidateProfile, session *models.ConsultationSession) map[string]string {
	if e.explainer == nil || e.explainTopN <= 0 || len(matches) == 0 {
		return nil
	}

	n := e.explainTopN
	if n > len(matches) {
		n = len(matches)
	}
	ids := make([]string, 0, n)
	for _, m := range matches[:n] {
		ids = append(ids, m.JobID)
	}

	jobs, err := e.store.GetJobsByIDs(ctx, ids)
	if err != nil {
		e.logger.Warn("skipping explanations, job fetch failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return nil
	}

	out := make(map[string]string, len(jobs))
	for i := range jobs {
		out[jobs[i].ID] = e.explainer.Explain(ctx, &jobs[i], candidate, session)
	}
	return out
}

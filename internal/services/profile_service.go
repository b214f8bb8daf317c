package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/core/matching"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// ProfileService applies a summarized consultation back onto the candidate:
// skills merge additively, requirements land on the session, and both
// embeddings are recomputed through the feature encoder.
type ProfileService struct {
	store    core.Store
	embedder core.EmbeddingProvider
	logger   *zap.Logger
}

func NewProfileService(store core.Store, embedder core.EmbeddingProvider, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, embedder: embedder, logger: logger}
}

// ApplySessionSummary stores the chat summary and extracted requirements for
// a session, merges required skills into the candidate profile as a set union
// and marks the session summarized. Embeddings for both sides are computed in
// a single batch call.
func (s *ProfileService) ApplySessionSummary(ctx context.Context, sessionID, chatSummary string, reqs *models.Preferences) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	candidate, err := s.store.GetCandidate(ctx, session.CandidateID)
	if err != nil {
		return err
	}

	chatText, err := matching.EncodeProfile(chatSummary, reqs)
	if err != nil {
		return fmt.Errorf("session summary is empty: %w", core.ErrInvalidArgument)
	}

	profileSummary := candidate.ProfileSummary
	if chatSummary != "" {
		profileSummary = chatSummary
	}
	var merged []string
	if reqs != nil {
		merged = mergeSkills(candidate.SkillsExtracted, reqs.RequiredSkills)
	} else {
		merged = candidate.SkillsExtracted
	}

	texts := []string{chatText}
	profileText, encErr := matching.EncodeProfile(profileSummary, &candidate.Preferences)
	if encErr == nil {
		texts = append(texts, profileText)
	}

	vecs, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed session summary: %w: %v", core.ErrBackendUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embed size mismatch: got %d want %d: %w", len(vecs), len(texts), core.ErrBackendUnavailable)
	}

	chatVec := vecs[0]
	profileVec := candidate.ProfileEmbedding // keep the old vector if nothing encodable changed
	if encErr == nil {
		profileVec = vecs[1]
	}

	if err := s.store.UpdateCandidateSummary(ctx, candidate.ID, profileSummary, merged, profileVec); err != nil {
		return fmt.Errorf("update candidate %s: %w", candidate.ID, err)
	}
	if err := s.store.UpdateSessionSummary(ctx, session.ID, chatSummary, reqs, chatVec, models.SessionStatusSummarized); err != nil {
		return fmt.Errorf("update session %s: %w", session.ID, err)
	}

	s.logger.Info("session summary applied",
		zap.String("session_id", session.ID),
		zap.String("candidate_id", candidate.ID),
		zap.Int("skills", len(merged)),
	)
	return nil
}

// mergeSkills unions two skill lists, case-insensitively deduplicated,
// preserving first-seen order and casing.
func mergeSkills(existing, incoming []string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, list := range [][]string{existing, incoming} {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, strings.TrimSpace(s))
		}
	}
	return merged
}

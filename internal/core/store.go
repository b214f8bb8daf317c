package core

import (
	"context"

	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// SearchQuery describes one vector search over active job postings. At least
// one of ProfileVector and ChatVector must be set; when both are present the
// store combines their similarities (profile-weighted) before ranking.
type SearchQuery struct {
	ProfileVector []float32
	ChatVector    []float32
	ActiveOnly    bool
	MinSimilarity float64
	Limit         int
}

// SearchHit is one raw nearest-neighbor result, similarity normalized to [0,1].
type SearchHit struct {
	JobID      string
	Similarity float64
}

// Store defines all persistence the matching engine needs. It abstracts
// Postgres/pgvector so higher layers never depend on a specific DB, and it
// declares exactly the columns it reads: schema adaptation belongs here, not
// in retry branches upstream.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.ConsultationSession, error)
	GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error)

	GetJobsByIDs(ctx context.Context, ids []string) ([]models.JobPosting, error)
	SearchJobs(ctx context.Context, q SearchQuery) ([]SearchHit, error)

	// ReplaceMatches atomically swaps the stored ranking for a session.
	// Callers never observe old and new rows mixed. An empty slice still
	// clears previous results.
	ReplaceMatches(ctx context.Context, sessionID string, matches []models.MatchResult) error
	GetMatchesBySession(ctx context.Context, sessionID string) ([]models.MatchResult, error)

	ListJobsMissingEmbedding(ctx context.Context, limit int) ([]models.JobPosting, error)
	SetJobEmbedding(ctx context.Context, jobID string, embedding []float32) error
	// UpdateJobContent rewrites the embeddable fields and clears the stored
	// embedding in the same statement, so stale vectors can never be searched.
	UpdateJobContent(ctx context.Context, jobID, description, requirements string, skills []string) error

	UpdateCandidateSummary(ctx context.Context, id, profileSummary string, skills []string, embedding []float32) error
	UpdateSessionSummary(ctx context.Context, id, chatSummary string, requirements *models.Preferences, embedding []float32, status string) error

	Close() error
}

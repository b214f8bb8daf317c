package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/careerpilot-ai/careerpilot/internal/config"
	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// DatabaseClient implements core.Store on Postgres with pgvector.
type DatabaseClient struct {
	pool *pgxpool.Pool
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = 20
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 10 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{pool: pool}, nil
}

func (c *DatabaseClient) Close() error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

func (c *DatabaseClient) GetSession(ctx context.Context, id string) (*models.ConsultationSession, error) {
	const q = `
		SELECT id, candidate_id, status, chat_summary, chat_embedding, extracted_requirements, created_at, updated_at
		FROM consultation_sessions WHERE id = $1
	`
	var (
		s    models.ConsultationSession
		emb  *pgvector.Vector
		reqs *models.Preferences
	)
	err := c.pool.QueryRow(ctx, q, id).Scan(
		&s.ID, &s.CandidateID, &s.Status, &s.ChatSummary, &emb, &reqs, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if emb != nil {
		s.ChatEmbedding = emb.Slice()
	}
	s.ExtractedRequirements = reqs
	return &s, nil
}

func (c *DatabaseClient) GetCandidate(ctx context.Context, id string) (*models.CandidateProfile, error) {
	const q = `
		SELECT id, name, email, cv_summary, profile_summary, profile_embedding, skills_extracted, preferences, created_at, updated_at
		FROM candidate_profiles WHERE id = $1
	`
	var (
		p   models.CandidateProfile
		emb *pgvector.Vector
	)
	err := c.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.CVSummary, &p.ProfileSummary, &emb, &p.SkillsExtracted, &p.Preferences, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if emb != nil {
		p.ProfileEmbedding = emb.Slice()
	}
	return &p, nil
}

// GetJobsByIDs loads the named jobs in one round trip. Unknown ids are simply
// absent from the result, never an error.
func (c *DatabaseClient) GetJobsByIDs(ctx context.Context, ids []string) ([]models.JobPosting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, company_name, job_title, department, description, requirements, skills,
		       employment_type, location, salary_min, salary_max, salary_currency,
		       is_active, created_at, updated_at
		FROM job_postings WHERE id = ANY($1)
	`
	rows, err := c.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func scanJob(row pgx.Row) (*models.JobPosting, error) {
	var (
		j              models.JobPosting
		salMin, salMax *int
		salCur         *string
	)
	if err := row.Scan(
		&j.ID, &j.CompanyName, &j.JobTitle, &j.Department, &j.Description, &j.Requirements, &j.Skills,
		&j.EmploymentType, &j.Location, &salMin, &salMax, &salCur,
		&j.IsActive, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if salMin != nil || salMax != nil {
		sr := &models.SalaryRange{Currency: "JPY"}
		if salMin != nil {
			sr.Min = *salMin
		}
		if salMax != nil {
			sr.Max = *salMax
		}
		if salCur != nil {
			sr.Currency = *salCur
		}
		j.Salary = sr
	}
	return &j, nil
}

// SearchJobs runs the nearest-neighbor query inside Postgres. With both query
// vectors present the similarities are combined 0.6 profile / 0.4 chat before
// ranking; cosine distance is mapped to a [0,1] similarity and clamped.
func (c *DatabaseClient) SearchJobs(ctx context.Context, q core.SearchQuery) ([]core.SearchHit, error) {
	var (
		expr string
		args []any
	)
	switch {
	case len(q.ProfileVector) > 0 && len(q.ChatVector) > 0:
		expr = `0.6 * (1 - (embedding <=> $1)) + 0.4 * (1 - (embedding <=> $2))`
		args = append(args, pgvector.NewVector(q.ProfileVector), pgvector.NewVector(q.ChatVector))
	case len(q.ProfileVector) > 0:
		expr = `1 - (embedding <=> $1)`
		args = append(args, pgvector.NewVector(q.ProfileVector))
	case len(q.ChatVector) > 0:
		expr = `1 - (embedding <=> $1)`
		args = append(args, pgvector.NewVector(q.ChatVector))
	default:
		return nil, fmt.Errorf("search without query vectors: %w", core.ErrInvalidArgument)
	}

	where := `embedding IS NOT NULL`
	if q.ActiveOnly {
		where += ` AND is_active = TRUE`
	}

	args = append(args, q.MinSimilarity)
	minArg := len(args)
	args = append(args, q.Limit)
	limitArg := len(args)

	sql := fmt.Sprintf(`
		SELECT id, similarity FROM (
			SELECT id, GREATEST(0, LEAST(1, %s))::float8 AS similarity
			FROM job_postings
			WHERE %s
		) ranked
		WHERE similarity >= $%d
		ORDER BY similarity DESC, id ASC
		LIMIT $%d
	`, expr, where, minArg, limitArg)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SearchHit
	for rows.Next() {
		var h core.SearchHit
		if err := rows.Scan(&h.JobID, &h.Similarity); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ReplaceMatches swaps the stored ranking for a session in one transaction, so
// readers never observe old and new rows mixed. An empty slice still clears
// previous results.
func (c *DatabaseClient) ReplaceMatches(ctx context.Context, sessionID string, matches []models.MatchResult) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM match_results WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}

	if len(matches) > 0 {
		const ins = `
			INSERT INTO match_results (session_id, job_id, similarity_score, match_reason, ranking, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
		`
		batch := &pgx.Batch{}
		for i := range matches {
			m := &matches[i]
			batch.Queue(ins, sessionID, m.JobID, m.SimilarityScore, m.MatchReason, m.Ranking)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (c *DatabaseClient) GetMatchesBySession(ctx context.Context, sessionID string) ([]models.MatchResult, error) {
	const q = `
		SELECT session_id, job_id, similarity_score, match_reason, ranking, created_at
		FROM match_results
		WHERE session_id = $1
		ORDER BY ranking ASC
	`
	rows, err := c.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MatchResult
	for rows.Next() {
		var m models.MatchResult
		if err := rows.Scan(&m.SessionID, &m.JobID, &m.SimilarityScore, &m.MatchReason, &m.Ranking, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListJobsMissingEmbedding(ctx context.Context, limit int) ([]models.JobPosting, error) {
	const q = `
		SELECT id, company_name, job_title, department, description, requirements, skills,
		       employment_type, location, salary_min, salary_max, salary_currency,
		       is_active, created_at, updated_at
		FROM job_postings
		WHERE embedding IS NULL AND is_active = TRUE
		ORDER BY updated_at ASC
		LIMIT $1
	`
	rows, err := c.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) SetJobEmbedding(ctx context.Context, jobID string, embedding []float32) error {
	const q = `
		UPDATE job_postings
		SET embedding = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := c.pool.Exec(ctx, q, jobID, pgvector.NewVector(embedding))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", jobID, core.ErrNotFound)
	}
	return nil
}

// UpdateJobContent rewrites the embeddable fields and clears the embedding in
// the same statement; the backfill sweep recomputes it later.
func (c *DatabaseClient) UpdateJobContent(ctx context.Context, jobID, description, requirements string, skills []string) error {
	const q = `
		UPDATE job_postings
		SET description = $2, requirements = $3, skills = $4, embedding = NULL, updated_at = now()
		WHERE id = $1
	`
	tag, err := c.pool.Exec(ctx, q, jobID, description, requirements, skills)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", jobID, core.ErrNotFound)
	}
	return nil
}

// UpdateCandidateSummary stores the merged skill set and the freshly computed
// profile embedding. The caller performs the union; this is a plain write.
func (c *DatabaseClient) UpdateCandidateSummary(ctx context.Context, id, profileSummary string, skills []string, embedding []float32) error {
	const q = `
		UPDATE candidate_profiles
		SET profile_summary = $2, skills_extracted = $3, profile_embedding = $4, updated_at = now()
		WHERE id = $1
	`
	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	tag, err := c.pool.Exec(ctx, q, id, profileSummary, skills, vec)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) UpdateSessionSummary(ctx context.Context, id, chatSummary string, requirements *models.Preferences, embedding []float32, status string) error {
	const q = `
		UPDATE consultation_sessions
		SET chat_summary = $2, extracted_requirements = $3, chat_embedding = $4, status = $5, updated_at = now()
		WHERE id = $1
	`
	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	tag, err := c.pool.Exec(ctx, q, id, chatSummary, requirements, vec, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	return nil
}

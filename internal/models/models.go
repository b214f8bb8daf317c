package models

import (
	"time"
)

// SalaryRange is an annual salary band in the posting's currency (JPY unless stated).
type SalaryRange struct {
	Min      int    `db:"salary_min" json:"min"`
	Max      int    `db:"salary_max" json:"max"`
	Currency string `db:"salary_currency" json:"currency"`
}

// Preferences captures what a candidate is looking for. The same shape is used
// for requirements extracted from a consultation session; when a session has
// been summarized, its extracted requirements take precedence over the
// profile-level preferences.
type Preferences struct {
	DesiredRole       string   `json:"desired_role,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	Location          string   `json:"location,omitempty"`
	SalaryExpectation string   `json:"salary_expectation,omitempty"` // free text, man-en convention (e.g. "600万円")
	WorkStyle         string   `json:"work_style,omitempty"`
	Concerns          string   `json:"concerns,omitempty"`
	RequiredSkills    []string `json:"required_skills,omitempty"`
}

// JobPosting represents an imported job opening. The embedding is derived from
// the encoded posting text and cleared whenever description or skills change,
// so a NULL embedding means "needs re-embedding".
type JobPosting struct {
	ID             string       `db:"id" json:"id"`
	CompanyName    string       `db:"company_name" json:"company_name"`
	JobTitle       string       `db:"job_title" json:"job_title"`
	Department     string       `db:"department" json:"department,omitempty"`
	Description    string       `db:"description" json:"description"`
	Requirements   string       `db:"requirements" json:"requirements,omitempty"`
	Skills         []string     `db:"skills" json:"skills"`
	EmploymentType string       `db:"employment_type" json:"employment_type,omitempty"`
	Location       string       `db:"location" json:"location,omitempty"`
	Salary         *SalaryRange `json:"salary_range,omitempty"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	Embedding      []float32    `db:"embedding" json:"-"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// CandidateProfile is the persistent view of one candidate. SkillsExtracted
// grows by set union when sessions are summarized, never by overwrite.
type CandidateProfile struct {
	ID               string      `db:"id" json:"id"`
	Name             string      `db:"name" json:"name"`
	Email            string      `db:"email" json:"email"`
	CVSummary        string      `db:"cv_summary" json:"cv_summary,omitempty"`
	ProfileSummary   string      `db:"profile_summary" json:"profile_summary,omitempty"`
	ProfileEmbedding []float32   `db:"profile_embedding" json:"-"`
	SkillsExtracted  []string    `db:"skills_extracted" json:"skills_extracted"`
	Preferences      Preferences `db:"preferences" json:"preferences"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// Session lifecycle states.
const (
	SessionStatusActive     = "active"
	SessionStatusCompleted  = "completed"
	SessionStatusTimeout    = "timeout"
	SessionStatusSummarized = "summarized"
)

// ConsultationSession is one advisor conversation for a candidate. A candidate
// may hold many sessions over time; only the most recent summarized one is
// authoritative for current requirements.
type ConsultationSession struct {
	ID                    string       `db:"id" json:"id"`
	CandidateID           string       `db:"candidate_id" json:"candidate_id"`
	Status                string       `db:"status" json:"status"`
	ChatSummary           string       `db:"chat_summary" json:"chat_summary,omitempty"`
	ChatEmbedding         []float32    `db:"chat_embedding" json:"-"`
	ExtractedRequirements *Preferences `db:"extracted_requirements" json:"extracted_requirements,omitempty"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at" json:"updated_at"`
}

// MatchResult is one row of a session's ranked job list. For a given session
// the stored rankings are always a contiguous 1..N sequence and the whole set
// is replaced on every matching run.
type MatchResult struct {
	SessionID       string    `db:"session_id" json:"session_id"`
	JobID           string    `db:"job_id" json:"job_id"`
	SimilarityScore float64   `db:"similarity_score" json:"similarity_score"`
	MatchReason     string    `db:"match_reason" json:"match_reason"`
	Ranking         int       `db:"ranking" json:"ranking"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

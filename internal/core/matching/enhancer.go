package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// Similarity tier labels shown at the head of a match reason.
const (
	tierVeryHigh = "非常に高い適合度"
	tierHigh     = "高い適合度"

	reasonSkillPrefix   = "スキルマッチ: "
	reasonLocationMatch = "希望勤務地に対応"
	reasonSalaryMatch   = "希望年収に対応"
	reasonFallback      = "総合的な適合度による推薦"
)

// Enhancer turns raw similarity hits into a ranked, explained match list.
// Ordering is similarity-only; the auxiliary signals (skills, location,
// salary) feed the reason string, never the rank.
type Enhancer struct {
	store core.Store
}

func NewEnhancer(store core.Store) *Enhancer {
	return &Enhancer{store: store}
}

// Enhance sorts the raw hits (similarity descending, job id ascending on
// ties), keeps the top K, resolves the surviving jobs in one batch, and
// builds a deterministic reason per match. Hits whose job record no longer
// exists are dropped silently; a stale id must not break the whole ranking.
func (e *Enhancer) Enhance(ctx context.Context, raw []core.SearchHit, session *models.ConsultationSession, candidate *models.CandidateProfile, topK int) ([]models.MatchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", topK, core.ErrInvalidArgument)
	}
	if len(raw) == 0 {
		return []models.MatchResult{}, nil
	}

	sorted := make([]core.SearchHit, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		return sorted[i].JobID < sorted[j].JobID
	})
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	ids := make([]string, len(sorted))
	for i, h := range sorted {
		ids[i] = h.JobID
	}
	jobs, err := e.store.GetJobsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w: %v", core.ErrBackendUnavailable, err)
	}
	byID := make(map[string]*models.JobPosting, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID] = &jobs[i]
	}

	reqs := effectiveRequirements(session, candidate)
	candidateSkills := unionSkills(candidate, session)

	out := make([]models.MatchResult, 0, len(sorted))
	for _, hit := range sorted {
		job, ok := byID[hit.JobID]
		if !ok {
			continue
		}
		out = append(out, models.MatchResult{
			SessionID:       session.ID,
			JobID:           job.ID,
			SimilarityScore: hit.Similarity,
			MatchReason:     buildReason(hit.Similarity, job, reqs, candidateSkills),
			Ranking:         len(out) + 1,
		})
	}
	return out, nil
}

// effectiveRequirements prefers the session's extracted requirements; the
// latest conversation is authoritative over profile-level preferences.
func effectiveRequirements(session *models.ConsultationSession, candidate *models.CandidateProfile) *models.Preferences {
	if session != nil && session.ExtractedRequirements != nil {
		return session.ExtractedRequirements
	}
	if candidate != nil {
		return &candidate.Preferences
	}
	return nil
}

// unionSkills merges profile-extracted skills with the session's required
// skills, case-insensitively deduplicated, profile skills first.
func unionSkills(candidate *models.CandidateProfile, session *models.ConsultationSession) []string {
	var merged []string
	seen := make(map[string]bool)
	add := func(skills []string) {
		for _, s := range skills {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, strings.TrimSpace(s))
		}
	}
	if candidate != nil {
		add(candidate.SkillsExtracted)
	}
	if session != nil && session.ExtractedRequirements != nil {
		add(session.ExtractedRequirements.RequiredSkills)
	}
	return merged
}

// matchSkills returns the job skills that overlap the candidate's, using
// case-insensitive substring containment in both directions ("python" matches
// "Python", "AWS" matches "AWS Lambda"). Job order and casing are preserved
// so reasons stay deterministic.
func matchSkills(jobSkills, candidateSkills []string) []string {
	var matched []string
	for _, js := range jobSkills {
		jl := strings.ToLower(js)
		for _, cs := range candidateSkills {
			cl := strings.ToLower(cs)
			if strings.Contains(jl, cl) || strings.Contains(cl, jl) {
				matched = append(matched, js)
				break
			}
		}
	}
	return matched
}

// locationMatches reports whether the job satisfies a stated location
// preference: the job location contains the desired one, or the job is remote.
func locationMatches(jobLocation, desired string) bool {
	if desired == "" {
		return true
	}
	if strings.Contains(jobLocation, desired) {
		return true
	}
	return isRemote(jobLocation)
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.Contains(l, "remote") ||
		strings.Contains(location, "リモート") ||
		strings.Contains(location, "在宅")
}

// parseExpectedSalary parses a free-text salary expectation written in the
// Japanese man-en convention: digits are kept, everything else dropped, and
// the result is multiplied by 10,000 yen ("600万円" -> 6,000,000).
func parseExpectedSalary(s string) (int, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n := 0
	for _, r := range b.String() {
		n = n*10 + int(r-'0')
	}
	return n * 10000, true
}

// salaryMatches reports whether the job's minimum salary reaches at least 80%
// of the stated expectation. An expectation without digits carries no signal
// and never matches.
func salaryMatches(job *models.JobPosting, expectation string) bool {
	expected, ok := parseExpectedSalary(expectation)
	if !ok || job.Salary == nil {
		return false
	}
	return float64(job.Salary.Min) >= 0.8*float64(expected)
}

// buildReason concatenates the present signals in fixed order: similarity
// tier, matched skills, location, salary. Clauses for location and salary
// appear only when the corresponding preference was actually stated.
func buildReason(similarity float64, job *models.JobPosting, reqs *models.Preferences, candidateSkills []string) string {
	var clauses []string

	switch {
	case similarity >= 0.8:
		clauses = append(clauses, tierVeryHigh)
	case similarity >= 0.7:
		clauses = append(clauses, tierHigh)
	}

	if matched := matchSkills(job.Skills, candidateSkills); len(matched) > 0 {
		clauses = append(clauses, reasonSkillPrefix+strings.Join(matched, ", "))
	}

	if reqs != nil && reqs.Location != "" && locationMatches(job.Location, reqs.Location) {
		clauses = append(clauses, reasonLocationMatch)
	}
	if reqs != nil && reqs.SalaryExpectation != "" && salaryMatches(job, reqs.SalaryExpectation) {
		clauses = append(clauses, reasonSalaryMatch)
	}

	if len(clauses) == 0 {
		return reasonFallback
	}
	return strings.Join(clauses, "、")
}

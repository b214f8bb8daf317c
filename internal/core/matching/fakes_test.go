package matching

import (
	"context"
	"fmt"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

// fakeStore implements the slice of core.Store the engine touches. Unused
// methods come from the embedded nil interface and would panic if called.
type fakeStore struct {
	core.Store

	sessions   map[string]*models.ConsultationSession
	candidates map[string]*models.CandidateProfile
	jobs       map[string]models.JobPosting

	hits       []core.SearchHit
	searchErr  error
	jobsErr    error
	replaceErr error

	lastSearch   core.SearchQuery
	stored       map[string][]models.MatchResult
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:   map[string]*models.ConsultationSession{},
		candidates: map[string]*models.CandidateProfile{},
		jobs:       map[string]models.JobPosting{},
		stored:     map[string][]models.MatchResult{},
	}
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*models.ConsultationSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
	}
	return s, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, id string) (*models.CandidateProfile, error) {
	c, ok := f.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (f *fakeStore) GetJobsByIDs(_ context.Context, ids []string) ([]models.JobPosting, error) {
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	var out []models.JobPosting
	for _, id := range ids {
		if j, ok := f.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeStore) SearchJobs(_ context.Context, q core.SearchQuery) ([]core.SearchHit, error) {
	f.lastSearch = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeStore) ReplaceMatches(_ context.Context, sessionID string, matches []models.MatchResult) error {
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.stored[sessionID] = matches
	return nil
}

// fakeLLM returns canned prose or an error.
type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.answer, f.err
}

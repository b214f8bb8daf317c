package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/core/matching"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

const (
	testSessionID = "0d4f8f6a-9a9e-4a7a-bd0e-6a2f0c3f9b10"
	testJobID     = "7b1c2e3d-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
)

type fakeMatcher struct {
	gotReq  matching.MatchRequest
	outcome *matching.MatchOutcome
	err     error
}

func (f *fakeMatcher) Match(_ context.Context, req matching.MatchRequest) (*matching.MatchOutcome, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

type fakeStore struct {
	core.Store

	matches    []models.MatchResult
	matchesErr error

	updatedJobID string
	updateErr    error
}

func (f *fakeStore) GetMatchesBySession(_ context.Context, _ string) ([]models.MatchResult, error) {
	return f.matches, f.matchesErr
}

func (f *fakeStore) UpdateJobContent(_ context.Context, jobID, _, _ string, _ []string) error {
	f.updatedJobID = jobID
	return f.updateErr
}

type fakeProfiles struct {
	gotSessionID string
	gotSummary   string
	gotReqs      *models.Preferences
	err          error
}

func (f *fakeProfiles) ApplySessionSummary(_ context.Context, sessionID, chatSummary string, reqs *models.Preferences) error {
	f.gotSessionID = sessionID
	f.gotSummary = chatSummary
	f.gotReqs = reqs
	return f.err
}

func testRouter(engine Matcher, store core.Store, profiles SummaryApplier) *chi.Mux {
	logger := zap.NewNop()
	mh := NewMatchHandler(engine, store, 10, 0, logger)
	sh := NewSessionHandler(profiles, logger)
	jh := NewJobHandler(store, logger)

	r := chi.NewRouter()
	r.Post("/match", mh.RunMatch)
	r.Get("/sessions/{sessionID}/matches", mh.GetSessionMatches)
	r.Post("/sessions/{sessionID}/summary", sh.ApplySummary)
	r.Put("/jobs/{jobID}/content", jh.UpdateContent)
	return r
}

func TestRunMatch(t *testing.T) {
	engine := &fakeMatcher{outcome: &matching.MatchOutcome{
		Matches: []models.MatchResult{
			{SessionID: testSessionID, JobID: testJobID, SimilarityScore: 0.91, Ranking: 1, MatchReason: "非常に高い適合度"},
		},
	}}
	r := testRouter(engine, &fakeStore{}, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"session_id":"`+testSessionID+`","top_k":3}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testSessionID, engine.gotReq.SessionID)
	assert.Equal(t, 3, engine.gotReq.TopK)
	assert.Contains(t, rec.Body.String(), testJobID)
	assert.Contains(t, rec.Body.String(), "非常に高い適合度")
}

func TestRunMatch_DefaultTopK(t *testing.T) {
	engine := &fakeMatcher{outcome: &matching.MatchOutcome{}}
	r := testRouter(engine, &fakeStore{}, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"session_id":"`+testSessionID+`"}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, engine.gotReq.TopK, "omitted top_k falls back to the configured default")
}

func TestRunMatch_BadBody(t *testing.T) {
	engine := &fakeMatcher{}
	r := testRouter(engine, &fakeStore{}, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{not json`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunMatch_InvalidSessionID(t *testing.T) {
	for _, body := range []string{`{"top_k":5}`, `{"session_id":"not-a-uuid"}`} {
		r := testRouter(&fakeMatcher{}, &fakeStore{}, &fakeProfiles{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(body))
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestRunMatch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("session x: %w", core.ErrNotFound), http.StatusNotFound},
		{"insufficient data", fmt.Errorf("no embeddable text: %w", core.ErrInsufficientData), http.StatusUnprocessableEntity},
		{"invalid argument", fmt.Errorf("topK: %w", core.ErrInvalidArgument), http.StatusBadRequest},
		{"backend unavailable", fmt.Errorf("embed: %w", core.ErrBackendUnavailable), http.StatusBadGateway},
		{"persistence", fmt.Errorf("replace: %w", core.ErrPersistenceFailure), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testRouter(&fakeMatcher{err: tc.err}, &fakeStore{}, &fakeProfiles{})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"session_id":"`+testSessionID+`"}`))
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetSessionMatches(t *testing.T) {
	store := &fakeStore{matches: []models.MatchResult{
		{SessionID: testSessionID, JobID: testJobID, Ranking: 1, SimilarityScore: 0.8},
	}}
	r := testRouter(&fakeMatcher{}, store, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+testSessionID+"/matches", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testJobID)
}

func TestGetSessionMatches_Empty(t *testing.T) {
	r := testRouter(&fakeMatcher{}, &fakeStore{}, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+testSessionID+"/matches", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matches":[]`, "no stored run yields an empty list, not an error")
}

func TestApplySummary(t *testing.T) {
	profiles := &fakeProfiles{}
	r := testRouter(&fakeMatcher{}, &fakeStore{}, profiles)

	body := `{"chat_summary":"クラウド志向の転職相談","extracted_requirements":{"desired_role":"SRE"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+testSessionID+"/summary", strings.NewReader(body))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testSessionID, profiles.gotSessionID)
	assert.Equal(t, "クラウド志向の転職相談", profiles.gotSummary)
	require.NotNil(t, profiles.gotReqs)
	assert.Equal(t, "SRE", profiles.gotReqs.DesiredRole)
	assert.Contains(t, rec.Body.String(), models.SessionStatusSummarized)
}

func TestApplySummary_EmptySummaryRejected(t *testing.T) {
	profiles := &fakeProfiles{err: fmt.Errorf("empty: %w", core.ErrInvalidArgument)}
	r := testRouter(&fakeMatcher{}, &fakeStore{}, profiles)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+testSessionID+"/summary", strings.NewReader(`{}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateJobContent(t *testing.T) {
	store := &fakeStore{}
	r := testRouter(&fakeMatcher{}, store, &fakeProfiles{})

	body := `{"description":"新しい業務内容","skills":["Go"]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/jobs/"+testJobID+"/content", strings.NewReader(body))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testJobID, store.updatedJobID)
}

func TestUpdateJobContent_MissingDescription(t *testing.T) {
	r := testRouter(&fakeMatcher{}, &fakeStore{}, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/jobs/"+testJobID+"/content", strings.NewReader(`{"skills":["Go"]}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateJobContent_NotFound(t *testing.T) {
	store := &fakeStore{updateErr: fmt.Errorf("job x: %w", core.ErrNotFound)}
	r := testRouter(&fakeMatcher{}, store, &fakeProfiles{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/jobs/"+testJobID+"/content", strings.NewReader(`{"description":"d"}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

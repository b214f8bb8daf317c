package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

type fakeStore struct {
	core.Store

	mu      sync.Mutex
	pending []models.JobPosting
	written map[string][]float32
}

func newBackfillStore(jobs ...models.JobPosting) *fakeStore {
	return &fakeStore{pending: jobs, written: map[string][]float32{}}
}

func (f *fakeStore) ListJobsMissingEmbedding(_ context.Context, limit int) ([]models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobPosting
	for _, j := range f.pending {
		if _, done := f.written[j.ID]; done {
			continue
		}
		out = append(out, j)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SetJobEmbedding(_ context.Context, jobID string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[jobID] = embedding
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func job(id string) models.JobPosting {
	return models.JobPosting{ID: id, CompanyName: "Acme", JobTitle: "SWE", Description: "仕事内容 " + id}
}

func TestBackfillRun_EmbedsAllPending(t *testing.T) {
	store := newBackfillStore(job("j1"), job("j2"), job("j3"))
	emb := &fakeEmbedder{}

	n, err := NewBackfill(store, emb, 2, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, store.written, 3)
	assert.Equal(t, 2, emb.calls, "two batches of size 2 and 1")
}

func TestBackfillRun_NothingToDo(t *testing.T) {
	store := newBackfillStore()
	emb := &fakeEmbedder{}

	n, err := NewBackfill(store, emb, 4, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, emb.calls)
}

func TestBackfillRun_SkipsUnencodableWithoutSpinning(t *testing.T) {
	broken := models.JobPosting{ID: "broken"} // no company/title/description
	store := newBackfillStore(broken, job("ok"))

	n, err := NewBackfill(store, &fakeEmbedder{}, 10, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, store.written, "ok")
	assert.NotContains(t, store.written, "broken")
}

func TestBackfillRun_EmbedFailure(t *testing.T) {
	store := newBackfillStore(job("j1"))
	emb := &fakeEmbedder{err: errors.New("quota exceeded")}

	_, err := NewBackfill(store, emb, 4, zap.NewNop()).Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, store.written)
}

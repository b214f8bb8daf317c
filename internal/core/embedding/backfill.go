package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/careerpilot-ai/careerpilot/internal/core"
	"github.com/careerpilot-ai/careerpilot/internal/core/matching"
	"github.com/careerpilot-ai/careerpilot/internal/models"
)

const backfillTimeout = 5 * time.Minute

// Backfill sweeps job postings whose embedding is NULL (fresh imports, or
// rows invalidated by a content edit), encodes them, embeds them in batches
// and writes the vectors back.
type Backfill struct {
	store     core.Store
	embedder  core.EmbeddingProvider
	batchSize int
	logger    *zap.Logger
}

func NewBackfill(store core.Store, embedder core.EmbeddingProvider, batchSize int, logger *zap.Logger) *Backfill {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &Backfill{store: store, embedder: embedder, batchSize: batchSize, logger: logger}
}

// Run drains the missing-embedding queue batch by batch. It stops when a pass
// makes no progress, so postings that cannot be encoded do not spin the sweep;
// they are retried on the next scheduled run.
func (b *Backfill) Run(ctx context.Context) (int, error) {
	total := 0
	for {
		jobs, err := b.store.ListJobsMissingEmbedding(ctx, b.batchSize)
		if err != nil {
			return total, fmt.Errorf("list jobs missing embedding: %w", err)
		}
		if len(jobs) == 0 {
			return total, nil
		}

		done, err := b.embedBatch(ctx, jobs)
		total += done
		if err != nil {
			return total, err
		}
		if done == 0 || len(jobs) < b.batchSize {
			return total, nil
		}
	}
}

func (b *Backfill) embedBatch(ctx context.Context, jobs []models.JobPosting) (int, error) {
	texts := make([]string, 0, len(jobs))
	ids := make([]string, 0, len(jobs))
	for i := range jobs {
		text, err := matching.EncodeJob(&jobs[i])
		if err != nil {
			b.logger.Warn("skipping unencodable job posting",
				zap.String("job_id", jobs[i].ID),
				zap.Error(err),
			)
			continue
		}
		texts = append(texts, text)
		ids = append(ids, jobs[i].ID)
	}
	if len(texts) == 0 {
		return 0, nil
	}

	vecs, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed job batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return 0, fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(texts))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range ids {
		g.Go(func() error {
			return b.store.SetJobEmbedding(gctx, ids[i], vecs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("store job embeddings: %w", err)
	}
	return len(ids), nil
}

// Schedule starts a cron that runs the sweep on the given spec. The returned
// cron should be stopped on shutdown.
func (b *Backfill) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backfillTimeout)
		defer cancel()

		n, err := b.Run(ctx)
		if err != nil {
			b.logger.Error("embedding backfill sweep failed", zap.Int("embedded", n), zap.Error(err))
			return
		}
		if n > 0 {
			b.logger.Info("embedding backfill sweep complete", zap.Int("embedded", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule backfill: %w", err)
	}
	c.Start()
	return c, nil
}

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/core"
)

const cacheTTL = 7 * 24 * time.Hour

// CachedEmbedder fronts an EmbeddingProvider with a Redis cache keyed by the
// SHA-256 of the text. The feature encoder is deterministic, so identical
// content always maps to the same key. Cache trouble is never fatal: a Redis
// error just means every text goes to the provider.
type CachedEmbedder struct {
	inner  core.EmbeddingProvider
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCachedEmbedder(inner core.EmbeddingProvider, rdb *redis.Client, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, rdb: rdb, logger: logger}
}

func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(t)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Debug("embedding cache read failed", zap.Error(err))
		vals = make([]any, len(texts))
	}
	for i := range texts {
		raw, ok := vals[i].(string)
		if !ok {
			missing = append(missing, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil || len(vec) == 0 {
			missing = append(missing, i)
			continue
		}
		out[i] = vec
	}

	if len(missing) == 0 {
		return out, nil
	}

	missingTexts := make([]string, len(missing))
	for i, idx := range missing {
		missingTexts[i] = texts[idx]
	}
	vecs, err := c.inner.EmbedTexts(ctx, missingTexts)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for i, idx := range missing {
		out[idx] = vecs[i]
		if data, err := json.Marshal(vecs[i]); err == nil {
			pipe.Set(ctx, keys[idx], data, cacheTTL)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Debug("embedding cache write failed", zap.Error(err))
	}

	return out, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}

var _ core.EmbeddingProvider = (*CachedEmbedder)(nil)

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/config"
	"github.com/careerpilot-ai/careerpilot/internal/core"
	db "github.com/careerpilot-ai/careerpilot/internal/core/database"
	"github.com/careerpilot-ai/careerpilot/internal/core/embedding"
	"github.com/careerpilot-ai/careerpilot/internal/core/llm"
	"github.com/careerpilot-ai/careerpilot/internal/core/matching"
	"github.com/careerpilot-ai/careerpilot/internal/services"
)

type App struct {
	Store  core.Store
	Server *Server

	logger       *zap.Logger
	embedder     *llm.GeminiEmbedder
	llmProvider  *llm.GeminiLLM
	redisClient  *redis.Client
	backfillCron *cron.Cron
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}

	var provider core.EmbeddingProvider = geminiEmbedder
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Warn("redis unreachable, embedding cache disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			provider = embedding.NewCachedEmbedder(geminiEmbedder, redisClient, logger)
			logger.Info("embedding cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	explainer := matching.NewExplainer(llmProvider, logger)
	engine := matching.NewEngine(store, explainer, cfg.ExplainTopN, logger)
	profiles := services.NewProfileService(store, provider, logger)

	backfill := embedding.NewBackfill(store, provider, cfg.BackfillBatch, logger)
	backfillCron, err := backfill.Schedule(cfg.BackfillCronSpec)
	if err != nil {
		return nil, err
	}
	// one sweep right away so a fresh import doesn't wait for the first tick
	go func() {
		runCtx, runCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer runCancel()
		if n, err := backfill.Run(runCtx); err != nil {
			logger.Warn("startup embedding backfill failed", zap.Int("embedded", n), zap.Error(err))
		}
	}()

	server := NewServer(cfg, engine, profiles, store, logger)

	return &App{
		Store:        store,
		Server:       server,
		logger:       logger,
		embedder:     geminiEmbedder,
		llmProvider:  llmProvider,
		redisClient:  redisClient,
		backfillCron: backfillCron,
	}, nil
}

func (a *App) Close() {
	if a.backfillCron != nil {
		<-a.backfillCron.Stop().Done()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.llmProvider != nil {
		_ = a.llmProvider.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/careerpilot-ai/careerpilot/internal/api/handlers"
	"github.com/careerpilot-ai/careerpilot/internal/api/middlewares"
	"github.com/careerpilot-ai/careerpilot/internal/config"
	"github.com/careerpilot-ai/careerpilot/internal/core"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, engine handlers.Matcher, profiles handlers.SummaryApplier, store core.Store, logger *zap.Logger) *Server {
	matchHandler := handlers.NewMatchHandler(engine, store, cfg.DefaultTopK, cfg.MinSimilarity, logger)
	sessionHandler := handlers.NewSessionHandler(profiles, logger)
	jobHandler := handlers.NewJobHandler(store, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewares.JWTMiddleware(cfg.JWTSecret))

		api.Post("/match", matchHandler.RunMatch)
		api.Get("/sessions/{sessionID}/matches", matchHandler.GetSessionMatches)
		api.Post("/sessions/{sessionID}/summary", sessionHandler.ApplySummary)
		api.Put("/jobs/{jobID}/content", jobHandler.UpdateContent)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Fatal("server error", zap.Error(err))
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

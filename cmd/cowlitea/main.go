package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cowlitea/cowlitea/internal/config"
	dbRedis "github.com/cowlitea/cowlitea/internal/db/redis"
	"github.com/cowlitea/cowlitea/internal/domain"
	"github.com/cowlitea/cowlitea/internal/domain/query"
	logpkg "github.com/cowlitea/cowlitea/internal/logger"
	"github.com/cowlitea/cowlitea/internal/metrics"
	catalogrepo "github.com/cowlitea/cowlitea/internal/repository/catalog"
	conversationrepo "github.com/cowlitea/cowlitea/internal/repository/conversation"
	"github.com/cowlitea/cowlitea/internal/repository/embcache"
	"github.com/cowlitea/cowlitea/internal/scrape"
	chiTransport "github.com/cowlitea/cowlitea/internal/transport/chi"
	openaiTransport "github.com/cowlitea/cowlitea/internal/transport/openai"
	chatuc "github.com/cowlitea/cowlitea/internal/usecase/chat"
	healthuc "github.com/cowlitea/cowlitea/internal/usecase/health"
	ingestuc "github.com/cowlitea/cowlitea/internal/usecase/ingest"
	"github.com/cowlitea/cowlitea/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cowlitea API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()
	metrics.RegisterIngestMetrics()

	// Embedder chain — OpenAI provider behind a Redis-backed vector cache
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := embcache.New(
		baseEmbedder, store,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	streamer := openaiTransport.NewStreamer(&openaiTransport.Config{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Logger:  logger,
	}, cfg.Chat.Model)

	// Repositories
	catalogRepo := catalogrepo.New(store, cfg.Retrieval.IndexName)
	if err := catalogRepo.EnsureIndex(ctx, catalogrepo.IndexParams{
		Dimensions:  cfg.Embedding.Dimensions,
		M:           cfg.Retrieval.HNSWM,
		EFConstruct: cfg.Retrieval.HNSWEFConstruct,
	}); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	conversationRepo := conversationrepo.New(store)

	// Use case services
	extractorOpts := []query.Option{query.WithKnownNames(cfg.Query.KnownNames)}
	if len(cfg.Query.Cities) > 0 {
		extractorOpts = append(extractorOpts, query.WithCities(cfg.Query.Cities))
	}
	extractor := query.NewExtractor(extractorOpts...)
	chatSvc := chatuc.New(
		extractor,
		chatuc.NewPlanner(nil),
		embedder,
		catalogRepo,
		streamer,
		conversationRepo,
		chatuc.Config{
			TopK:            cfg.Retrieval.TopK,
			EmbedTimeout:    time.Duration(cfg.Chat.EmbedTimeoutSec) * time.Second,
			RetrieveTimeout: time.Duration(cfg.Chat.RetrieveTimeoutSec) * time.Second,
		},
		logger,
	)

	scraper := scrape.NewScraper(scrape.NewFetcher(time.Duration(cfg.Ingest.TimeoutSec) * time.Second))
	ingestSvc := ingestuc.New(scraper, embedder, catalogRepo, ingestSources(cfg), logger)

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(chatSvc, ingestSvc, conversationRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func ingestSources(cfg config.Config) []ingestuc.Source {
	sources := make([]ingestuc.Source, len(cfg.Ingest.Sources))
	for i, s := range cfg.Ingest.Sources {
		sources[i] = ingestuc.Source{
			Kind:          domain.RecordKind(s.Kind),
			AllowedDomain: s.AllowedDomain,
		}
	}
	return sources
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

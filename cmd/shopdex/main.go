package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/shopdex/internal/config"
	"github.com/kailas-cloud/shopdex/internal/db"
	dbQdrant "github.com/kailas-cloud/shopdex/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/shopdex/internal/db/redis"
	"github.com/kailas-cloud/shopdex/internal/domain"
	logpkg "github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/metrics"
	"github.com/kailas-cloud/shopdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/shopdex/internal/repository/search"
	"github.com/kailas-cloud/shopdex/internal/resilience"
	chiTransport "github.com/kailas-cloud/shopdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/shopdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/shopdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	intentuc "github.com/kailas-cloud/shopdex/internal/usecase/intent"
	paginguc "github.com/kailas-cloud/shopdex/internal/usecase/paging"
	schemauc "github.com/kailas-cloud/shopdex/internal/usecase/schema"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
	"github.com/kailas-cloud/shopdex/internal/version"
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

	logger.Info("Starting shopdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("collection", cfg.Index.Collection),
	)

	store, err := newIndexStore(&cfg.Index)
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index not ready", zap.Error(err))
	}
	logger.Info("Connected to index")

	if cfg.Index.EnsureSchema {
		def, err := schemauc.Definition(cfg.Index.Collection, cfg.Index.KeyPrefix, cfg.Index.Dimensions)
		if err != nil {
			logger.Fatal("Invalid index schema", zap.Error(err))
		}
		if err := schemauc.Ensure(ctx, store, def, logger); err != nil {
			logger.Fatal("Failed to ensure index schema", zap.Error(err))
		}
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	exec := resilience.NewExecutor(cfg.Resilience.Policy(),
		resilience.WithLogger(logger),
		resilience.WithStateObserver(func(op string, _, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(op).Set(float64(to))
		}),
	)

	var cache *dbRedis.Store
	if cfg.Cache.Enabled() {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		defer cache.Close()
	}

	providerCfg := &openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	}
	base := openaiTransport.NewEmbedder(providerCfg)
	var kv db.KVStore
	if cache != nil {
		kv = cache
	}
	embedder := buildEmbedder(base, &cfg, kv, exec, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cache != nil),
	)

	repo := searchrepo.New(store, exec, cfg.Index.Collection, cfg.Index.KeyPrefix)
	engine := searchuc.New(repo, embedder, searchuc.Config{
		KeywordBoost:  cfg.Search.KeywordBoost,
		ShouldBoost:   cfg.Search.ShouldBoost,
		CandidatePool: cfg.Search.MaxTopK,
	})
	pager := paginguc.New(engine, repo, cfg.Search.MaxTopK)

	// nil interface, not a typed nil pointer, when chat is off
	var completer domain.Completer
	if cfg.Chat.Enabled() {
		completer = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:   cfg.Chat.APIKey,
			BaseURL:  cfg.Chat.BaseURL,
			Model:    cfg.Chat.Model,
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		}, cfg.Chat.MaxTokens)
	}
	intents := intentuc.New(completer, exec, openaiTransport.Classify)
	logger.Info("Intent extraction",
		zap.Bool("enabled", intents.Enabled()),
		zap.String("model", cfg.Chat.Model),
	)

	deps := healthuc.Deps{
		Index:     store,
		Embedding: base,
		Breakers:  exec,
		Operations: []string{
			searchrepo.OpNearest,
			searchrepo.OpScroll,
			embeddinguc.OpEmbed,
			intentuc.OpComplete,
		},
	}
	if cache != nil {
		deps.Cache = cache
	}
	healthSvc := healthuc.New(deps, 0)

	server := chiTransport.NewServer(engine, pager, intents, healthSvc, chiTransport.Options{
		DefaultTopK:     cfg.Search.DefaultTopK,
		MaxTopK:         cfg.Search.MaxTopK,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// newIndexStore opens the vector index selected by cfg.Driver.
func newIndexStore(cfg *config.IndexConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			URL:     cfg.QdrantURL,
			APIKey:  cfg.QdrantAPIKey,
			Timeout: time.Duration(cfg.QdrantTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base domain.Embedder,
	cfg *config.Config,
	cache db.KVStore,
	exec embeddinguc.Executor,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cache != nil {
		namespace := cfg.Cache.Namespace
		if namespace == "" {
			namespace = cfg.Embedding.Model
		}
		embedder = embcache.New(base, cache, embcache.Config{
			Namespace: namespace,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	opts := embeddinguc.Options{
		Executor:   exec,
		Classifier: openaiTransport.Classify,
	}
	if cfg.Embedding.RequestsPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Embedding.RequestsPerSecond), cfg.Embedding.Burst)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, opts, logger,
	)

	// outermost: the cache key includes the instruction
	if cfg.Embedding.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}
	return embedder
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
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorResponseCodeInternalError,
						Message: "internal error",
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

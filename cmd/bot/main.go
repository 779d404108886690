package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgassist/tgassist/internal/config"
	dbPostgres "github.com/tgassist/tgassist/internal/db/postgres"
	dbRedis "github.com/tgassist/tgassist/internal/db/redis"
	"github.com/tgassist/tgassist/internal/domain"
	logpkg "github.com/tgassist/tgassist/internal/logger"
	"github.com/tgassist/tgassist/internal/metrics"
	documentrepo "github.com/tgassist/tgassist/internal/repository/document"
	"github.com/tgassist/tgassist/internal/repository/embcache"
	userrepo "github.com/tgassist/tgassist/internal/repository/user"
	chiTransport "github.com/tgassist/tgassist/internal/transport/chi"
	openaiTransport "github.com/tgassist/tgassist/internal/transport/openai"
	"github.com/tgassist/tgassist/internal/transport/telegram"
	"github.com/tgassist/tgassist/internal/usecase/access"
	answeruc "github.com/tgassist/tgassist/internal/usecase/answer"
	deliveryuc "github.com/tgassist/tgassist/internal/usecase/delivery"
	embeddinguc "github.com/tgassist/tgassist/internal/usecase/embedding"
	healthuc "github.com/tgassist/tgassist/internal/usecase/health"
	notificationuc "github.com/tgassist/tgassist/internal/usecase/notification"
	"github.com/tgassist/tgassist/internal/usecase/retrieval"
	useruc "github.com/tgassist/tgassist/internal/usecase/user"
	"github.com/tgassist/tgassist/internal/version"
)

const embeddingProvider = "openai"

func main() {
	// A missing .env is fine: production passes real environment variables.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.ValidateBot(); err != nil {
		panic("invalid bot config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tgassist bot",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("documents_driver", cfg.Documents.Driver),
		zap.Bool("embedding_cache", cfg.Redis.EmbeddingCache),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres always backs users; documents too unless the redis driver is selected.
	pg, err := dbPostgres.NewStore(dbPostgres.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	var rs *dbRedis.Store
	if cfg.NeedsRedis() {
		rs, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer rs.Close()

		if err := rs.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterBotMetrics()

	embedder := buildEmbedder(cfg, rs, logger)

	docs, err := buildDocumentStore(ctx, cfg, pg, rs)
	if err != nil {
		logger.Fatal("Failed to prepare document store", zap.Error(err))
	}

	engine := retrieval.NewForStore(docs, cfg.Retrieval.TierTimeout(), retrieval.Metrics{
		TierTotal: metrics.RetrievalTierTotal,
		Duration:  metrics.RetrievalDuration,
	})

	// Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to authorize bot", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("Authorized on Telegram", zap.String("bot", api.Self.UserName))
	client := telegram.NewClient(api)

	// Use case services
	users := userrepo.New(pg.DB())
	userSvc := useruc.New(users)
	answerSvc := answeruc.New(embedder, engine, answeruc.Config{
		Limit:     cfg.Retrieval.Limit,
		Threshold: cfg.Retrieval.Threshold,
	})
	gate := access.NewGate(client, cfg.Telegram.ChannelUsername)
	deliverySvc := deliveryuc.New(users, gate, client, deliveryuc.Config{
		BookPath: cfg.Book.Path,
		Caption:  cfg.Book.Caption,
	}, metrics.BookDeliveryTotal)
	notifySvc := notificationuc.New(users, client,
		time.Duration(cfg.Notifications.SendDelayMs)*time.Millisecond, metrics.NotificationsSentTotal)

	healthSvc := healthuc.New(pg).WithEmbedding(newEmbeddingHealthChecker(embedder))
	if rs != nil {
		healthSvc = healthSvc.WithDatabase("redis", rs)
	}

	handler := telegram.NewHandler(client, userSvc, answerSvc, deliverySvc, notifySvc, telegram.HandlerConfig{
		AdminID: cfg.Telegram.AdminID,
		Channel: cfg.Telegram.ChannelUsername,
	})
	poller := telegram.NewPoller(api, handler, telegram.PollerConfig{
		Timeout: time.Duration(cfg.Telegram.PollTimeoutSec) * time.Second,
		Workers: cfg.Telegram.Workers,
	}, logger, metrics.UpdatesTotal)

	// Ops HTTP server
	ops := chiTransport.NewServer(healthSvc, logger, cfg.HTTP.AuthTokens)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      ops.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		return poller.Run(gctx)
	})

	if cfg.Notifications.Enabled {
		scheduler := notificationuc.NewScheduler(notifySvc, time.Duration(cfg.Notifications.TickSec)*time.Second)
		g.Go(func() error {
			return scheduler.Run(logpkg.ContextWithLogger(gctx, logger.With(zap.String("component", "scheduler"))))
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
		return
	}
	logger.Info("Bot stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> DimensionGuard -> Instrumented.
func buildEmbedder(cfg config.Config, rs *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if rs != nil && cfg.Redis.EmbeddingCache {
		embedder = embcache.New(base, rs, embcache.Options{
			KeyPrefix: cfg.Redis.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       time.Duration(cfg.Redis.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Cached vectors are checked too: a model switch without a new prefix would otherwise leak.
	embedder = domain.NewDimensionGuard(embedder, cfg.Embedding.Dimensions)

	return embeddinguc.NewInstrumentedEmbedder(embedder, embeddingProvider, cfg.Embedding.Model)
}

// buildDocumentStore selects the document backend and prepares it.
func buildDocumentStore(
	ctx context.Context, cfg config.Config, pg *dbPostgres.Store, rs *dbRedis.Store,
) (retrieval.DocumentStore, error) {
	if cfg.Documents.Driver != config.DriverRedis {
		return documentrepo.NewPostgres(pg.DB(), cfg.Documents.Table, cfg.Documents.RPCFunction), nil
	}

	repo := documentrepo.NewRedis(rs, cfg.Redis.KeyPrefix, cfg.Redis.IndexName)
	if err := repo.EnsureIndex(ctx, documentrepo.IndexOptions{
		Dimensions:  cfg.Embedding.Dimensions,
		M:           cfg.Redis.HNSWM,
		EFConstruct: cfg.Redis.HNSWEFConstruct,
	}); err != nil {
		return nil, fmt.Errorf("ensure redis index: %w", err)
	}
	return repo, nil
}

// Package app wires the crawler's dependencies and runs its entrypoints.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pricepulse/wbradar/internal/config"
	"github.com/pricepulse/wbradar/internal/crawler"
	"github.com/pricepulse/wbradar/internal/event"
	handlerhttp "github.com/pricepulse/wbradar/internal/handler/http"
	"github.com/pricepulse/wbradar/internal/loader"
	"github.com/pricepulse/wbradar/internal/marketplace"
	"github.com/pricepulse/wbradar/internal/repository/postgres"
	"github.com/pricepulse/wbradar/internal/repository/postgres/migrations"
	"github.com/pricepulse/wbradar/pkg/database"
	"github.com/pricepulse/wbradar/pkg/health"
	"github.com/pricepulse/wbradar/pkg/httpclient"
	pkgkafka "github.com/pricepulse/wbradar/pkg/kafka"
	"github.com/pricepulse/wbradar/pkg/logger"
	"github.com/pricepulse/wbradar/pkg/tracing"
)

const serviceName = "wbradar"

// shutdownTimeout bounds the graceful drain of the HTTP server.
const shutdownTimeout = 10 * time.Second

// App holds the wired dependencies shared by every entrypoint.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool        *pgxpool.Pool
	kafka       *pkgkafka.Producer
	events      *event.Producer
	marketplace *marketplace.Client

	categories *postgres.CategoryRepository
	snapshots  *postgres.SnapshotRepository
	history    *postgres.HistoryRepository

	tracerShutdown func(context.Context) error
}

// NewApp connects to every dependency and applies pending migrations.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   cfg.OTELSampleRate,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.Files, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), log)

	httpClient := httpclient.New(httpclient.Config{
		Timeout:            cfg.HTTPTimeout(),
		MaxConnsPerHost:    cfg.RequestLimit,
		InsecureSkipVerify: cfg.InsecureTLS,
	})
	breaker := httpclient.NewCircuitBreakerClient(
		httpClient, httpclient.DefaultCircuitBreakerConfig("marketplace"), log)

	mpClient := marketplace.NewClient(breaker, marketplace.Config{
		RequestLimit: cfg.RequestLimit,
		Attempts:     cfg.RetryAttempts,
		BackoffUnit:  time.Second,
	}, log)

	return &App{
		cfg:            cfg,
		logger:         log,
		pool:           pool,
		kafka:          kafkaProducer,
		events:         event.NewProducer(kafkaProducer, log),
		marketplace:    mpClient,
		categories:     postgres.NewCategoryRepository(pool),
		snapshots:      postgres.NewSnapshotRepository(pool),
		history:        postgres.NewHistoryRepository(pool),
		tracerShutdown: tracerShutdown,
	}, nil
}

// Close releases every held resource.
func (a *App) Close(ctx context.Context) {
	if err := a.kafka.Close(); err != nil {
		a.logger.Warn("close kafka producer", slog.String("error", err.Error()))
	}
	a.pool.Close()
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Warn("shutdown tracer", slog.String("error", err.Error()))
	}
}

// RunServe runs the read-only API server until ctx is cancelled.
func (a *App) RunServe(ctx context.Context) error {
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	// Lifecycle events are best-effort, so a broker outage only degrades.
	healthHandler.RegisterNonCritical("kafka", a.kafka.Ping)

	router := handlerhttp.NewRouter(
		a.categories,
		a.history,
		healthHandler,
		a.cfg.PprofAllowedCIDRs,
		a.logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.Int("port", a.cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// RunLoadCategories refreshes the stored category tree from the marketplace
// main menu.
func (a *App) RunLoadCategories(ctx context.Context) error {
	l := loader.New(a.marketplace, a.categories, a.logger)
	count, err := l.Load(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	a.logger.Info("categories refreshed", slog.Int("count", count))
	return nil
}

// RunCrawl runs one full catalog crawl over every crawlable category and
// publishes its lifecycle events.
func (a *App) RunCrawl(ctx context.Context) error {
	crawlID := uuid.NewString()
	ctx = logger.WithCrawlID(ctx, crawlID)
	log := a.logger.With(slog.String("crawl_id", crawlID))

	categories, err := a.categories.ListCrawlable(ctx)
	if err != nil {
		return fmt.Errorf("list crawlable categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("no crawlable categories, run load-categories first")
	}

	pipeline := crawler.NewPipeline(a.marketplace, a.snapshots, crawler.Config{
		Workers:   a.cfg.WorkerCount,
		QueueSize: a.cfg.QueueSize,
	}, log)

	if err := a.events.PublishCrawlStarted(ctx, crawlID, len(categories), time.Now().UTC()); err != nil {
		// Lifecycle events are observability, not correctness; the crawl
		// proceeds without them.
		log.Warn("publish crawl.started", slog.String("error", err.Error()))
	}

	stats, err := pipeline.Run(ctx, categories)
	if err != nil {
		if pubErr := a.events.PublishCrawlFailed(ctx, crawlID, stats, err); pubErr != nil {
			log.Warn("publish crawl.failed", slog.String("error", pubErr.Error()))
		}
		return fmt.Errorf("crawl %s: %w", crawlID, err)
	}

	if err := a.events.PublishCrawlCompleted(ctx, crawlID, stats); err != nil {
		log.Warn("publish crawl.completed", slog.String("error", err.Error()))
	}

	return nil
}

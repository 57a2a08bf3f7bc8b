// Package app provides the application lifecycle management for the
// stock-publisher service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/stock-publisher/internal/api"
	"github.com/jonesrussell/stock-publisher/internal/audit"
	"github.com/jonesrussell/stock-publisher/internal/config"
	"github.com/jonesrussell/stock-publisher/internal/images"
	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/metrics"
	"github.com/jonesrussell/stock-publisher/internal/profiles"
	"github.com/jonesrussell/stock-publisher/internal/publish"
	"github.com/jonesrussell/stock-publisher/internal/report"
	"github.com/jonesrussell/stock-publisher/internal/runlock"
	"github.com/jonesrussell/stock-publisher/internal/state"
	"github.com/jonesrussell/stock-publisher/internal/tickers"
	"github.com/jonesrussell/stock-publisher/internal/wordpress"
)

const (
	// DefaultShutdownTimeout is the timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
	// runLockTTL bounds how long a crashed run can hold the lock.
	runLockTTL = 30 * time.Minute
)

// App holds the wired publisher with all its dependencies.
type App struct {
	config      *config.Config
	logger      logger.Logger
	runner      *publish.Runner
	lock        *runlock.Lock
	stateStore  state.Store
	profiles    profiles.Store
	redisClient *redis.Client
	db          *sqlx.DB
	mongoStore  *profiles.MongoStore
	registry    *prometheus.Registry
	version     string
}

// Options contains configuration for creating a new App.
type Options struct {
	ConfigPath string
	Version    string
}

// New creates an App with all dependencies initialized from configuration.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "stock-publisher"),
		logger.String("version", opts.Version),
	)

	a := &App{
		config:   cfg,
		logger:   appLogger,
		registry: prometheus.NewRegistry(),
		version:  opts.Version,
	}

	if err := a.initStateStore(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initProfileStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initRunLock(ctx); err != nil {
		a.Close()
		return nil, err
	}

	auditor, err := a.initAuditor()
	if err != nil {
		a.Close()
		return nil, err
	}

	var renderer publish.ImageRenderer
	if cfg.FeatureImage.Enabled {
		renderer = images.NewGenerator(images.Config{
			Width:          cfg.FeatureImage.Width,
			Height:         cfg.FeatureImage.Height,
			Background:     cfg.FeatureImage.Background,
			TextColor:      cfg.FeatureImage.TextColor,
			WatermarkColor: cfg.FeatureImage.WatermarkColor,
		}, appLogger)
	}

	a.runner = publish.NewRunner(publish.Config{
		MaxPostsPerDay:       cfg.Publishing.MaxPostsPerDay,
		DefaultMinGapMinutes: cfg.Publishing.MinGapMinutes,
		DefaultMaxGapMinutes: cfg.Publishing.MaxGapMinutes,
		TempImageDir:         cfg.Publishing.TempImageDir,
	}, publish.Deps{
		Store:     a.stateStore,
		Resolver:  tickers.NewResolver(a.newSheetSource(), appLogger),
		Generator: report.NewClient(cfg.ReportService.URL, cfg.ReportService.Timeout, appLogger),
		Publisher: wordpress.NewClient(appLogger),
		Images:    renderer,
		Metrics:   metrics.NewRecorder(a.registry),
		Auditor:   auditor,
		Logger:    appLogger,
	})

	return a, nil
}

func (a *App) initStateStore() error {
	switch a.config.State.Backend {
	case "postgres":
		db, err := state.NewPostgresConnection(state.PostgresConfig{
			Host:     a.config.State.Postgres.Host,
			Port:     a.config.State.Postgres.Port,
			User:     a.config.State.Postgres.User,
			Password: a.config.State.Postgres.Password,
			DBName:   a.config.State.Postgres.DBName,
			SSLMode:  a.config.State.Postgres.SSLMode,
		})
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		a.db = db
		a.stateStore = state.NewPostgresStore(db, a.logger)
	default:
		a.stateStore = state.NewFileStore(a.config.State.Path, a.logger)
	}
	return nil
}

func (a *App) initProfileStore(ctx context.Context) error {
	if a.config.Mongo.URI == "" {
		a.profiles = profiles.NewFileStore(a.config.ProfilesFile)
		return nil
	}

	store, err := profiles.NewMongoStore(ctx, profiles.MongoConfig{
		URI:        a.config.Mongo.URI,
		Database:   a.config.Mongo.Database,
		Collection: "profiles",
	}, a.logger)
	if err != nil {
		return fmt.Errorf("create mongo profile store: %w", err)
	}
	a.mongoStore = store
	a.profiles = store
	return nil
}

func (a *App) initRunLock(ctx context.Context) error {
	if a.config.Redis.URL == "" {
		a.logger.Warn("redis not configured, concurrent runs are not serialized")
		return nil
	}

	client, err := runlock.NewClient(ctx, a.config.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redisClient = client
	a.lock = runlock.New(client, runLockTTL, a.logger)
	return nil
}

func (a *App) initAuditor() (audit.Shipper, error) {
	if a.config.Elasticsearch.URL == "" {
		return nil, nil
	}
	shipper, err := audit.NewESShipper(audit.Config{
		URL:      a.config.Elasticsearch.URL,
		Username: a.config.Elasticsearch.Username,
		Password: a.config.Elasticsearch.Password,
		Index:    a.config.Elasticsearch.Index,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create audit shipper: %w", err)
	}
	return shipper, nil
}

func (a *App) newSheetSource() tickers.SheetSource {
	if a.config.TickerSource.Backend == "http" {
		return tickers.NewHTTPSheetSource(a.config.TickerSource.URL, a.config.TickerSource.Timeout, a.logger)
	}
	return tickers.NewDirSheetSource(a.config.TickerSource.Dir, a.logger)
}

// Runner returns the publishing run orchestrator.
func (a *App) Runner() *publish.Runner {
	return a.runner
}

// Profiles returns the profile store.
func (a *App) Profiles() profiles.Store {
	return a.profiles
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger {
	return a.logger
}

// RunOnce executes a single publishing run, honoring the run lock when one
// is configured.
func (a *App) RunOnce(ctx context.Context, req publish.Request) (publish.Summary, error) {
	if a.lock != nil {
		token := uuid.NewString()
		if err := a.lock.Acquire(ctx, token); err != nil {
			return publish.Summary{}, err
		}
		defer a.lock.Release(ctx, token)
	}
	return a.runner.Run(ctx, req), nil
}

// Serve runs the HTTP API and blocks until the context is canceled or a
// shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	router := api.NewRouter(api.Deps{
		Runner:       a.runner,
		Lock:         a.lock,
		StateStore:   a.stateStore,
		Profiles:     a.profiles,
		RedisClient:  a.redisClient,
		PromGatherer: a.registry,
		Logger:       a.logger,
		Debug:        a.config.Debug,
	})

	server := &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting api server", logger.String("address", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutting down gracefully", logger.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("shutting down, context canceled")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", logger.Error(err))
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

// Close releases held connections. Safe to call after a partial New.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis client", logger.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close postgres connection", logger.Error(err))
		}
	}
	if a.mongoStore != nil {
		if err := a.mongoStore.Close(ctx); err != nil {
			a.logger.Warn("failed to disconnect mongo client", logger.Error(err))
		}
	}
	_ = a.logger.Sync()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/okian/heatguard/internal/adapters/http/api"
	"github.com/okian/heatguard/internal/adapters/http/swagger"
	"github.com/okian/heatguard/internal/adapters/pmml"
	"github.com/okian/heatguard/internal/adapters/repository"
	service "github.com/okian/heatguard/internal/app"
	"github.com/okian/heatguard/internal/config"
	"github.com/okian/heatguard/internal/domain/assess"
	"github.com/okian/heatguard/internal/domain/oracle"
	"github.com/okian/heatguard/pkg/logger"
	"github.com/okian/heatguard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "heatguard stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithConstLabels(cfg.MetricsLabels),
	)

	engine, modelName, err := loadEngine(ctx, cfg, log.Named("model"))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := service.New(engine, store,
		service.WithLogger(log.Named("service")),
		service.WithModelVersion(modelName),
		service.WithStoreDriver(cfg.StoreDriver),
		service.WithIdempotencySize(cfg.IdempotencySize),
		service.WithProfileCacheSize(cfg.ProfileCacheSize),
		service.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc, log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// loadEngine loads the classifier and binds it to the assessment pipeline.
// Any schema problem aborts startup.
func loadEngine(ctx context.Context, cfg *config.Config, log logger.Logger) (*assess.Engine, string, error) {
	m, err := pmml.Load(cfg.ModelPath)
	if err != nil {
		return nil, "", err
	}
	adapter, err := oracle.NewAdapter(m)
	if err != nil {
		return nil, "", fmt.Errorf("bind model %q: %w", cfg.ModelPath, err)
	}
	log.Info(ctx, "model loaded",
		logger.String("model", m.Name()),
		logger.Strings("inputs", m.InputFields()),
		logger.Strings("outputs", m.OutputFields()),
		logger.Strings("unused_features", adapter.Dropped()),
	)
	if extra := adapter.Extra(); len(extra) > 0 {
		log.Warn(ctx, "model declares inputs outside the feature contract; they are left to the model's missing-value handling",
			logger.Strings("model_only_inputs", extra),
		)
	}
	return assess.NewEngine(adapter), m.Name(), nil
}

// openStore opens the configured assessment store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite:
		s, err := repository.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorePostgres:
		s, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// newRouter mounts the API and its documentation on one chi router.
func newRouter(ctx context.Context, svc *service.Service, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	api.NewServer(svc, api.WithLogger(log)).Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

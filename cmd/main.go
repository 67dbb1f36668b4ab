package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq"

	"github.com/reelrank/reelrank/internal/adapters/catalog"
	"github.com/reelrank/reelrank/internal/adapters/http/api"
	"github.com/reelrank/reelrank/internal/adapters/repository"
	"github.com/reelrank/reelrank/internal/adapters/session"
	"github.com/reelrank/reelrank/internal/app"
	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/pkg/logger"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the service records its own system metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithSessionTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute),
		app.WithSweepInterval(time.Duration(cfg.SessionSweepSeconds) * time.Second),
		app.WithRefreshQueueSize(cfg.RefreshQueueSize),
		app.WithRefreshWorkerCount(cfg.RefreshWorkerCount),
	}

	// Ranking store: postgres when configured, in-memory otherwise.
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			os.Stderr.WriteString("failed to open postgres: " + err.Error() + "\n")
			return
		}
		defer db.Close()
		store := repository.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			os.Stderr.WriteString("failed to ensure schema: " + err.Error() + "\n")
			return
		}
		opts = append(opts, app.WithStore(store))
		log.Info(ctx, "using postgres ranking store")
	}

	// Session store: redis when configured, in-memory otherwise.
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer client.Close()
		opts = append(opts, app.WithSessionStore(session.NewRedisStore(client)))
		log.Info(ctx, "using redis session store", logger.String("addr", cfg.RedisAddr))
	}

	// Catalog: remote service when configured, in-memory otherwise.
	if cfg.CatalogBaseURL != "" {
		opts = append(opts, app.WithCatalog(catalog.NewHTTPClient(
			cfg.CatalogBaseURL,
			catalog.WithTimeout(time.Duration(cfg.CatalogTimeoutMS)*time.Millisecond),
		)))
		log.Info(ctx, "using remote catalog", logger.String("base_url", cfg.CatalogBaseURL))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, cfg.MaxListLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically samples process-level metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

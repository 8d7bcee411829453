package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/httpserver"
	"github.com/Derecoder4/Rugguard-bot/internal/adapter/metrics"
	"github.com/Derecoder4/Rugguard-bot/internal/adapter/postgres"
	"github.com/Derecoder4/Rugguard-bot/internal/adapter/redis"
	"github.com/Derecoder4/Rugguard-bot/internal/adapter/xapi"
	"github.com/Derecoder4/Rugguard-bot/internal/analyzer"
	"github.com/Derecoder4/Rugguard-bot/internal/app"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/config"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/logging"
	"github.com/Derecoder4/Rugguard-bot/internal/trustlist"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server, cancelMonitor context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancelMonitor()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	analysisRepo := postgres.NewAnalysisRepo(pool)
	eventRepo := postgres.NewEventRepo(pool)
	trustedRepo := postgres.NewTrustedRepo(pool)
	cooldown := redis.NewCooldown(redisClient, cfg.AnalysisCooldown)

	trustedCache := trustlist.NewCache(
		trustlist.NewHTTPFetcher(cfg.TrustedListURL),
		trustedRepo, cfg.TrustedListTTL, clock)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := trustedCache.Load(loadCtx); err != nil {
		slog.Error("Failed to load trusted-account cache", "error", err)
		cancelLoad()
		os.Exit(1)
	}
	cancelLoad()

	platform := xapi.NewClient(cfg.XAPIBaseURL, cfg.XBearerToken)

	registry := metrics.NewRegistry()
	analysisMetrics := metrics.NewAnalysisMetrics(registry)

	service := app.NewService(app.Deps{
		Analyzer:           analyzer.New(analyzer.DefaultConfig()),
		Trusted:            trustedCache,
		Analyses:           analysisRepo,
		Events:             eventRepo,
		TrustedRepo:        trustedRepo,
		Accounts:           platform,
		Mentions:           platform,
		Replies:            platform,
		Cooldown:           cooldown,
		Metrics:            analysisMetrics,
		Clock:              clock,
		PostSampleSize:     cfg.PostSampleSize,
		FollowerSampleSize: cfg.FollowerSampleSize,
	})

	monitor := app.NewMonitor(service, platform, analysisMetrics, clock,
		cfg.PollInterval, cfg.EventCooldown, cfg.TriggerPhrase)

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	go func() {
		if err := monitor.Run(monitorCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Monitor stopped unexpectedly", "error", err)
		}
	}()

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := httpserver.NewServer(cfg, service, analysisRepo, metrics.Handler(registry), healthChecks)

	done := runGracefulShutdown(srv, cancelMonitor)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"notification-hub/internal/config"
	"notification-hub/internal/infra/adapters/platform"
	pg "notification-hub/internal/infra/db/postgres"
	"notification-hub/internal/infra/logging"
	"notification-hub/internal/infra/metrics"
	red "notification-hub/internal/infra/redis"
	"notification-hub/internal/infra/web"
	"notification-hub/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis (optional, caches cheap reads only) ----
	var cache usecase.RemainingCache
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		cache = red.NewQuotaCache(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; quota cache disabled")
	}

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	messageRepo := pg.NewPostgresMessageRepo(pool)
	quotaRepo := pg.NewPostgresQuotaRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Platform registry ----
	httpClient := &http.Client{Timeout: cfg.Dispatch.SendTimeout}
	registry, err := platform.NewRegistry(
		platform.NewTelegramAdapter(cfg.Platforms.Telegram, httpClient),
		platform.NewDiscordAdapter(cfg.Platforms.Discord, httpClient),
		platform.NewSlackAdapter(cfg.Platforms.Slack, httpClient),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("platform registry")
	}

	// ---- Use cases ----
	limitsUC := usecase.NewRateLimitUseCase(quotaRepo, cache, logger)
	dispatchUC := usecase.NewDispatchUseCase(registry, messageRepo, limitsUC, tm, cfg.Dispatch.SendTimeout, logger)
	queryUC := usecase.NewMessageQueryUseCase(messageRepo, userRepo, quotaRepo, logger)
	adminUC := usecase.NewUserUseCase(userRepo, cache, logger)

	// ---- HTTP boundary ----
	srv := web.NewServer(userRepo, dispatchUC, queryUC, limitsUC, adminUC, cfg.Server.APIKey, logger)
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatal().Err(err).Msg("http server")
	}
	logger.Info().Msg("shutdown complete")
}

// Package main API Gateway 服务入口
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

	"github.com/joho/godotenv"

	"neura-deck-api/internal/application/deck"
	"neura-deck-api/internal/config"
	"neura-deck-api/internal/infrastructure/messaging"
	"neura-deck-api/internal/infrastructure/persistence/postgres"
	"neura-deck-api/internal/infrastructure/persistence/redis"
	"neura-deck-api/internal/interfaces/http/handler"
	"neura-deck-api/internal/interfaces/http/router"
	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/tracer"
)

// 构建时经 ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.FromContext(ctx)
	log.Info("starting api-gateway",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "init tracer", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Error("shutdown tracer", "error", err)
		}
	}()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "connect postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "connect redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	deckService := deck.NewService(
		postgres.NewDeckRepository(pgClient),
		postgres.NewJobRepository(pgClient),
		redis.NewCache(redisClient),
		messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen)),
	)

	r := router.New(cfg, router.Handlers{
		Health: handler.NewHealthHandler(pgClient, redisClient),
		Deck:   handler.NewDeckHandler(deckService),
		Job:    handler.NewJobHandler(deckService),
	}, redis.NewRateLimiter(redisClient))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "http server", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

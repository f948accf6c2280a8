// Package main 演示文稿生成执行器入口（deck-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"neura-deck-api/internal/application/deck"
	"neura-deck-api/internal/application/outline"
	"neura-deck-api/internal/config"
	"neura-deck-api/internal/infrastructure/llm"
	"neura-deck-api/internal/infrastructure/messaging"
	"neura-deck-api/internal/infrastructure/persistence/postgres"
	"neura-deck-api/internal/infrastructure/persistence/redis"
	"neura-deck-api/internal/infrastructure/research"
	"neura-deck-api/pkg/logger"
	"neura-deck-api/pkg/tracer"
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

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "deck-worker",
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

	// 生成流水线依赖
	gateway := llm.NewFallbackGateway(llm.NewEinoFactory(cfg), &cfg.LLM)
	researcher := research.NewResearcher(research.NewTavilyClient(&cfg.Research.Tavily))

	worker := deck.NewWorker(
		postgres.NewDeckRepository(pgClient),
		postgres.NewJobRepository(pgClient),
		postgres.NewTxManager(pgClient),
		researcher,
		gateway,
		redis.NewCache(redisClient),
		outline.Config{
			PlaceholderMinChars: cfg.Outline.PlaceholderMinChars,
			DegenerateRatio:     cfg.Outline.DegenerateRatio,
			EnforceTopicFit:     cfg.Outline.EnforceTopicFit,
			MaxSlides:           cfg.Outline.MaxSlides,
			MinSlides:           cfg.Outline.MinSlides,
			ChartsExtraSlides:   cfg.Outline.ChartsExtraSlides,
		},
	)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamDeckGen,
		Group:         messaging.ConsumerGroupDeckWorker,
		ConsumerName:  "deck-worker-" + uuid.NewString()[:8],
		BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
		ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
		RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler(messaging.MessageTypeDeckGen, worker.HandleMessage)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, 100)

	log.Info("deck-worker started",
		"stream", messaging.StreamDeckGen,
		"group", messaging.ConsumerGroupDeckWorker,
	)

	<-ctx.Done()

	log.Info("shutting down worker...")
	consumer.Stop()
	log.Info("worker exited")
}

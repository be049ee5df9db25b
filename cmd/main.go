package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/codesim/internal/api"
	"github.com/RishiKendai/codesim/internal/config"
	"github.com/RishiKendai/codesim/internal/configs/env"
	"github.com/RishiKendai/codesim/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/codesim/internal/infra/redis"
	"github.com/RishiKendai/codesim/internal/ingest"
	"github.com/RishiKendai/codesim/internal/logger"
	"github.com/RishiKendai/codesim/internal/metrics"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/RishiKendai/codesim/internal/plagiarism"
	"github.com/RishiKendai/codesim/internal/repository"
	"github.com/RishiKendai/codesim/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Starting codesim server")

	metrics.InitPrometheus()
	metricsServer := api.StartServer("metrics", metrics.Handler(), cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	mongoRepo := repository.NewMongoRepository(mongoClient)
	submissionsRepo := repository.NewSubmissionsRepository(mongoRepo)
	if err := submissionsRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure submission indexes")
	}

	ingestSvc := ingest.NewService(submissionsRepo)
	retryHandler := stream.NewRetryHandler(redisClient.Client, cfg.RedisDeadLetterKey)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
	consumer := stream.NewConsumer(
		redisClient.Client,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		ingestSvc,
		retryHandler,
		cfg.StreamRetentionDuration,
	)
	log.Info().Str("consumer_name", consumerName).Msg("Redis stream consumer initialized")

	// One pool shared by every analysis; each batch is joined before the next
	workerPool := plagiarism.NewWorkerPool(ctx, cfg.BatchSize)
	defer workerPool.Close()

	statusTracker := plagiarism.NewStatusTracker(redisClient.Client)
	analyzers := func(assignmentID string) api.Analyzer {
		engine := plagiarism.NewEngine(submissionsRepo.ForAssignment(assignmentID), nil, workerPool, cfg.BatchSize, cfg.EarlyExit)
		return engine.WithStatus(func(ctx context.Context, id string, step models.Step) {
			if err := statusTracker.Update(ctx, id, step); err != nil {
				log.Warn().Err(err).Str("assignmentId", id).Msg("Failed to update status")
			}
		})
	}

	if cfg.LogLevel != "debug" && cfg.LogLevel != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRoutes(ctx, cfg, analyzers, submissionsRepo, statusTracker)

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	go func() {
		defer consumerCancel()
		if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Redis consumer error")
		}
	}()
	log.Info().Msg("Redis consumer started")

	srv := api.StartServer("api", router, cfg.ServerPort)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}

	consumerCancel()

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}

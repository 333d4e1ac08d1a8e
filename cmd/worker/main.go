package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/recipe-hub/recipe-hub/internal/config"
	"github.com/recipe-hub/recipe-hub/internal/repository"
	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/internal/workers"
	"github.com/recipe-hub/recipe-hub/pkg/cache"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
	"github.com/recipe-hub/recipe-hub/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting Recipe Hub comment worker...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	commentEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CommentEvents)
	defer commentEventsProducer.Close()

	commentJobsConsumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.CommentJobs, "comment-worker-group")
	defer commentJobsConsumer.Close()

	recipeRepo := repository.NewRecipeRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	// The worker only persists and broadcasts; the jobs producer slot is
	// unused on this side.
	commentService := services.NewCommentService(commentRepo, recipeRepo, nil, commentEventsProducer, redisClient, services.NewValidator(), logger)

	worker := workers.NewCommentWorker(commentService, commentJobsConsumer, logger)

	go func() {
		if err := worker.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("Comment worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker exited")
}

package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/recipe-hub/recipe-hub/internal/services"
	"github.com/recipe-hub/recipe-hub/pkg/logger"
	"github.com/recipe-hub/recipe-hub/pkg/queue"
)

// CommentWorker drains the comment job topic and persists each queued
// comment through the service layer. One worker per consumer group
// member; Kafka partitioning keeps per-recipe ordering.
type CommentWorker struct {
	commentService services.CommentService
	consumer       *queue.KafkaConsumer
	logger         *logger.Logger
}

func NewCommentWorker(commentService services.CommentService, consumer *queue.KafkaConsumer, logger *logger.Logger) *CommentWorker {
	return &CommentWorker{
		commentService: commentService,
		consumer:       consumer,
		logger:         logger,
	}
}

func (w *CommentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting comment worker...")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		var event queue.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		w.logger.WithFields(map[string]interface{}{
			"event_type": event.Type,
			"timestamp":  event.Timestamp,
		}).Info("Processing event")

		switch event.Type {
		case queue.EventCommentRequested:
			return w.handleCommentRequested(ctx, event)
		default:
			w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
			return nil
		}
	})
}

func (w *CommentWorker) handleCommentRequested(ctx context.Context, event queue.Event) error {
	var job queue.CommentJobData
	if err := json.Unmarshal(event.Data, &job); err != nil {
		return fmt.Errorf("failed to unmarshal comment job: %w", err)
	}
	return w.commentService.HandleJob(ctx, &job)
}

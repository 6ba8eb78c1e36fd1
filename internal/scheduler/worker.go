package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/postcycle/postcycle/internal/config"
)

// Run starts the asynq worker server and blocks until a shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, engine *Engine, recorder *LastRunRecorder) error {
	srv, mux, err := newServer(cfg, engine, recorder)
	if err != nil {
		return err
	}
	return srv.Run(mux)
}

// Start starts the worker in non-blocking mode and returns a stop function
// so the caller can coordinate shutdown.
func Start(cfg *config.Config, engine *Engine, recorder *LastRunRecorder) (stop func(), err error) {
	srv, mux, err := newServer(cfg, engine, recorder)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, engine *Engine, recorder *LastRunRecorder) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPublishDue, handleSweep(engine.DuePostSweep, TaskPublishDue, recorder))
	mux.HandleFunc(TaskRecycleEvergreen, handleSweep(engine.RecycleSweep, TaskRecycleEvergreen, recorder))
	mux.HandleFunc(TaskAnalyzeEngagement, handleSweep(engine.AnalyzeSweep, TaskAnalyzeEngagement, recorder))
	mux.HandleFunc(TaskPublishPost, handlePublishPost(logger, engine))
	mux.HandleFunc(TaskScheduleOptimal, handleScheduleOptimal(logger, engine))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleSweep runs one periodic sweep body. A sweep-level failure is returned
// to asynq for logging only; the next scheduled tick is the retry.
func handleSweep(sweep func(context.Context) error, taskType string, recorder *LastRunRecorder) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		if err := sweep(ctx); err != nil {
			return err
		}
		recorder.Record(ctx, taskType)
		return nil
	}
}

func handlePublishPost(logger *slog.Logger, engine *Engine) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload postPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing post:publish task", "post_id", payload.PostID)

		if err := engine.PublishNow(ctx, payload.PostID); err != nil {
			if errors.Is(err, ErrPostNotFound) {
				logger.Error("Post not found", "post_id", payload.PostID)
				return fmt.Errorf("post not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("publish failed: %w", err)
		}
		return nil
	}
}

func handleScheduleOptimal(logger *slog.Logger, engine *Engine) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload postPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing post:schedule_optimal task", "post_id", payload.PostID)

		scheduledAt, err := engine.ScheduleOptimal(ctx, payload.PostID)
		if err != nil {
			if errors.Is(err, ErrPostNotFound) {
				logger.Error("Post not found", "post_id", payload.PostID)
				return fmt.Errorf("post not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("optimal scheduling failed: %w", err)
		}

		logger.Info("Post scheduled", "post_id", payload.PostID, "scheduled_at", scheduledAt)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task exhausted its retries",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}

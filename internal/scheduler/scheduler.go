package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/postcycle/postcycle/internal/config"
)

// sweepEntry describes one periodic sweep registration.
type sweepEntry struct {
	taskType string
	schedule string
	// period backs the uniqueness lock: a sweep never overlaps its own next
	// tick, even if the scheduler is accidentally run twice.
	period  time.Duration
	timeout time.Duration
}

// StartScheduler registers the three periodic sweeps on one shared clock and
// starts ticking. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		location = time.UTC
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	sched := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	entries := []sweepEntry{
		{TaskPublishDue, cfg.PublishSchedule, 15 * time.Minute, 10 * time.Minute},
		{TaskRecycleEvergreen, cfg.RecycleSchedule, 24 * time.Hour, 10 * time.Minute},
		{TaskAnalyzeEngagement, cfg.AnalyzeSchedule, 7 * 24 * time.Hour, 30 * time.Minute},
	}

	for _, entry := range entries {
		// MaxRetry(0): a failed sweep is simply retried at its next tick.
		task := asynq.NewTask(
			entry.taskType,
			nil,
			asynq.MaxRetry(0),
			asynq.Timeout(entry.timeout),
			asynq.Retention(24*time.Hour),
			asynq.Unique(entry.period),
		)
		entryID, err := sched.Register(entry.schedule, task)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s schedule: %w", entry.taskType, err)
		}
		logger.Info("Registered periodic sweep",
			"task", entry.taskType,
			"schedule", entry.schedule,
			"entry_id", entryID,
		)
	}

	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("Scheduler started", "timezone", cfg.Timezone)
	return func() { sched.Shutdown() }, nil
}

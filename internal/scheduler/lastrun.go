package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const lastRunKeyPrefix = "scheduler:lastrun:"

// LastRunRecorder keeps the last successful completion time of each sweep in
// Redis so operators (and the health endpoint) can see whether the clock is
// ticking. Recording failures are logged, never propagated: observability
// must not fail a sweep that did its work.
type LastRunRecorder struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewLastRunRecorder creates a recorder with its own Redis connection,
// separate from the asynq internals.
func NewLastRunRecorder(redisURL string, logger *slog.Logger) (*LastRunRecorder, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &LastRunRecorder{rdb: redis.NewClient(opts), logger: logger}, nil
}

// Record stamps the task's last successful run at now.
func (r *LastRunRecorder) Record(ctx context.Context, taskType string) {
	if r == nil {
		return
	}
	key := lastRunKeyPrefix + taskType
	if err := r.rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		r.logger.Warn("Failed to record sweep completion", "task", taskType, "error", err.Error())
	}
}

// Snapshot returns the recorded last-run time per task type. Tasks that have
// never completed are absent from the map.
func (r *LastRunRecorder) Snapshot(ctx context.Context) (map[string]time.Time, error) {
	taskTypes := []string{TaskPublishDue, TaskRecycleEvergreen, TaskAnalyzeEngagement}
	keys := make([]string, len(taskTypes))
	for i, t := range taskTypes {
		keys[i] = lastRunKeyPrefix + t
	}

	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read last-run keys: %w", err)
	}

	snapshot := make(map[string]time.Time, len(taskTypes))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		snapshot[taskTypes[i]] = ts
	}
	return snapshot, nil
}

// Close closes the Redis connection.
func (r *LastRunRecorder) Close() error {
	return r.rdb.Close()
}

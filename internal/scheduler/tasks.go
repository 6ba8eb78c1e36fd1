package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants. The first three are registered periodically; the
// post:* tasks are enqueued on demand by the hosting application.
const (
	TaskPublishDue        = "posts:publish_due"
	TaskRecycleEvergreen  = "posts:recycle_evergreen"
	TaskAnalyzeEngagement = "engagement:analyze"
	TaskPublishPost       = "post:publish"
	TaskScheduleOptimal   = "post:schedule_optimal"
)

// postPayload is the payload of the on-demand post tasks.
type postPayload struct {
	PostID uint `json:"post_id"`
}

// TaskClient enqueues on-demand tasks. Construct one per process and close it
// on shutdown.
type TaskClient struct {
	client *asynq.Client
}

// NewTaskClient creates a TaskClient connected to the given Redis.
func NewTaskClient(redisURL string) (*TaskClient, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &TaskClient{client: asynq.NewClient(opt)}, nil
}

// Close closes the underlying connection.
func (c *TaskClient) Close() error {
	return c.client.Close()
}

// EnqueuePublishPost queues an immediate publish of a single post.
func (c *TaskClient) EnqueuePublishPost(postID uint) error {
	return c.enqueuePostTask(TaskPublishPost, postID)
}

// EnqueueScheduleOptimal queues optimal-time scheduling of a single post.
func (c *TaskClient) EnqueueScheduleOptimal(postID uint) error {
	return c.enqueuePostTask(TaskScheduleOptimal, postID)
}

func (c *TaskClient) enqueuePostTask(taskType string, postID uint) error {
	payload, err := json.Marshal(postPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		taskType,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	_, err = c.client.Enqueue(task)
	return err
}

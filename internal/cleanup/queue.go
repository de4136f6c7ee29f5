// Package cleanup retries image deletes that failed during a request.
package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vicae-a/Blog/internal/metrics"
)

const (
	// StreamKey is the Redis stream of pending image deletes.
	StreamKey = "stream:image_cleanup"

	// DeadLetterStreamKey receives tasks that exhausted their attempts or
	// could not be parsed.
	DeadLetterStreamKey = "stream:image_cleanup:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000

	// EnqueueTimeout bounds a single XADD issued from a request path.
	EnqueueTimeout = 500 * time.Millisecond
)

// ErrEmptyKey is returned when enqueuing a blank object key.
var ErrEmptyKey = errors.New("cleanup key is empty")

// Task is the stream payload for one object delete.
type Task struct {
	Key       string `json:"k"`
	Attempt   int    `json:"a"`
	NotBefore int64  `json:"nb"` // Unix milliseconds
}

// Due reports whether the task may run at now.
func (t Task) Due(now time.Time) bool {
	return now.UnixMilli() >= t.NotBefore
}

// Queue publishes cleanup tasks to Redis.
type Queue struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewQueue creates a cleanup task publisher.
func NewQueue(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Queue {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Queue{
		redis:   client,
		logger:  logger.With("component", "cleanup.queue"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Enqueue schedules the first retry for key.
func (q *Queue) Enqueue(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	ctx, cancel := context.WithTimeout(ctx, EnqueueTimeout)
	defer cancel()

	task := Task{Key: key, NotBefore: q.now().Add(NextRetryDelay(0)).UnixMilli()}
	id, err := q.publish(ctx, task)
	if err != nil {
		return err
	}

	q.logger.Debug("cleanup task enqueued", "key", key, "stream_id", id)
	return nil
}

func (q *Queue) publish(ctx context.Context, task Task) (string, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("marshal task: %w", err)
	}

	id, err := q.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

func parseTask(values map[string]interface{}) (Task, error) {
	raw, ok := values["payload"].(string)
	if !ok {
		return Task{}, errors.New("payload field missing or not a string")
	}

	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return Task{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if task.Key == "" {
		return Task{}, ErrEmptyKey
	}
	if task.Attempt < 0 {
		return Task{}, fmt.Errorf("negative attempt %d", task.Attempt)
	}
	return task, nil
}

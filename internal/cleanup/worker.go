package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vicae-a/Blog/internal/metrics"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "image_cleanup_workers"

	// DefaultBatchSize is the max tasks read per iteration.
	DefaultBatchSize = 50

	// DefaultBlockTimeout is how long to block waiting for tasks.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultIdleDelay is the pause after a batch in which nothing was due.
	DefaultIdleDelay = time.Second
)

// Deleter removes stored objects. media.Store satisfies it.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Worker consumes cleanup tasks and retries deletes.
type Worker struct {
	redis        *redis.Client
	deleter      Deleter
	logger       *slog.Logger
	metrics      metrics.Recorder
	consumerID   string
	batchSize    int
	blockTimeout time.Duration
	idleDelay    time.Duration
	maxAttempts  int
	now          func() time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a cleanup worker.
func NewWorker(client *redis.Client, deleter Deleter, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:        client,
		deleter:      deleter,
		logger:       logger.With("component", "cleanup.worker", "consumer_id", consumerID),
		metrics:      recorder,
		consumerID:   consumerID,
		batchSize:    DefaultBatchSize,
		blockTimeout: DefaultBlockTimeout,
		idleDelay:    DefaultIdleDelay,
		maxAttempts:  DefaultMaxAttempts,
		now:          time.Now,
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// SetMaxAttempts overrides the default attempt limit.
func (w *Worker) SetMaxAttempts(n int) {
	if n > 0 {
		w.maxAttempts = n
	}
}

// Run consumes tasks until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("cleanup worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()
		if draining {
			return nil
		}

		due, err := w.processOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("process error", "error", err)
		}

		if err != nil || due == 0 {
			if !sleep(ctx, w.idleDelay) {
				w.logger.Info("cleanup worker stopping")
				return nil
			}
		}
	}
}

// Shutdown stops the worker and waits for the current batch.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		w.logger.Info("cleanup worker shutdown complete")
		return nil
	case <-ctx.Done():
		w.logger.Warn("cleanup worker shutdown timed out")
		return ctx.Err()
	}
}

func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// processOnce handles one batch and returns how many tasks were due.
func (w *Worker) processOnce(ctx context.Context) (int, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) || len(streams) == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("xreadgroup: %w", err)
	}

	due := 0
	for _, msg := range streams[0].Messages {
		if w.handle(ctx, msg) {
			due++
		}
		if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, msg.ID).Err(); err != nil {
			return due, fmt.Errorf("xack: %w", err)
		}
	}
	return due, nil
}

// handle processes one message. Every outcome ends with the message being
// acknowledged; retries are new stream entries.
func (w *Worker) handle(ctx context.Context, msg redis.XMessage) bool {
	task, err := parseTask(msg.Values)
	if err != nil {
		w.deadLetter(ctx, msg.ID, msg.Values["payload"], "invalid_payload", err.Error())
		return false
	}

	if !task.Due(w.now()) {
		w.requeue(ctx, task)
		return false
	}

	if err := w.deleter.Delete(ctx, task.Key); err != nil {
		task.Attempt++
		if IsExhausted(task.Attempt, w.maxAttempts) {
			w.deadLetter(ctx, msg.ID, msg.Values["payload"], "exhausted", err.Error())
			return true
		}
		w.logger.Warn("image delete retry failed",
			"key", task.Key,
			"attempt", task.Attempt,
			"error", err,
		)
		task.NotBefore = w.now().Add(NextRetryDelay(task.Attempt)).UnixMilli()
		w.requeue(ctx, task)
		return true
	}

	w.logger.Info("image deleted on retry", "key", task.Key, "attempt", task.Attempt+1)
	w.metrics.IncImageCleanup(metrics.OutcomeSuccess)
	return true
}

func (w *Worker) requeue(ctx context.Context, task Task) {
	q := Queue{redis: w.redis}
	if _, err := q.publish(ctx, task); err != nil {
		w.logger.Error("failed to requeue cleanup task", "key", task.Key, "error", err)
		w.metrics.IncImageCleanup(metrics.OutcomeDropped)
	}
}

func (w *Worker) deadLetter(ctx context.Context, id string, payload interface{}, reason, detail string) {
	w.logger.Warn("dead-lettering cleanup task",
		"message_id", id,
		"reason", reason,
		"detail", detail,
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      id,
			"reason":           reason,
			"detail":           detail,
			"payload":          payload,
			"dead_lettered_at": w.now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write to dead-letter stream", "message_id", id, "error", err)
	}

	w.metrics.IncImageCleanup(metrics.OutcomeFailed)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

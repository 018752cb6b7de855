package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillsenselab/audiopipe/redis"
)

const (
	queueKey = "audiopipe:jobs"

	// delayedKey holds jobs awaiting their retry delay, scored by the
	// millisecond timestamp at which they become due.
	delayedKey = "audiopipe:jobs:delayed"
)

// Queue is a Redis-backed FIFO job queue (LPUSH producer, BRPOP consumer).
type Queue struct {
	client *redis.Client
}

// NewQueue creates a queue on the given Redis client.
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Enqueue pushes a job onto the queue.
func (q *Queue) Enqueue(ctx context.Context, j Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("job: marshal: %w", err)
	}
	if err := q.client.Unwrap().LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("job: enqueue: %w", err)
	}
	return nil
}

// EnqueueDelayed parks the job in the delayed set until the delay elapses;
// MoveDue promotes it onto the queue. Parked jobs live in Redis, so a crash
// during the delay cannot lose them.
func (q *Queue) EnqueueDelayed(ctx context.Context, j Job, delay time.Duration) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("job: marshal: %w", err)
	}
	due := time.Now().Add(delay).UnixMilli()
	member := goredis.Z{Score: float64(due), Member: data}
	if err := q.client.Unwrap().ZAdd(ctx, delayedKey, member).Err(); err != nil {
		return fmt.Errorf("job: enqueue delayed: %w", err)
	}
	return nil
}

// MoveDue promotes delayed jobs whose delay has elapsed onto the queue. Safe
// to call from concurrent workers: ZREM arbitrates, so each job is promoted
// exactly once.
func (q *Queue) MoveDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.client.Unwrap().ZRangeByScore(ctx, delayedKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("job: scan delayed: %w", err)
	}

	for _, member := range due {
		removed, err := q.client.Unwrap().ZRem(ctx, delayedKey, member).Result()
		if err != nil {
			return fmt.Errorf("job: claim delayed: %w", err)
		}
		if removed == 0 {
			// Another worker claimed it first.
			continue
		}
		if err := q.client.Unwrap().LPush(ctx, queueKey, member).Err(); err != nil {
			return fmt.Errorf("job: promote delayed: %w", err)
		}
	}
	return nil
}

// DelayedLen returns the number of jobs awaiting their retry delay.
func (q *Queue) DelayedLen(ctx context.Context) (int64, error) {
	n, err := q.client.Unwrap().ZCard(ctx, delayedKey).Result()
	if err != nil {
		return 0, fmt.Errorf("job: delayed length: %w", err)
	}
	return n, nil
}

// Dequeue blocks until a job is available or the timeout elapses. Returns
// (nil, nil) on timeout so callers can loop on a fresh context.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.Unwrap().BRPop(ctx, timeout, queueKey).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("job: dequeue: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("job: unexpected brpop reply length %d", len(res))
	}

	var j Job
	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return nil, fmt.Errorf("job: unmarshal: %w", err)
	}
	return &j, nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.Unwrap().LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("job: queue length: %w", err)
	}
	return n, nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue is a list backed queue: LPUSH on one end, BRPOP on the other.
// Events survive a process restart; delayed retries do not.
type RedisQueue struct {
	client   *redis.Client
	key      string
	maxLen   int64
	pollWait time.Duration
	closed   atomic.Bool
}

func NewRedisQueue(client *redis.Client, key string, maxLen int) *RedisQueue {
	return &RedisQueue{
		client:   client,
		key:      key,
		maxLen:   int64(maxLen),
		pollWait: time.Second,
	}
}

func (q *RedisQueue) Push(ctx context.Context, ev Event) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	if q.maxLen > 0 {
		n, err := q.client.LLen(ctx, q.key).Result()
		if err != nil {
			return fmt.Errorf("failed to read queue length: %w", err)
		}
		if n >= q.maxLen {
			return ErrQueueFull
		}
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push event: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (Event, error) {
	for {
		if q.closed.Load() {
			return Event{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		res, err := q.client.BRPop(ctx, q.pollWait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			return Event{}, fmt.Errorf("failed to pop event: %w", err)
		}

		// BRPOP returns [key, value].
		var ev Event
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
			return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return ev, nil
	}
}

// Close stops Push and Pop. Queued events stay in Redis.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

package events

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Queue buffers events between Dispatch and the workers. Push must not
// block on a full queue.
type Queue interface {
	Push(ctx context.Context, ev Event) error
	// Pop blocks until an event is available, ctx ends or the queue is
	// closed and drained.
	Pop(ctx context.Context) (Event, error)
	Close() error
}

type MemoryQueue struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{ch: make(chan Event, size)}
}

func (q *MemoryQueue) Push(_ context.Context, ev Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-q.ch:
		if !ok {
			return Event{}, ErrQueueClosed
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

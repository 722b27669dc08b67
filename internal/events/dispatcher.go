package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/agenda-engine/internal/metrics"
)

type subscriber struct {
	name    string
	handler Handler
}

// Dispatcher fans queued events out to subscribers on a fixed worker pool.
// Dispatch never blocks and never fails the caller: a full queue drops the
// event. A failing subscriber gets the event again, alone, after a backoff.
type Dispatcher struct {
	queue  Queue
	policy RetryPolicy
	log    *zerolog.Logger

	mu          sync.RWMutex
	subscribers map[Type][]subscriber

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	retryMu sync.Mutex
	retries map[*time.Timer]struct{}
	closed  bool

	pushTimeout time.Duration
	now         func() time.Time
}

type Options struct {
	Workers int
	Policy  RetryPolicy
}

func NewDispatcher(queue Queue, opts Options, log *zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:       queue,
		policy:      opts.Policy,
		log:         log,
		subscribers: make(map[Type][]subscriber),
		ctx:         ctx,
		cancel:      cancel,
		retries:     make(map[*time.Timer]struct{}),
		pushTimeout: 2 * time.Second,
		now:         time.Now,
	}

	d.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Subscribe registers handler for t under name. Names identify the
// subscriber on retries and must be unique per type.
func (d *Dispatcher) Subscribe(t Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[t] = append(d.subscribers[t], subscriber{name: name, handler: handler})
}

func (d *Dispatcher) Dispatch(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = d.now().UTC()
	}
	d.push(ev)
}

func (d *Dispatcher) push(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.pushTimeout)
	defer cancel()

	if err := d.queue.Push(ctx, ev); err != nil {
		reason := "push_failed"
		switch {
		case errors.Is(err, ErrQueueFull):
			reason = "queue_full"
		case errors.Is(err, ErrQueueClosed):
			reason = "closed"
		}
		metrics.IncEventDropped(reason)
		d.log.Warn().
			Err(err).
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Type)).
			Str("target", ev.Target).
			Msg("dropping event")
	}
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()

	for {
		ev, err := d.queue.Pop(d.ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || d.ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Msg("event queue read failed")
			select {
			case <-time.After(time.Second):
			case <-d.ctx.Done():
				return
			}
			continue
		}

		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	d.mu.RLock()
	subs := append([]subscriber(nil), d.subscribers[ev.Type]...)
	d.mu.RUnlock()

	for _, sub := range subs {
		if ev.Target != "" && ev.Target != sub.name {
			continue
		}

		if err := d.invoke(sub, ev); err != nil {
			d.retry(sub, ev, err)
		}
	}
}

func (d *Dispatcher) invoke(sub subscriber, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("subscriber", sub.name).Msg("event handler panicked")
			err = errors.New("event handler panicked")
		}
	}()
	return sub.handler(d.ctx, ev)
}

func (d *Dispatcher) retry(sub subscriber, ev Event, cause error) {
	attempt := ev.Attempt + 1
	logEv := d.log.Warn().
		Err(cause).
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Str("subscriber", sub.name).
		Int("attempt", attempt)

	if IsPermanent(cause) {
		metrics.IncEventDropped("permanent")
		logEv.Msg("event handler failed permanently")
		return
	}

	if !d.policy.ShouldRetry(ev.Attempt) {
		metrics.IncEventDropped("retries_exhausted")
		logEv.Msg("event handler failed, giving up")
		return
	}

	next := ev
	next.Target = sub.name
	next.Attempt = attempt
	delay := d.policy.NextDelay(attempt)
	logEv.Dur("retry_in", delay).Msg("event handler failed, retrying")

	d.retryMu.Lock()
	defer d.retryMu.Unlock()
	if d.closed {
		metrics.IncEventDropped("closed")
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.retryMu.Lock()
		_, pending := d.retries[timer]
		delete(d.retries, timer)
		d.retryMu.Unlock()

		if pending {
			d.push(next)
		}
	})
	d.retries[timer] = struct{}{}
}

// Close stops accepting retries, lets the workers drain what is already
// queued and waits for them. Pending delayed retries are discarded.
func (d *Dispatcher) Close() {
	d.retryMu.Lock()
	d.closed = true
	for timer := range d.retries {
		timer.Stop()
		delete(d.retries, timer)
	}
	d.retryMu.Unlock()

	_ = d.queue.Close()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		d.log.Warn().Msg("event workers did not drain in time")
	}
	d.cancel()
	<-done
}

var _ Publisher = (*Dispatcher)(nil)

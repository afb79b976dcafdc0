package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/eventreg/internal/adapter/events"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

// OutboxFacade exposes the subset of application functionality required by the relay.
type OutboxFacade interface {
	PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkEventSent(ctx context.Context, id int64) error
}

// PublishObserver is told about every delivery attempt.
type PublishObserver interface {
	ObservePublish(ok bool)
}

type job struct {
	batch uint64
	event model.OutboxEvent
}

// OutboxRelay polls the outbox and publishes pending events with a pool of workers.
// Events sharing a key always go to the same worker, so they are published in id order.
// When one of them fails, the rest of that key's batch is left for the next lease.
type OutboxRelay struct {
	facade       OutboxFacade
	publisher    events.Publisher
	observer     PublishObserver
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   []chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOutboxRelay constructs the relay worker pool. observer may be nil.
func NewOutboxRelay(facade OutboxFacade, publisher events.Publisher, observer PublishObserver, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *OutboxRelay {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	jobs := make([]chan job, workers)
	for i := range jobs {
		jobs[i] = make(chan job, batchSize)
	}
	return &OutboxRelay{
		facade:       facade,
		publisher:    publisher,
		observer:     observer,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         jobs,
	}
}

// Start launches background processing.
func (r *OutboxRelay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, r.jobs[i])
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *OutboxRelay) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *OutboxRelay) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer func() {
		for _, ch := range r.jobs {
			close(ch)
		}
	}()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var batch uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch++
			r.fetchAndDispatch(ctx, batch)
		}
	}
}

func (r *OutboxRelay) fetchAndDispatch(ctx context.Context, batch uint64) {
	pending, err := r.facade.PendingEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch pending events failed", slog.String("error", err.Error()))
		return
	}
	for _, event := range pending {
		select {
		case <-ctx.Done():
			return
		case r.jobs[r.shard(event.Key)] <- job{batch: batch, event: event}:
		}
	}
}

func (r *OutboxRelay) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(r.workers))
}

func (r *OutboxRelay) worker(ctx context.Context, jobs <-chan job) {
	defer r.wg.Done()

	var (
		blockedBatch uint64
		blocked      = map[string]struct{}{}
	)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if j.batch != blockedBatch {
				blockedBatch = j.batch
				clear(blocked)
			}
			if _, skip := blocked[j.event.Key]; skip {
				continue
			}
			if !r.handleEvent(ctx, j.event) {
				blocked[j.event.Key] = struct{}{}
			}
		}
	}
}

func (r *OutboxRelay) handleEvent(ctx context.Context, event model.OutboxEvent) bool {
	err := r.publisher.Publish(ctx, event)
	if r.observer != nil {
		r.observer.ObservePublish(err == nil)
	}
	if err != nil {
		r.logger.Error("publish event failed",
			slog.Int64("id", event.ID),
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		var limited events.TooManyRequestsError
		if errors.As(err, &limited) {
			r.logger.Warn("publisher rate limited", slog.Duration("retry_after", limited.RetryAfter))
			pause(ctx, limited.RetryAfter)
		}
		return false
	}

	if err := r.facade.MarkEventSent(ctx, event.ID); err != nil {
		r.logger.Error("mark event sent failed", slog.Int64("id", event.ID), slog.String("error", err.Error()))
	}
	return true
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

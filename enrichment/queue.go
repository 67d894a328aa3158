package enrichment

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shacharon/grubroute/internal/pool"
)

// job is one deep-link resolution unit of work.
type job struct {
	RequestID string
	PlaceID   string
	Name      string
	City      string
}

// providerQPS and providerBurst bound how fast one provider's queue
// drains into outbound search calls, independent of how fast jobs are
// enqueued — a burst of placeIds from one search response must not turn
// into a burst of outbound requests against a single delivery provider.
const (
	providerQPS   = 2
	providerBurst = 4
)

// queue is one provider's in-process FIFO: a single worker (MaxWorkers
// set to 1 keeps processing order equal to enqueue order, and caps
// concurrency at 1-per-provider per spec.md §4.9) plus a dedup set so a
// placeId already queued is dropped rather than double-enqueued, and a
// rate limiter so the worker paces outbound calls rather than firing
// them back-to-back.
type queue struct {
	pool    *pool.GoroutinePool
	limiter *rate.Limiter
	mu      sync.Mutex
	pending map[string]bool
	logger  *zap.Logger
	handle  func(ctx context.Context, j job) error
}

func newQueue(queueSize int, logger *zap.Logger, handle func(ctx context.Context, j job) error) *queue {
	p := pool.NewGoroutinePool(pool.GoroutinePoolConfig{
		MaxWorkers: 1,
		QueueSize:  queueSize,
	})
	return &queue{
		pool:    p,
		limiter: rate.NewLimiter(rate.Limit(providerQPS), providerBurst),
		pending: make(map[string]bool),
		logger:  logger,
		handle:  handle,
	}
}

// Enqueue is idempotent per placeId: if a job for the same placeId is
// already queued, the new one is dropped and logged as deduplicated.
// The job runs detached from the triggering request's context — it must
// outlive the HTTP/WS handler that returned PENDING to the caller; the
// worker imposes its own 30-s job timeout instead.
func (q *queue) Enqueue(j job) {
	q.mu.Lock()
	if q.pending[j.PlaceID] {
		q.mu.Unlock()
		q.logger.Debug("enrichment job deduplicated", zap.String("placeId", j.PlaceID))
		return
	}
	q.pending[j.PlaceID] = true
	q.mu.Unlock()

	err := q.pool.Submit(context.Background(), func(taskCtx context.Context) error {
		defer q.clear(j.PlaceID)
		if err := q.limiter.Wait(taskCtx); err != nil {
			return err
		}
		return q.handle(taskCtx, j)
	})
	if err != nil {
		q.clear(j.PlaceID)
		q.logger.Warn("enrichment job rejected", zap.String("placeId", j.PlaceID), zap.Error(err))
	}
}

func (q *queue) clear(placeID string) {
	q.mu.Lock()
	delete(q.pending, placeID)
	q.mu.Unlock()
}

func (q *queue) Close() {
	q.pool.Close()
}

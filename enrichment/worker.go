package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/internal/retry"
	"github.com/shacharon/grubroute/types"
)

const (
	jobTimeout         = 30 * time.Second
	searchAttemptBound = 20 * time.Second
)

// jobRetryPolicy is the worker-level retry around one resolver attempt:
// 2 retries, 1s then 2s backoff, on transient errors (spec.md §4.9).
func jobRetryPolicy() *retry.Policy {
	return &retry.Policy{MaxRetries: 2, InitialDelay: time.Second, MaxDelay: 2 * time.Second, Multiplier: 2}
}

// Publisher delivers a result.patch to whatever subscribers (or backlog)
// the session layer is holding for (channel, requestId). enrichment never
// imports session directly; cmd/grubroled wires a concrete Publisher
// (the session hub) in at startup.
type Publisher interface {
	PublishResultPatch(ctx context.Context, requestID string, patch ResultPatch) error
}

// ResultPatch is the `result.patch` event body: a partial update to one
// place's provider slots, addressed by placeId.
type ResultPatch struct {
	Type      string                                         `json:"type"`
	RequestID string                                         `json:"requestId"`
	PlaceID   string                                         `json:"placeId"`
	Providers map[types.DeliveryProvider]types.ProviderSlot `json:"providers"`
}

// worker drains one provider's queue: re-verifies the lock, runs the
// resolver under a bounded timeout with retry, scores candidates, writes
// the cache entry, clears the lock, and publishes the patch.
type worker struct {
	provider  types.DeliveryProvider
	resolver  *Resolver
	cacheMgr  *cache.Manager
	publisher Publisher
	retryer   retry.Retryer
	logger    *zap.Logger
}

func newWorker(provider types.DeliveryProvider, resolver *Resolver, cacheMgr *cache.Manager, publisher Publisher, logger *zap.Logger) *worker {
	return &worker{
		provider:  provider,
		resolver:  resolver,
		cacheMgr:  cacheMgr,
		publisher: publisher,
		retryer:   retry.NewRetryer(jobRetryPolicy(), logger),
		logger:    logger.With(zap.String("component", "enrichment.worker"), zap.String("provider", string(provider))),
	}
}

// run executes one job end to end. It never returns an error that would
// cause the caller to retry at the queue level — all failure paths end
// in a NOT_FOUND safety publish, per spec.md §4.9's "safety nets".
func (w *worker) run(ctx context.Context, j job) error {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	lockKey := cache.ProviderLockKey(string(w.provider), j.PlaceID)
	defer func() {
		if err := w.cacheMgr.Delete(context.Background(), lockKey); err != nil {
			w.logger.Warn("failed to release enrichment lock", zap.String("placeId", j.PlaceID), zap.Error(err))
		}
	}()

	held, err := w.cacheMgr.Exists(jobCtx, lockKey)
	if err != nil || held == 0 {
		w.logger.Warn("enrichment lock missing at worker start, proceeding anyway", zap.String("placeId", j.PlaceID), zap.Error(err))
	}

	candidates, err := w.resolveWithRetry(jobCtx, j)
	if err != nil {
		w.logger.Warn("resolver failed, publishing NOT_FOUND", zap.String("placeId", j.PlaceID), zap.Error(err))
		return w.writeAndPublish(jobCtx, j, types.ProviderSlot{Status: types.ProviderNotFound})
	}

	best, found := pickBest(candidates, j.Name, j.City)
	if !found {
		return w.writeAndPublish(jobCtx, j, types.ProviderSlot{Status: types.ProviderNotFound})
	}

	url := best.URL
	now := time.Now().UTC()
	return w.writeAndPublish(jobCtx, j, types.ProviderSlot{Status: types.ProviderFound, URL: &url, UpdatedAt: &now})
}

func (w *worker) resolveWithRetry(ctx context.Context, j job) ([]candidate, error) {
	result, err := w.retryer.DoWithResult(ctx, func() (any, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, searchAttemptBound)
		defer cancel()
		return w.resolver.Resolve(attemptCtx, w.provider, j.Name, j.City)
	})
	if err != nil {
		return nil, err
	}
	candidates, _ := result.([]candidate)
	return candidates, nil
}

func (w *worker) writeAndPublish(ctx context.Context, j job, slot types.ProviderSlot) error {
	key := cache.ProviderKey(string(w.provider), j.PlaceID)
	status := cache.StatusNotFound
	if slot.Status == types.ProviderFound {
		status = cache.StatusFound
	}
	if err := cache.PutEntry(ctx, w.cacheMgr, key, slot, status, cache.TTLProviderFound, cache.TTLProviderNotFound); err != nil {
		w.logger.Warn("failed to write enrichment cache entry", zap.String("placeId", j.PlaceID), zap.Error(err))
	}

	if w.publisher == nil {
		return nil
	}
	patch := ResultPatch{
		Type:      "result.patch",
		RequestID: j.RequestID,
		PlaceID:   j.PlaceID,
		Providers: map[types.DeliveryProvider]types.ProviderSlot{w.provider: slot},
	}
	if err := w.publisher.PublishResultPatch(context.Background(), j.RequestID, patch); err != nil {
		w.logger.Warn("failed to publish result patch", zap.String("placeId", j.PlaceID), zap.Error(err))
	}
	return nil
}

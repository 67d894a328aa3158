package enrichment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/internal/cache"
	"github.com/shacharon/grubroute/types"
)

const defaultQueueSize = 100

// Service is the entry point an orchestrator calls after ranking: for
// every result with a placeId and every enabled provider, it attaches a
// ProviderSlot synchronously (cache hit, or PENDING) and kicks off
// background resolution without ever blocking the caller (spec.md §4.7).
type Service struct {
	enabled  map[types.DeliveryProvider]bool
	cacheMgr *cache.Manager
	queues   map[types.DeliveryProvider]*queue
	logger   *zap.Logger
}

// NewService wires one queue+worker per enabled provider.
// searchByProvider gives the SearchProvider a provider's Resolver uses; a
// nil (or missing) entry still gets a queue and worker, but its Resolver
// has no engine, so every job for that provider ends in the worker's
// safety-net NOT_FOUND publish.
func NewService(
	enabled map[types.DeliveryProvider]bool,
	cacheMgr *cache.Manager,
	searchByProvider map[types.DeliveryProvider]SearchProvider,
	publisher Publisher,
	logger *zap.Logger,
) *Service {
	logger = logger.With(zap.String("component", "enrichment.service"))
	s := &Service{enabled: enabled, cacheMgr: cacheMgr, queues: make(map[types.DeliveryProvider]*queue), logger: logger}

	for provider, on := range enabled {
		if !on {
			continue
		}
		search := searchByProvider[provider]
		resolver := NewResolver(search)
		w := newWorker(provider, resolver, cacheMgr, publisher, logger)
		s.queues[provider] = newQueue(defaultQueueSize, logger, w.run)
	}
	return s
}

// Close stops every provider's queue.
func (s *Service) Close() {
	for _, q := range s.queues {
		q.Close()
	}
}

// Attach mutates result in place, filling result.Providers for every
// enabled provider. cityText is the request's resolved city (from
// FinalSharedFilters), used to build the resolver's search queries. It
// never blocks on network I/O beyond a cache read and a non-blocking
// SETNX lock attempt.
func (s *Service) Attach(ctx context.Context, requestID, cityText string, result *types.RestaurantResult) {
	if result.PlaceID == "" {
		return
	}
	if result.Providers == nil {
		result.Providers = make(map[types.DeliveryProvider]types.ProviderSlot)
	}

	for _, provider := range types.AllDeliveryProviders {
		if !s.enabled[provider] {
			continue
		}
		result.Providers[provider] = s.attachOne(ctx, requestID, cityText, provider, result.PlaceID, result.Name)
	}
}

func (s *Service) attachOne(ctx context.Context, requestID, cityText string, provider types.DeliveryProvider, placeID, name string) types.ProviderSlot {
	key := cache.ProviderKey(string(provider), placeID)
	entry, err := cache.GetEntry[types.ProviderSlot](ctx, s.cacheMgr, key)
	if err == nil {
		return entry.Value
	}
	if !cache.IsCacheMiss(err) {
		s.logger.Warn("enrichment cache read failed", zap.String("placeId", placeID), zap.Error(err))
	}

	s.tryEnqueue(requestID, cityText, provider, placeID, name)
	return types.ProviderSlot{Status: types.ProviderPending}
}

// tryEnqueue attempts the non-blocking SETNX lock and, on success,
// enqueues the resolution job. A held lock means a peer request is
// already resolving this placeId/provider pair; this call is then a
// no-op, matching spec.md §4.7's "no-op — peer resolving" behavior.
func (s *Service) tryEnqueue(requestID, cityText string, provider types.DeliveryProvider, placeID, name string) {
	q, ok := s.queues[provider]
	if !ok {
		return
	}

	lockKey := cache.ProviderLockKey(string(provider), placeID)
	lockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	acquired, err := s.cacheMgr.SetNX(lockCtx, lockKey, cache.TTLProviderLock)
	if err != nil {
		s.logger.Warn("enrichment lock attempt failed", zap.String("placeId", placeID), zap.Error(err))
		return
	}
	if !acquired {
		return
	}

	q.Enqueue(job{RequestID: requestID, PlaceID: placeID, Name: name, City: cityText})
}

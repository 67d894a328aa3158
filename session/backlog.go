package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/enrichment"
	"github.com/shacharon/grubroute/types"
)

// backlogCap and backlogTTL bound the FIFO held per (channel, requestId)
// while no subscriber is attached (spec.md §4.6).
const (
	backlogCap = 50
	backlogTTL = 2 * time.Minute
)

type backlogEntry struct {
	msg       Message
	expiresAt time.Time
}

// Hub is the session layer's single publish point: it fans a message out
// to every current subscriber of (channel, requestId), best-effort, and
// holds a FIFO backlog for the case where none are attached yet. It
// implements both orchestrator.EventPublisher and enrichment.Publisher so
// the orchestrator and the enrichment worker can each be handed the same
// concrete value without importing this package's Manager directly.
type Hub struct {
	mgr *Manager

	mu       sync.Mutex
	backlogs map[types.SubscriptionKey][]backlogEntry
	dropped  map[types.SubscriptionKey]int

	logger *zap.Logger
}

// NewHub wraps mgr with backlog and delivery logic.
func NewHub(mgr *Manager, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		mgr:      mgr,
		backlogs: make(map[types.SubscriptionKey][]backlogEntry),
		dropped:  make(map[types.SubscriptionKey]int),
		logger:   logger.With(zap.String("component", "session_hub")),
	}
}

// Subscribe subscribes sub and, if the subscription became active
// immediately (job already registered, ownership check passed), drains
// any backlog for key into it in FIFO order.
func (h *Hub) Subscribe(sub Subscriber, channel types.SubscriptionChannel, requestID string, identity Identity) (ack bool, nackReason string) {
	active, ack, nackReason := h.mgr.subscribe(sub, channel, requestID, identity)
	if active {
		key := types.SubscriptionKey{Channel: channel, RequestID: requestID}
		h.drain(key, sub)
	}
	return ack, nackReason
}

// Unsubscribe delegates to the manager; a backlog outlives the
// subscriber that was absent when it formed, so it is left untouched.
func (h *Hub) Unsubscribe(sub Subscriber, channel types.SubscriptionChannel, requestID string) {
	h.mgr.Unsubscribe(sub, channel, requestID)
}

// RemoveSubscriber delegates to the manager for connection-close cleanup.
func (h *Hub) RemoveSubscriber(sub Subscriber) {
	h.mgr.RemoveSubscriber(sub)
}

// RegisterOwner records requestID's owner and, for every pending
// subscription that promotes as a result, drains its backlog too.
func (h *Hub) RegisterOwner(requestID string, owner types.OwnerRecord) {
	promoted := h.mgr.registerOwner(requestID, owner)
	for _, p := range promoted {
		h.drain(p.key, p.sub)
	}
}

// drain flushes key's backlog into sub in FIFO order, then clears it.
// Caller must not hold h.mu.
func (h *Hub) drain(key types.SubscriptionKey, sub Subscriber) {
	h.mu.Lock()
	entries := h.backlogs[key]
	delete(h.backlogs, key)
	delete(h.dropped, key)
	h.mu.Unlock()

	now := time.Now()
	for _, e := range entries {
		if now.After(e.expiresAt) {
			continue
		}
		if err := sub.Send(e.msg); err != nil {
			h.logger.Warn("ws_backlog_drain_send_failed", zap.String("subscriberId", sub.ID()), zap.Error(err))
		}
	}
}

// publish delivers msg to every current subscriber of key, best-effort.
// With none attached, it appends to the backlog (dropping the oldest
// entry, with a counter, once backlogCap is reached).
func (h *Hub) publish(key types.SubscriptionKey, msg Message) {
	subs := h.mgr.Subscribers(key)
	if len(subs) > 0 {
		sent, failed := 0, 0
		for _, s := range subs {
			if err := s.Send(msg); err != nil {
				failed++
				continue
			}
			sent++
		}
		h.logger.Debug("ws_publish", zap.String("requestId", key.RequestID), zap.String("channel", string(key.Channel)), zap.String("type", string(msg.Type)), zap.Int("sent", sent), zap.Int("failed", failed))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.backlogs[key]
	if len(entries) >= backlogCap {
		entries = entries[1:]
		h.dropped[key]++
		h.logger.Warn("ws_backlog_overflow", zap.String("requestId", key.RequestID), zap.String("channel", string(key.Channel)), zap.Int("totalDropped", h.dropped[key]))
	}
	entries = append(entries, backlogEntry{msg: msg, expiresAt: time.Now().Add(backlogTTL)})
	h.backlogs[key] = entries
}

// EvictExpired drops backlog entries past their TTL. Intended to run
// periodically from a background ticker owned by the process wiring
// this Hub together.
func (h *Hub) EvictExpired(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, entries := range h.backlogs {
		kept := entries[:0]
		for _, e := range entries {
			if now.After(e.expiresAt) {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(h.backlogs, key)
			delete(h.dropped, key)
		} else {
			h.backlogs[key] = kept
		}
	}
}

// PublishStatus implements orchestrator.EventPublisher.
func (h *Hub) PublishStatus(requestID string, stage string) {
	h.publish(types.SubscriptionKey{Channel: types.ChannelSearch, RequestID: requestID}, Message{
		Type:      MsgStatus,
		Channel:   types.ChannelSearch,
		RequestID: requestID,
		Stage:     stage,
	})
}

// PublishResults implements orchestrator.EventPublisher.
func (h *Hub) PublishResults(requestID string, results []types.RestaurantResult) {
	h.publish(types.SubscriptionKey{Channel: types.ChannelSearch, RequestID: requestID}, Message{
		Type:      MsgResults,
		Channel:   types.ChannelSearch,
		RequestID: requestID,
		Results:   results,
	})
}

// PublishResultPatch implements enrichment.Publisher. Patches go to the
// same channel as the initial results (spec.md §4.9 step 5: "Publish a
// result.patch message … to (search, requestId)") so the subscriber that
// received the results message also receives its enrichment updates.
func (h *Hub) PublishResultPatch(ctx context.Context, requestID string, patch enrichment.ResultPatch) error {
	h.publish(types.SubscriptionKey{Channel: types.ChannelSearch, RequestID: requestID}, Message{
		Type:      MsgResultPatch,
		Channel:   types.ChannelSearch,
		RequestID: requestID,
		PlaceID:   patch.PlaceID,
		Patch:     &ResultPatchBody{Providers: patch.Providers},
	})
	return nil
}

package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shacharon/grubroute/types"
)

// pendingTTL is how long a subscription attempt for a not-yet-registered
// job is held before it silently expires (spec.md §4.5).
const pendingTTL = 90 * time.Second

type pendingSubscription struct {
	subscriber Subscriber
	identity   Identity
	expiresAt  time.Time
}

// Manager is the subscription registry: key=(channel,requestId) →
// Set<subscriber> and the inverse subscriber → Set<key>, plus the
// per-requestId OwnerRecord used for ownership checks and a holding area
// for subscriptions that arrived before their job was registered.
type Manager struct {
	mu           sync.RWMutex
	subs         map[types.SubscriptionKey]map[string]Subscriber
	bySubscriber map[string]map[types.SubscriptionKey]bool
	owners       map[string]types.OwnerRecord
	pending      map[types.SubscriptionKey][]pendingSubscription
	requireAuth  bool
	logger       *zap.Logger
}

// NewManager builds a Manager. requireAuth mirrors FeatureFlags.WSRequireAuth:
// when false AND the subscriber is the documented anonymous identity, the
// session-mismatch ownership check is bypassed (spec.md §4.5) — never true
// in production.
func NewManager(requireAuth bool, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		subs:         make(map[types.SubscriptionKey]map[string]Subscriber),
		bySubscriber: make(map[string]map[types.SubscriptionKey]bool),
		owners:       make(map[string]types.OwnerRecord),
		pending:      make(map[types.SubscriptionKey][]pendingSubscription),
		requireAuth:  requireAuth,
		logger:       logger.With(zap.String("component", "session_manager")),
	}
}

// RegisterOwner records a job's OwnerRecord at creation time and
// promotes any pending subscriptions for it whose ownership now
// matches. Call this once, as soon as a requestId is known to exist.
func (m *Manager) RegisterOwner(requestID string, owner types.OwnerRecord) {
	m.registerOwner(requestID, owner)
}

// registerOwner is RegisterOwner's internal form, returning the
// promotions it made so a wrapping Hub can drain their backlogs.
func (m *Manager) registerOwner(requestID string, owner types.OwnerRecord) []promotion {
	m.mu.Lock()
	m.owners[requestID] = owner
	toPromote := m.drainMatchingPendingLocked(requestID, owner)
	for _, p := range toPromote {
		m.addLocked(p.key, p.sub)
	}
	m.mu.Unlock()

	for _, p := range toPromote {
		m.logger.Info("ws_subscribe_promoted", zap.String("requestId", requestID), zap.String("subscriberId", p.sub.ID()))
	}
	return toPromote
}

type promotion struct {
	key types.SubscriptionKey
	sub Subscriber
}

func (m *Manager) drainMatchingPendingLocked(requestID string, owner types.OwnerRecord) []promotion {
	var out []promotion
	for _, channel := range []types.SubscriptionChannel{types.ChannelSearch, types.ChannelAssistant} {
		key := types.SubscriptionKey{Channel: channel, RequestID: requestID}
		entries := m.pending[key]
		if len(entries) == 0 {
			continue
		}
		now := time.Now()
		var kept []pendingSubscription
		for _, e := range entries {
			if now.After(e.expiresAt) {
				continue
			}
			if m.authorizeLocked(owner, e.identity) == "" {
				out = append(out, promotion{key: key, sub: e.subscriber})
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(m.pending, key)
		} else {
			m.pending[key] = kept
		}
	}
	return out
}

// addLocked is the shared "actually insert into both maps" step; caller
// holds m.mu.
func (m *Manager) addLocked(key types.SubscriptionKey, sub Subscriber) {
	if m.subs[key] == nil {
		m.subs[key] = make(map[string]Subscriber)
	}
	m.subs[key][sub.ID()] = sub

	if m.bySubscriber[sub.ID()] == nil {
		m.bySubscriber[sub.ID()] = make(map[types.SubscriptionKey]bool)
	}
	m.bySubscriber[sub.ID()][key] = true
}

// authorizeLocked applies the ownership-check rules from spec.md §4.5.
// Returns "" when authorized, else a nack reason.
func (m *Manager) authorizeLocked(owner types.OwnerRecord, identity Identity) string {
	if owner.OwnerUserID != "" && owner.OwnerUserID != identity.UserID {
		return "user_mismatch"
	}
	if owner.OwnerSessionID != "" && owner.OwnerSessionID != identity.SessionID {
		devBypass := !m.requireAuth && identity.IsAnonymous()
		if !devBypass {
			return "session_mismatch"
		}
	}
	return ""
}

// Subscribe attempts to subscribe sub to (channel, requestId), applying
// the ownership check when the job is already known, or holding the
// attempt in pending when it is not (spec.md §4.5). Idempotent.
func (m *Manager) Subscribe(sub Subscriber, channel types.SubscriptionChannel, requestID string, identity Identity) (ack bool, nackReason string) {
	_, ack, nackReason = m.subscribe(sub, channel, requestID, identity)
	return ack, nackReason
}

// subscribe is Subscribe's internal form; active reports whether sub was
// inserted into m.subs immediately (job already registered and
// authorized) as opposed to held in pending, so a wrapping Hub knows
// whether to drain a backlog right away.
func (m *Manager) subscribe(sub Subscriber, channel types.SubscriptionChannel, requestID string, identity Identity) (active, ack bool, nackReason string) {
	key := types.SubscriptionKey{Channel: channel, RequestID: requestID}
	m.logger.Info("ws_subscribe_attempt", zap.String("requestId", requestID), zap.String("channel", string(channel)), zap.String("subscriberId", sub.ID()))

	m.mu.Lock()
	owner, known := m.owners[requestID]
	if !known {
		m.pending[key] = append(m.pending[key], pendingSubscription{
			subscriber: sub,
			identity:   identity,
			expiresAt:  time.Now().Add(pendingTTL),
		})
		m.mu.Unlock()
		return false, true, ""
	}

	if reason := m.authorizeLocked(owner, identity); reason != "" {
		m.mu.Unlock()
		return false, false, reason
	}

	m.addLocked(key, sub)
	m.mu.Unlock()
	return true, true, ""
}

// Unsubscribe removes sub from (channel, requestId). Idempotent.
func (m *Manager) Unsubscribe(sub Subscriber, channel types.SubscriptionChannel, requestID string) {
	key := types.SubscriptionKey{Channel: channel, RequestID: requestID}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(key, sub.ID())
}

// RemoveSubscriber drops sub from every key it held, for connection-close
// cleanup. Idempotent.
func (m *Manager) RemoveSubscriber(sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.bySubscriber[sub.ID()] {
		m.removeLocked(key, sub.ID())
	}
	delete(m.bySubscriber, sub.ID())
}

func (m *Manager) removeLocked(key types.SubscriptionKey, subID string) {
	if set, ok := m.subs[key]; ok {
		delete(set, subID)
		if len(set) == 0 {
			delete(m.subs, key)
		}
	}
	if keys, ok := m.bySubscriber[subID]; ok {
		delete(keys, key)
	}
}

// Subscribers returns the current subscriber set for key (a snapshot
// slice, safe to range over without holding the lock).
func (m *Manager) Subscribers(key types.SubscriptionKey) []Subscriber {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.subs[key]
	if len(set) == 0 {
		return nil
	}
	out := make([]Subscriber, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}

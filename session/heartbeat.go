package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// pingable is the subset of *Conn the heartbeat loop needs; a narrow
// interface so it can be exercised with a fake in tests.
type pingable interface {
	ID() string
	Ping() error
	IsAlive() bool
	MarkAlive()
	MarkDead()
	Close() error
}

// Heartbeat drives one connection's ping/pong lifecycle. Run it in its
// own goroutine per connection; it returns once the connection is
// declared dead (missed pong) or idle past idleTimeout, after closing
// the connection and invoking onClose.
type Heartbeat struct {
	conn     pingable
	interval time.Duration
	idle     time.Duration
	logger   *zap.Logger
	onClose  func()

	mu       sync.Mutex
	lastSeen time.Time
}

// NewHeartbeat builds a Heartbeat for conn. interval and idle come from
// config.ServerConfig (HeartbeatInterval/IdleTimeout — 30s/5m by
// default, spec.md §4.6). onClose is called exactly once, after the
// connection is torn down, so callers can remove it from any registry
// (the hub's Manager).
func NewHeartbeat(conn pingable, interval, idle time.Duration, onClose func(), logger *zap.Logger) *Heartbeat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{
		conn:     conn,
		interval: interval,
		idle:     idle,
		logger:   logger.With(zap.String("component", "session_heartbeat"), zap.String("connId", conn.ID())),
		onClose:  onClose,
		lastSeen: time.Now(),
	}
}

// Touch records inbound activity (any frame), resetting the idle-timeout
// clock. Call this from the connection's read loop for every frame.
func (h *Heartbeat) Touch() {
	h.mu.Lock()
	h.lastSeen = time.Now()
	h.mu.Unlock()
}

// Pong records a pong response: the connection answered its last ping.
func (h *Heartbeat) Pong() {
	h.conn.MarkAlive()
	h.Touch()
}

func (h *Heartbeat) idleFor() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Since(h.lastSeen)
}

// Run ticks every h.interval, pinging the connection and checking for
// the two disconnect conditions from spec.md §4.6: a ping that either
// goes unanswered (IsAlive still false after the prior tick's ping
// landed) or that finds the connection idle past h.idle. Blocks until
// done is closed or the connection is declared dead.
func (h *Heartbeat) Run(done <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.teardown()

	awaitingPong := false

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if h.idleFor() > h.idle {
				h.logger.Info("ws_idle_timeout")
				return
			}
			if awaitingPong && !h.conn.IsAlive() {
				h.logger.Warn("ws_ping_unanswered")
				return
			}
			if err := h.conn.Ping(); err != nil {
				h.logger.Warn("ws_ping_failed", zap.Error(err))
				return
			}
			h.conn.MarkDead()
			awaitingPong = true
		}
	}
}

func (h *Heartbeat) teardown() {
	_ = h.conn.Close()
	if h.onClose != nil {
		h.onClose()
	}
}

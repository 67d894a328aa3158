package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Conn adapts a github.com/coder/websocket connection to Subscriber,
// carrying the session.Message envelope instead of the StreamChunk shape
// the teacher's bidirectional streaming package uses for voice/text.
// Writes are mutex-protected: the underlying connection does not
// support concurrent writers.
type Conn struct {
	id     string
	ws     *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	alive  bool
}

// NewConn wraps an already-accepted WebSocket connection. id should be
// unique per connection (a generated request/connection id).
func NewConn(id string, ws *websocket.Conn, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{
		id:     id,
		ws:     ws,
		logger: logger.With(zap.String("component", "session_conn"), zap.String("connId", id)),
		alive:  true,
	}
}

// ID implements Subscriber.
func (c *Conn) ID() string { return c.id }

// Send implements Subscriber, writing msg as JSON text.
func (c *Conn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("session: connection %s closed", c.id)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("session: marshal message: %w", err)
	}

	if err := c.ws.Write(context.Background(), websocket.MessageText, data); err != nil {
		return fmt.Errorf("session: websocket write: %w", err)
	}
	return nil
}

// Read blocks for the next inbound frame and decodes it as a Message.
func (c *Conn) Read(ctx context.Context) (Message, error) {
	var msg Message
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return msg, fmt.Errorf("session: websocket read: %w", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("session: unmarshal message: %w", err)
	}
	return msg, nil
}

// Ping writes a ping frame using the envelope (rather than the WebSocket
// protocol-level ping) so it passes through the same JSON channel the
// client already parses.
func (c *Conn) Ping() error {
	return c.Send(Message{Type: MsgPing})
}

// IsAlive reports the last-observed liveness state (spec.md §4.6
// heartbeat tracking).
func (c *Conn) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// MarkAlive and MarkDead are called by the heartbeat loop on pong
// receipt and on missed-ping detection, respectively.
func (c *Conn) MarkAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

func (c *Conn) MarkDead() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

// Close closes the underlying connection. Idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close(websocket.StatusNormalClosure, "closing")
}

// Package session implements the subscription manager, backlog/publisher,
// and heartbeat named in spec.md §4.5-§4.6: one in-process registry that
// lets a WebSocket connection subscribe to (channel, requestId) pairs and
// receive the orchestrator's status/results messages and the enrichment
// worker's result.patch messages, with best-effort delivery and a replay
// backlog for messages published before any subscriber attached.
package session

import "github.com/shacharon/grubroute/types"

// MessageType is the session-protocol envelope's discriminator (spec.md
// §6 session protocol table).
type MessageType string

const (
	MsgSubscribe   MessageType = "subscribe"
	MsgSubAck      MessageType = "sub_ack"
	MsgSubNack     MessageType = "sub_nack"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgStatus      MessageType = "status"
	MsgResults     MessageType = "results"
	MsgResultPatch MessageType = "result.patch"
	MsgStreamDone  MessageType = "stream.done"
	MsgPing        MessageType = "ping"
	MsgPong        MessageType = "pong"
)

// Message is the single envelope shape every session-protocol frame
// uses; fields not relevant to Type are left zero.
type Message struct {
	Type      MessageType               `json:"type"`
	Channel   types.SubscriptionChannel `json:"channel,omitempty"`
	RequestID string                    `json:"requestId,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
	Stage     string                    `json:"stage,omitempty"`
	Results   []types.RestaurantResult `json:"results,omitempty"`
	PlaceID   string                    `json:"placeId,omitempty"`
	Patch     *ResultPatchBody          `json:"patch,omitempty"`
}

// ResultPatchBody is the partial-update payload a result.patch message
// carries: one provider's enrichment slot for one result.
type ResultPatchBody struct {
	Providers map[types.DeliveryProvider]types.ProviderSlot `json:"providers"`
}

// Identity is the caller's authenticated (or anonymous) identity, used
// by ownership checks on subscribe (spec.md §4.5).
type Identity struct {
	UserID    string
	SessionID string
}

// IsAnonymous reports whether this identity's session is the documented
// "anonymous" session — the only shape eligible for the dev-only
// ownership bypass. UserID is not consulted.
func (id Identity) IsAnonymous() bool {
	return id.SessionID == "anonymous"
}

// Subscriber is anything that can receive a Message: a WebSocket
// connection adapter in production, a recording fake in tests.
type Subscriber interface {
	// ID uniquely identifies this subscriber within the registry, used
	// as the inverse-map key (subscriber → Set<key>).
	ID() string
	Send(msg Message) error
}

// Package bus defines the normalized event types exchanged between the
// transport adapters and the aggregation pipeline, plus the outbound
// dispatch bus that routes replies back to the transport they came from.
package bus

import (
	"strconv"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// ConvKey identifies one end-user's conversation with one owner's bot.
type ConvKey struct {
	OwnerID    int64
	ChatUserID string
}

// String renders the key in "ownerId:chatUserId" form, used for logging
// and as the buffer map key.
func (k ConvKey) String() string {
	return strconv.FormatInt(k.OwnerID, 10) + ":" + k.ChatUserID
}

// InboundMessage is one chat message fragment, already normalized by a
// transport adapter. Both the Kafka and the Redis Stream consumers produce
// exactly this shape.
type InboundMessage struct {
	UserID     int64  `json:"userId"`     // owning business account
	ChatUserID string `json:"chatUserId"` // end-user identity on the platform
	Text       string `json:"message"`
}

// Key returns the conversation key for this message.
func (m InboundMessage) Key() ConvKey {
	return ConvKey{OwnerID: m.UserID, ChatUserID: m.ChatUserID}
}

// OutboundMessage is a generated reply on its way back to a platform.
// Transport and Platform select which publisher picks it up.
type OutboundMessage struct {
	Transport  string
	Platform   store.Platform
	OwnerID    int64
	ChatUserID string
	Text       string
}

// QREvent is an out-of-band pairing event from the WhatsApp bridge.
// It bypasses the aggregation buffer and goes straight to the
// notification hub.
type QREvent struct {
	BotID     string `json:"botId"`
	UserID    int64  `json:"userId"`
	QRCode    string `json:"qrCode"`
	Timestamp string `json:"timestamp"`
}

// StatusEvent reports a platform connection state change.
type StatusEvent struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// StatusDisconnected marks a platform connection as gone; the persisted
// platform row is flipped to INACTIVE when it arrives.
const StatusDisconnected = "DISCONNECTED"

// Ingestor accepts normalized message fragments from any transport.
// Implemented by the aggregator; transports never see what happens
// behind it.
type Ingestor interface {
	Ingest(key ConvKey, fragment string)
}

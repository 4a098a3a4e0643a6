// Package stream is the log-based inbound transport: Redis Streams with
// consumer-group semantics. Each platform gets one polling loop reading
// its incoming stream (plus, for WhatsApp, the out-of-band QR and status
// streams), and one outbound publisher.
package stream

import (
	"strings"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Group is the consumer group shared by all pipeline instances.
const Group = "chatbot-group"

// Out-of-band WhatsApp streams. QR and status events bypass the
// aggregation buffer entirely.
const (
	StreamQR     = "whatsapp_qr"
	StreamStatus = "whatsapp.status"
)

// IncomingStream returns the chat-message stream for a platform.
func IncomingStream(p store.Platform) string {
	return strings.ToLower(string(p)) + ".incoming"
}

// OutgoingStream returns the reply stream for a platform.
func OutgoingStream(p store.Platform) string {
	return strings.ToLower(string(p)) + ".outgoing"
}

// Notifier forwards out-of-band events to the real-time notification
// channel. Implemented by notify.Hub.
type Notifier interface {
	SendToUser(userID int64, topic string, body any)
}

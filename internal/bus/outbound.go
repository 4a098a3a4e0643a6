package bus

import (
	"context"
	"sync"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// MessageBus routes outbound replies to per-transport, per-platform
// publishers. It decouples the responder from the concrete transports:
// the responder only tags a reply with the transport/platform it arrived
// on, and the matching publisher delivers it.
type MessageBus struct {
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string][]func(OutboundMessage)
}

// NewMessageBus creates a message bus with a buffered outbound channel.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		Outbound:    make(chan OutboundMessage, 100),
		subscribers: make(map[string][]func(OutboundMessage)),
	}
}

func subscriberKey(transport string, platform store.Platform) string {
	return transport + ":" + string(platform)
}

// PublishOutbound hands a reply to the bus.
func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.Outbound <- msg
}

// Subscribe registers a publisher callback for one transport/platform pair.
func (b *MessageBus) Subscribe(transport string, platform store.Platform, callback func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := subscriberKey(transport, platform)
	b.subscribers[key] = append(b.subscribers[key], callback)
}

// DispatchOutbound runs the outbound dispatch loop. Blocks until ctx is
// cancelled. Publisher callbacks run on the dispatch goroutine; they are
// expected to swallow their own errors.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.Outbound:
			b.mu.RLock()
			subs := b.subscribers[subscriberKey(msg.Transport, msg.Platform)]
			b.mu.RUnlock()
			for _, cb := range subs {
				cb(msg)
			}
		}
	}
}

// OutboundSize returns the number of replies waiting for dispatch.
func (b *MessageBus) OutboundSize() int {
	return len(b.Outbound)
}

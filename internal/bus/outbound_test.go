package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

type sink struct {
	mu   sync.Mutex
	msgs []OutboundMessage
}

func (s *sink) receive(msg OutboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *sink) snapshot() []OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutboundMessage, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func TestMessageBus_RoutesByTransportAndPlatform(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamTG := &sink{}
	queueTG := &sink{}
	streamWA := &sink{}
	b.Subscribe("stream", store.PlatformTelegram, streamTG.receive)
	b.Subscribe("queue", store.PlatformTelegram, queueTG.receive)
	b.Subscribe("stream", store.PlatformWhatsApp, streamWA.receive)

	go b.DispatchOutbound(ctx)

	b.PublishOutbound(OutboundMessage{
		Transport: "stream", Platform: store.PlatformTelegram,
		OwnerID: 1, ChatUserID: "u1", Text: "via stream",
	})
	b.PublishOutbound(OutboundMessage{
		Transport: "queue", Platform: store.PlatformTelegram,
		OwnerID: 1, ChatUserID: "u1", Text: "via queue",
	})

	require.Eventually(t, func() bool {
		return len(streamTG.snapshot()) == 1 && len(queueTG.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "via stream", streamTG.snapshot()[0].Text)
	assert.Equal(t, "via queue", queueTG.snapshot()[0].Text)
	assert.Empty(t, streamWA.snapshot())
}

func TestMessageBus_UnmatchedMessageIsDiscarded(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg := &sink{}
	b.Subscribe("stream", store.PlatformTelegram, tg.receive)
	go b.DispatchOutbound(ctx)

	b.PublishOutbound(OutboundMessage{Transport: "stream", Platform: store.PlatformWhatsApp, Text: "lost"})
	b.PublishOutbound(OutboundMessage{Transport: "stream", Platform: store.PlatformTelegram, Text: "kept"})

	require.Eventually(t, func() bool {
		return len(tg.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "kept", tg.snapshot()[0].Text)
	assert.Equal(t, 0, b.OutboundSize())
}

func TestMessageBus_MultipleSubscribersSameKey(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &sink{}
	second := &sink{}
	b.Subscribe("stream", store.PlatformTelegram, first.receive)
	b.Subscribe("stream", store.PlatformTelegram, second.receive)
	go b.DispatchOutbound(ctx)

	b.PublishOutbound(OutboundMessage{Transport: "stream", Platform: store.PlatformTelegram, Text: "fanout"})

	require.Eventually(t, func() bool {
		return len(first.snapshot()) == 1 && len(second.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMessageBus_DispatchStopsOnCancel(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.DispatchOutbound(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch loop did not stop after cancel")
	}
}

func TestConvKey_String(t *testing.T) {
	key := ConvKey{OwnerID: 42, ChatUserID: "chat-7"}
	assert.Equal(t, "42:chat-7", key.String())
}

func TestInboundMessage_Key(t *testing.T) {
	msg := InboundMessage{UserID: 42, ChatUserID: "chat-7", Text: "hi"}
	assert.Equal(t, ConvKey{OwnerID: 42, ChatUserID: "chat-7"}, msg.Key())
}

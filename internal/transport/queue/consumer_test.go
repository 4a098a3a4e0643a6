package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yerzhan-k/bizbot-go/internal/bus"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

type fakeIngestor struct {
	keys  []bus.ConvKey
	texts []string
}

func (f *fakeIngestor) Ingest(key bus.ConvKey, fragment string) {
	f.keys = append(f.keys, key)
	f.texts = append(f.texts, fragment)
}

func TestHandle_ValidPayloadFeedsBuffer(t *testing.T) {
	ingest := &fakeIngestor{}
	c := &Consumer{platform: store.PlatformTelegram, ingest: ingest}

	c.handle([]byte(`{"userId":42,"chatUserId":"chat-7","message":"hello"}`))

	require.Len(t, ingest.keys, 1)
	assert.Equal(t, bus.ConvKey{OwnerID: 42, ChatUserID: "chat-7"}, ingest.keys[0])
	assert.Equal(t, "hello", ingest.texts[0])
}

func TestHandle_MalformedPayloadIsDropped(t *testing.T) {
	ingest := &fakeIngestor{}
	c := &Consumer{platform: store.PlatformTelegram, ingest: ingest}

	c.handle([]byte(`{not json`))
	c.handle([]byte(``))

	assert.Empty(t, ingest.keys)
}

func TestHandle_MissingIdentityIsDropped(t *testing.T) {
	ingest := &fakeIngestor{}
	c := &Consumer{platform: store.PlatformTelegram, ingest: ingest}

	c.handle([]byte(`{"chatUserId":"chat-7","message":"no owner"}`))
	c.handle([]byte(`{"userId":42,"message":"no chat user"}`))

	assert.Empty(t, ingest.keys)
}

func TestHandle_EmptyTextStillIngested(t *testing.T) {
	// Blank fragments are the buffer's concern; the transport only
	// validates identity.
	ingest := &fakeIngestor{}
	c := &Consumer{platform: store.PlatformTelegram, ingest: ingest}

	c.handle([]byte(`{"userId":42,"chatUserId":"chat-7","message":""}`))

	require.Len(t, ingest.keys, 1)
	assert.Empty(t, ingest.texts[0])
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "telegram.incoming", IncomingTopic(store.PlatformTelegram))
	assert.Equal(t, "whatsapp.incoming", IncomingTopic(store.PlatformWhatsApp))
	assert.Equal(t, "telegram.outgoing", OutgoingTopic(store.PlatformTelegram))
	assert.Equal(t, "whatsapp.outgoing", OutgoingTopic(store.PlatformWhatsApp))
}

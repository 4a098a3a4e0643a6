package stream

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// Publisher writes replies to a platform's outgoing stream in the bridge
// wire format: stringly-typed fields with a JSON payload.
type Publisher struct {
	client   *redis.Client
	platform store.Platform
	stream   string
}

// NewPublisher creates a publisher for the platform's outgoing stream.
func NewPublisher(client *redis.Client, platform store.Platform) *Publisher {
	return &Publisher{
		client:   client,
		platform: platform,
		stream:   OutgoingStream(platform),
	}
}

// SendToUser publishes one reply. Failures are logged and swallowed: the
// user simply gets no reply, nothing upstream is retried.
func (p *Publisher) SendToUser(chatUserID, text string, ownerID int64) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		log.Printf("[Stream] ❌ serialization error: %v", err)
		return
	}

	id, err := p.client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"userId":     strconv.FormatInt(ownerID, 10),
			"chatUserId": chatUserID,
			"method":     "sendMessage",
			"payload":    string(payload),
		},
	}).Result()
	if err != nil {
		log.Printf("[Stream] ❌ publish to %s failed: %v", p.stream, err)
		return
	}
	log.Printf("[Stream] published to %s id=%s", p.stream, id)
}

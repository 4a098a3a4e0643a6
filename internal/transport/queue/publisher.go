package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// outboundEnvelope is the bridge wire format for replies.
type outboundEnvelope struct {
	UserID     int64             `json:"userId"`
	ChatUserID string            `json:"chatUserId"`
	Method     string            `json:"method"`
	Payload    map[string]string `json:"payload"`
}

// Publisher writes replies to a platform's outgoing topic, keyed by the
// end-user so one conversation stays on one partition.
type Publisher struct {
	writer   *kafka.Writer
	platform store.Platform
}

// NewPublisher creates a publisher for the platform's outgoing topic.
func NewPublisher(brokers []string, platform store.Platform) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        OutgoingTopic(platform),
			Balancer:     &kafka.Hash{},
			WriteTimeout: 10 * time.Second,
		},
		platform: platform,
	}
}

// SendToUser publishes one reply. Failures are logged and swallowed: the
// user simply gets no reply, nothing upstream is retried.
func (p *Publisher) SendToUser(chatUserID, text string, ownerID int64) {
	payload, err := json.Marshal(outboundEnvelope{
		UserID:     ownerID,
		ChatUserID: chatUserID,
		Method:     "sendMessage",
		Payload:    map[string]string{"text": text},
	})
	if err != nil {
		log.Printf("[Queue] ❌ serialization error: %v", err)
		return
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(chatUserID),
		Value: payload,
	})
	if err != nil {
		log.Printf("[Queue] ❌ publish to %s failed: %v", p.writer.Topic, err)
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

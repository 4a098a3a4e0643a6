// Package queue is the broker-based inbound transport: Kafka topics, one
// per platform, consumed in the shared pipeline group with matching
// outbound publishers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yerzhan-k/bizbot-go/internal/bus"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// GroupID is the consumer group shared by all pipeline instances.
const GroupID = "chatbot-group"

// IncomingTopic returns the chat-message topic for a platform.
func IncomingTopic(p store.Platform) string {
	return strings.ToLower(string(p)) + ".incoming"
}

// OutgoingTopic returns the reply topic for a platform.
func OutgoingTopic(p store.Platform) string {
	return strings.ToLower(string(p)) + ".outgoing"
}

// Consumer reads one platform's incoming topic and feeds the aggregation
// pipeline.
type Consumer struct {
	reader   *kafka.Reader
	platform store.Platform
	ingest   bus.Ingestor

	done chan struct{}
}

// NewConsumer creates a consumer for the platform's incoming topic.
func NewConsumer(brokers []string, platform store.Platform, ingest bus.Ingestor) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  GroupID,
			Topic:    IncomingTopic(platform),
			MaxWait:  2 * time.Second,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		platform: platform,
		ingest:   ingest,
		done:     make(chan struct{}),
	}
}

// Start launches the fetch loop. It runs until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		c.fetchLoop(ctx)
	}()
}

// Stop closes the reader and waits for the loop to exit.
func (c *Consumer) Stop() {
	c.reader.Close()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		log.Printf("[Queue] ⚠️ %s fetch loop did not stop in time", c.platform)
	}
}

// fetchLoop fetches and commits messages one at a time. A successfully
// handled or malformed message is committed; a commit only fails along
// with the connection, in which case the broker redelivers from the last
// committed offset.
func (c *Consumer) fetchLoop(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				log.Printf("[Queue] %s fetch loop stopped", c.platform)
				return
			}
			log.Printf("[Queue] ⚠️ fetch error on %s: %v", c.platform, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		c.handle(msg.Value)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("[Queue] ⚠️ commit failed on %s: %v", c.platform, err)
		}
	}
}

// handle parses one payload and feeds the buffer. Malformed payloads are
// logged and dropped so they never block the partition.
func (c *Consumer) handle(value []byte) {
	var msg bus.InboundMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Printf("[Queue] ⚠️ dropping malformed payload on %s: %v", c.platform, err)
		return
	}
	if msg.UserID == 0 || msg.ChatUserID == "" {
		log.Printf("[Queue] ⚠️ dropping payload with missing identity on %s", c.platform)
		return
	}
	c.ingest.Ingest(msg.Key(), msg.Text)
}

package stream

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/yerzhan-k/bizbot-go/internal/bus"
	"github.com/yerzhan-k/bizbot-go/internal/notify"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

// handleEntry dispatches one stream record by its logical stream name.
// A nil return means the record is consumed and may be acknowledged,
// including malformed records, which are logged and dropped on purpose so
// they never poison the stream. A non-nil return leaves the record
// pending.
func (c *Consumer) handleEntry(ctx context.Context, streamName string, values map[string]interface{}) error {
	switch streamName {
	case StreamQR:
		return c.handleQR(values)
	case StreamStatus:
		return c.handleStatus(ctx, values)
	default:
		return c.handleChat(values)
	}
}

func (c *Consumer) handleChat(values map[string]interface{}) error {
	userID, err := fieldInt64(values, "userId")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed chat record: %v", err)
		return nil
	}
	chatUserID, err := fieldString(values, "chatUserId")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed chat record: %v", err)
		return nil
	}
	text, err := fieldString(values, "message")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed chat record: %v", err)
		return nil
	}

	msg := bus.InboundMessage{UserID: userID, ChatUserID: chatUserID, Text: text}
	c.ingest.Ingest(msg.Key(), msg.Text)
	return nil
}

func (c *Consumer) handleQR(values map[string]interface{}) error {
	userID, err := fieldInt64(values, "userId")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed QR record: %v", err)
		return nil
	}
	qrCode, err := fieldString(values, "qrCode")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed QR record: %v", err)
		return nil
	}

	log.Printf("[Stream] QR received for user %d", userID)
	c.notifier.SendToUser(userID, notify.TopicQR, qrCode)
	return nil
}

func (c *Consumer) handleStatus(ctx context.Context, values map[string]interface{}) error {
	userID, err := fieldInt64(values, "userId")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed status record: %v", err)
		return nil
	}
	status, err := fieldString(values, "status")
	if err != nil {
		log.Printf("[Stream] ⚠️ dropping malformed status record: %v", err)
		return nil
	}

	if status == bus.StatusDisconnected {
		if err := c.platforms.SetStatus(ctx, userID, c.platform, store.StatusInactive); err != nil {
			return fmt.Errorf("mark %s inactive for user %d: %w", c.platform, userID, err)
		}
	}

	c.notifier.SendToUser(userID, notify.TopicWAStatus, status)
	log.Printf("[Stream] processed status %s for user %d", status, userID)
	return nil
}

func fieldString(values map[string]interface{}, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s, nil
}

func fieldInt64(values map[string]interface{}, key string) (int64, error) {
	s, err := fieldString(values, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

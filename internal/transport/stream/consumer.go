package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yerzhan-k/bizbot-go/internal/bus"
	"github.com/yerzhan-k/bizbot-go/internal/store"
)

const (
	readBlock   = 2 * time.Second
	readCount   = 10
	connBackoff = 5 * time.Second
	miscBackoff = 2 * time.Second
	joinTimeout = 2 * time.Second
)

// Consumer is one platform's stream polling loop.
type Consumer struct {
	client    *redis.Client
	platform  store.Platform
	streams   []string
	ingest    bus.Ingestor
	notifier  Notifier
	platforms store.PlatformStore

	done chan struct{}
}

// NewConsumer creates a consumer for the platform's incoming stream.
// WhatsApp additionally reads the QR and status streams.
func NewConsumer(client *redis.Client, platform store.Platform, ingest bus.Ingestor, notifier Notifier, platforms store.PlatformStore) *Consumer {
	streams := []string{IncomingStream(platform)}
	if platform == store.PlatformWhatsApp {
		streams = append(streams, StreamQR, StreamStatus)
	}
	return &Consumer{
		client:    client,
		platform:  platform,
		streams:   streams,
		ingest:    ingest,
		notifier:  notifier,
		platforms: platforms,
		done:      make(chan struct{}),
	}
}

// Start launches the poll loop. It runs until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.createGroups(ctx)
	go func() {
		defer close(c.done)
		c.pollLoop(ctx)
	}()
}

// Stop waits for the poll loop to exit, bounded so shutdown never hangs
// on an in-flight read.
func (c *Consumer) Stop() {
	select {
	case <-c.done:
	case <-time.After(joinTimeout):
		log.Printf("[Stream] ⚠️ %s poll loop did not stop within %s", c.platform, joinTimeout)
	}
}

// createGroups registers the consumer group on every stream from offset
// "0". Failure (group exists, broker unreachable) is non-fatal; the loop
// still starts and retries reads.
func (c *Consumer) createGroups(ctx context.Context) {
	for _, s := range c.streams {
		err := c.client.XGroupCreateMkStream(ctx, s, Group, "0").Err()
		if err != nil {
			log.Printf("[Stream] group %s for stream %s may already exist (or redis unavailable yet): %v", Group, s, err)
			continue
		}
		log.Printf("[Stream] created group %s for stream %s", Group, s)
	}
}

func (c *Consumer) pollLoop(ctx context.Context) {
	consumerName := "consumer-" + uuid.NewString()

	// streams arg: names first, then one ">" per name.
	readArg := make([]string, 0, 2*len(c.streams))
	readArg = append(readArg, c.streams...)
	for range c.streams {
		readArg = append(readArg, ">")
	}

	for {
		if ctx.Err() != nil {
			log.Printf("[Stream] %s poll loop stopped", c.platform)
			return
		}

		res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    Group,
			Consumer: consumerName,
			Streams:  readArg,
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[Stream] %s poll loop stopped", c.platform)
				return
			}
			if isConnError(err) {
				log.Printf("[Stream] ⚠️ redis connection issue on %s, retrying in %s: %v", c.platform, connBackoff, err)
				sleep(ctx, connBackoff)
				// Fresh identity avoids stale consumer state after reconnect;
				// pending entries stay with the group.
				consumerName = "consumer-" + uuid.NewString()
			} else {
				log.Printf("[Stream] ❌ unexpected error polling %s: %v", c.platform, err)
				sleep(ctx, miscBackoff)
			}
			continue
		}

		for _, xs := range res {
			for _, msg := range xs.Messages {
				if err := c.handleEntry(ctx, xs.Stream, msg.Values); err != nil {
					// No ack: the record stays pending for reprocessing.
					log.Printf("[Stream] ❌ error processing record %s id=%s: %v", xs.Stream, msg.ID, err)
					continue
				}
				if err := c.client.XAck(ctx, xs.Stream, Group, msg.ID).Err(); err != nil {
					log.Printf("[Stream] ⚠️ ack failed for %s id=%s: %v", xs.Stream, msg.ID, err)
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// isConnError tells transient connection-class failures (reconnect with a
// fresh consumer identity) apart from everything else (plain backoff).
func isConnError(err error) bool {
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

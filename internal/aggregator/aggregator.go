// Package aggregator coalesces rapid-fire message fragments from one
// conversation into a single combined utterance.
//
// Chat users often split one thought across several bubbles. Reacting to
// every bubble wastes AI calls and produces incoherent mid-burst replies,
// so each conversation key keeps a mailbox of unsent fragments and a
// single pending timer. Every new fragment resets the timer; when a quiet
// period finally elapses, the whole burst is delivered at once.
package aggregator

import (
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/yerzhan-k/bizbot-go/internal/bus"
)

// Deliverer receives one coalesced burst: the original fragments in
// arrival order, and the trimmed, ". "-joined combined text.
type Deliverer func(key bus.ConvKey, fragments []string, combined string)

// Buffer is the per-conversation debounce buffer. Safe for concurrent
// Ingest from any number of transport goroutines.
type Buffer struct {
	mu      sync.Mutex
	frags   map[bus.ConvKey][]string
	timers  map[bus.ConvKey]*time.Timer
	deliver Deliverer

	// delayFn returns the quiet-period delay; replaced in tests.
	delayFn func() time.Duration
}

// New creates a Buffer delivering bursts to the given Deliverer.
func New(deliver Deliverer) *Buffer {
	return &Buffer{
		frags:   make(map[bus.ConvKey][]string),
		timers:  make(map[bus.ConvKey]*time.Timer),
		deliver: deliver,
		delayFn: randomDelay,
	}
}

// randomDelay spreads deliveries uniformly over [1, 11] seconds so bursts
// merge and AI calls don't stampede.
func randomDelay() time.Duration {
	return time.Duration(1+rand.Intn(11)) * time.Second
}

// Ingest appends a fragment to the key's mailbox and re-arms its delivery
// timer. Cancelling the previous timer is best-effort: a delivery already
// running is not interrupted, and the swap-and-clear in flush keeps the
// race harmless.
func (b *Buffer) Ingest(key bus.ConvKey, fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frags[key] = append(b.frags[key], fragment)

	if prev, ok := b.timers[key]; ok {
		prev.Stop()
	}
	b.timers[key] = time.AfterFunc(b.delayFn(), func() {
		b.flush(key)
	})
}

// flush atomically drains the key's mailbox and hands the burst to the
// deliverer. A mailbox already drained by a racing flush is a silent
// no-op. Delivery failures are contained per key.
func (b *Buffer) flush(key bus.ConvKey) {
	b.mu.Lock()
	msgs := b.frags[key]
	delete(b.frags, key)
	delete(b.timers, key)
	b.mu.Unlock()

	if len(msgs) == 0 {
		return
	}

	var parts []string
	for _, m := range msgs {
		if t := strings.TrimSpace(m); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return
	}
	combined := strings.Join(parts, ". ")

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Aggregator] ❌ delivery panic for key %s: %v", key, r)
		}
	}()
	b.deliver(key, msgs, combined)
}

// Pending returns the number of keys with unsent fragments.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frags)
}

// Stop cancels all pending timers and drops any buffered fragments.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, t := range b.timers {
		t.Stop()
		delete(b.timers, key)
		delete(b.frags, key)
	}
}

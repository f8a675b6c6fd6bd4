package notify

import (
	"sync"
	"time"
)

// Hub hands out one Channel per browser session.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*Channel
	seen     map[string]time.Time
	duration time.Duration
	now      func() time.Time
}

// NewHub creates a hub whose channels default to d.
func NewHub(d time.Duration) *Hub {
	return &Hub{
		channels: make(map[string]*Channel),
		seen:     make(map[string]time.Time),
		duration: d,
		now:      time.Now,
	}
}

// For returns the channel for key, creating it on first use.
func (h *Hub) For(key string) *Channel {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[key]
	if !ok {
		ch = NewChannel(h.duration)
		h.channels[key] = ch
	}
	h.seen[key] = h.now()
	return ch
}

// Drop forgets the channel for key.
func (h *Hub) Drop(key string) {
	h.mu.Lock()
	ch, ok := h.channels[key]
	delete(h.channels, key)
	delete(h.seen, key)
	h.mu.Unlock()

	if ok {
		ch.Hide()
	}
}

// Sweep drops channels not used for longer than idle and showing nothing.
// Sessions that expire without a logout would otherwise keep theirs forever.
func (h *Hub) Sweep(idle time.Duration) int {
	cutoff := h.now().Add(-idle)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for key, ch := range h.channels {
		if !h.seen[key].Before(cutoff) {
			continue
		}
		if _, visible := ch.Current(); visible {
			continue
		}
		delete(h.channels, key)
		delete(h.seen, key)
		removed++
	}
	return removed
}

// Len is the number of live channels.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}

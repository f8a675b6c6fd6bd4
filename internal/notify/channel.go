package notify

import (
	"sync"
	"time"

	"github.com/sigmatax/console/internal/util"
)

// Kind is the visual flavour of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// DefaultDuration is used when Show is called without a positive duration.
const DefaultDuration = 3000 * time.Millisecond

// ParseKind maps free text onto a Kind, defaulting to info.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSuccess, KindError, KindWarning:
		return Kind(s)
	}
	return KindInfo
}

// Notification is one transient message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Timer is the subset of *time.Timer used by Channel.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Channel holds at most one visible notification. Showing a new one replaces
// the current message and cancels its pending auto-dismiss.
type Channel struct {
	mu       sync.Mutex
	current  *Notification
	timer    Timer
	after    AfterFunc
	now      func() time.Time
	fallback time.Duration
}

// NewChannel creates a channel with the given default duration.
func NewChannel(defaultDuration time.Duration) *Channel {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Channel{after: realAfterFunc, now: time.Now, fallback: defaultDuration}
}

// Show replaces whatever is visible with msg.
func (c *Channel) Show(msg string, kind Kind, d time.Duration) Notification {
	if d <= 0 {
		d = c.fallback
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	n := Notification{
		ID:        util.NewID(),
		Message:   msg,
		Kind:      kind,
		ExpiresAt: c.now().Add(d),
	}
	c.current = &n

	id := n.ID
	c.timer = c.after(d, func() { c.expire(id) })
	return n
}

// Hide dismisses the current notification and clears its timer.
func (c *Channel) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.current = nil
}

// Dismiss hides the notification only if it is still the one with id.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ID != id {
		return false
	}
	c.stopLocked()
	c.current = nil
	return true
}

// Current returns the visible notification, if any.
func (c *Channel) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

func (c *Channel) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == id {
		c.current = nil
		c.timer = nil
	}
}

func (c *Channel) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

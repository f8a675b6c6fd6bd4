package notify

import (
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) after(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func newTestChannel() (*Channel, *fakeClock) {
	clock := &fakeClock{}
	ch := NewChannel(0)
	ch.after = clock.after
	return ch, clock
}

func TestShowDefaultsDuration(t *testing.T) {
	ch, clock := newTestChannel()
	ch.Show("saved", KindSuccess, 0)

	if len(clock.timers) != 1 || clock.timers[0].d != 3000*time.Millisecond {
		t.Fatalf("expected one 3000ms timer got %+v", clock.timers)
	}
	n, ok := ch.Current()
	if !ok || n.Message != "saved" || n.Kind != KindSuccess {
		t.Fatalf("unexpected current %+v", n)
	}
}

func TestShowOverwritesAndCancelsPriorTimer(t *testing.T) {
	ch, clock := newTestChannel()
	first := ch.Show("first", KindInfo, time.Second)
	second := ch.Show("second", KindError, 5*time.Second)

	if !clock.timers[0].stopped {
		t.Fatalf("expected first timer stopped")
	}
	if clock.timers[1].stopped {
		t.Fatalf("expected second timer running")
	}
	n, _ := ch.Current()
	if n.ID != second.ID || n.Message != "second" {
		t.Fatalf("expected second notification got %+v", n)
	}

	// a late callback from the replaced timer must not hide the newer message
	clock.timers[0].f()
	if _, ok := ch.Current(); !ok {
		t.Fatalf("stale timer hid the current notification")
	}
	if ch.Dismiss(first.ID) {
		t.Fatalf("dismissing a replaced id must be a no-op")
	}
}

func TestAutoDismiss(t *testing.T) {
	ch, clock := newTestChannel()
	ch.Show("bye", KindWarning, time.Second)
	clock.timers[0].f()

	if _, ok := ch.Current(); ok {
		t.Fatalf("expected notification dismissed")
	}
}

func TestHideClearsTimer(t *testing.T) {
	ch, clock := newTestChannel()
	ch.Show("x", KindInfo, time.Second)
	ch.Hide()

	if !clock.timers[0].stopped {
		t.Fatalf("expected timer stopped on hide")
	}
	if _, ok := ch.Current(); ok {
		t.Fatalf("expected nothing visible")
	}
}

func TestRealTimerExpires(t *testing.T) {
	ch := NewChannel(0)
	ch.Show("quick", KindInfo, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := ch.Current(); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("notification never expired")
}

func TestHubPerKey(t *testing.T) {
	h := NewHub(time.Second)
	h.For("a").Show("for a", KindInfo, time.Minute)

	if _, ok := h.For("b").Current(); ok {
		t.Fatalf("channels must be independent")
	}
	if h.For("a") != h.For("a") {
		t.Fatalf("expected same channel for same key")
	}
	h.Drop("a")
	if _, ok := h.For("a").Current(); ok {
		t.Fatalf("expected fresh channel after drop")
	}
}

func TestHubSweep(t *testing.T) {
	h := NewHub(time.Second)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	h.For("idle")
	h.For("visible").Show("still showing", KindInfo, time.Hour)
	now = now.Add(2 * time.Hour)
	h.For("fresh")

	if removed := h.Sweep(time.Hour); removed != 1 {
		t.Fatalf("expected 1 removed got %d", removed)
	}
	if h.Len() != 2 {
		t.Fatalf("expected 2 channels left got %d", h.Len())
	}
	if _, ok := h.For("visible").Current(); !ok {
		t.Fatalf("a channel with a visible notification must survive")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{"success": KindSuccess, "error": KindError, "warning": KindWarning, "": KindInfo, "x": KindInfo}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Fatalf("ParseKind(%q): expected %s got %s", in, want, got)
		}
	}
}

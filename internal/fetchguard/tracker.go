// Package fetchguard discards results of list fetches that were superseded by
// a newer fetch for the same view.
package fetchguard

import (
	"context"
	"strings"
	"sync"
)

// Tracker keeps one generation counter per key.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	gen    uint64
	cancel context.CancelFunc
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]*entry)}
}

// Ticket identifies one fetch.
type Ticket struct {
	t   *Tracker
	key string
	gen uint64
}

// Begin starts a fetch for key. The previous fetch for key, if still running,
// has its context cancelled.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = &entry{}
		t.entries[key] = e
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	e.cancel = cancel

	return ctx, Ticket{t: t, key: key, gen: e.gen}
}

// Generation returns the ticket's sequence number.
func (tk Ticket) Generation() uint64 { return tk.gen }

// Current reports whether no newer fetch has started for the same key.
func (tk Ticket) Current() bool {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	e, ok := tk.t.entries[tk.key]
	return ok && e.gen == tk.gen
}

// Done releases the ticket's context when it is still the latest fetch.
func (tk Ticket) Done() {
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	e, ok := tk.t.entries[tk.key]
	if !ok || e.gen != tk.gen {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Forget drops every key with the given prefix, e.g. on logout.
func (t *Tracker) Forget(prefix string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		if strings.HasPrefix(key, prefix) {
			if e.cancel != nil {
				e.cancel()
			}
			delete(t.entries, key)
		}
	}
}

// Package reconcile diffs an edited child collection against the set that was
// loaded and issues only the requests needed to bring the server in line.
package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Plan lists the operations needed to turn original into current.
type Plan[T any] struct {
	Create []T
	Update []T
	Delete []T
}

// Empty reports whether no request is needed.
func (p Plan[T]) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Size is the number of requests the plan issues.
func (p Plan[T]) Size() int {
	return len(p.Create) + len(p.Update) + len(p.Delete)
}

// Reconcile compares collections by identity key. Items in current without a
// key, with a key unknown to original, or repeating a key already matched are
// creates. Keyed items that differ under equal are updates and keys that
// disappeared are deletes. Unchanged items produce nothing.
func Reconcile[T any](original, current []T, key func(T) string, equal func(a, b T) bool) Plan[T] {
	var plan Plan[T]

	byKey := make(map[string]T, len(original))
	for _, item := range original {
		if k := key(item); k != "" {
			byKey[k] = item
		}
	}

	seen := make(map[string]bool, len(current))
	for _, item := range current {
		k := key(item)
		orig, ok := byKey[k]
		// a key repeated in current only identifies its first occurrence
		if k == "" || !ok || seen[k] {
			plan.Create = append(plan.Create, item)
			continue
		}
		seen[k] = true
		if !equal(orig, item) {
			plan.Update = append(plan.Update, item)
		}
	}

	for _, item := range original {
		k := key(item)
		if k != "" && !seen[k] {
			plan.Delete = append(plan.Delete, item)
		}
	}
	return plan
}

// Ops binds a plan to the requests that carry it out.
type Ops[T any] struct {
	Create func(ctx context.Context, item T) error
	Update func(ctx context.Context, item T) error
	Delete func(ctx context.Context, item T) error
}

// SyncError reports a batch in which some requests failed. Requests that
// succeeded are not rolled back.
type SyncError struct {
	Attempted int
	Failed    int
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%d of %d requests failed: %v", e.Failed, e.Attempted, e.Err)
}

func (e *SyncError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

// Apply issues every request of plan plus the extra calls concurrently and
// waits for all of them. A failure never cancels its siblings; all failures
// are collected into one *SyncError.
func Apply[T any](ctx context.Context, plan Plan[T], ops Ops[T], extra ...func(ctx context.Context) error) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		errs   error
		failed int
	)

	run := func(label string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", label, err))
				failed++
				mu.Unlock()
			}
			return nil
		})
	}

	for _, fn := range extra {
		fn := fn
		run("update", func() error { return fn(ctx) })
	}
	for _, item := range plan.Create {
		item := item
		run("create", func() error { return ops.Create(ctx, item) })
	}
	for _, item := range plan.Update {
		item := item
		run("update", func() error { return ops.Update(ctx, item) })
	}
	for _, item := range plan.Delete {
		item := item
		run("delete", func() error { return ops.Delete(ctx, item) })
	}

	_ = g.Wait()

	if errs == nil {
		return nil
	}
	return &SyncError{Attempted: plan.Size() + len(extra), Failed: failed, Err: errs}
}

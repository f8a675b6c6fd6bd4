package reconcile

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
)

type row struct {
	ID     string
	Amount int
	Note   string
}

func rowKey(r row) string    { return r.ID }
func rowEqual(a, b row) bool { return a == b }

func rows(n, from int) []row {
	out := make([]row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, row{ID: strconv.Itoa(from + i), Amount: i})
	}
	return out
}

func TestReconcileCounts(t *testing.T) {
	tests := []struct {
		name                string
		original, unchanged int
		add, remove, modify int
	}{
		{"nothing changed", 5, 5, 0, 0, 0},
		{"only adds", 2, 2, 3, 0, 0},
		{"only removes", 4, 1, 0, 3, 0},
		{"mixed", 6, 2, 2, 2, 2},
		{"empty original", 0, 0, 4, 0, 0},
		{"everything removed", 3, 0, 0, 3, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			original := rows(tc.original, 1)

			// keep the first `unchanged`, then modify, drop the rest
			var current []row
			current = append(current, original[:tc.unchanged]...)
			for _, r := range original[tc.unchanged : tc.unchanged+tc.modify] {
				r.Note = "edited"
				current = append(current, r)
			}
			for i := 0; i < tc.add; i++ {
				current = append(current, row{Amount: 100 + i})
			}

			plan := Reconcile(original, current, rowKey, rowEqual)
			if len(plan.Create) != tc.add {
				t.Fatalf("expected %d creates got %d", tc.add, len(plan.Create))
			}
			if len(plan.Update) != tc.modify {
				t.Fatalf("expected %d updates got %d", tc.modify, len(plan.Update))
			}
			if len(plan.Delete) != tc.remove {
				t.Fatalf("expected %d deletes got %d", tc.remove, len(plan.Delete))
			}
		})
	}
}

func TestReconcileUnknownKeyIsCreate(t *testing.T) {
	original := []row{{ID: "1"}}
	current := []row{{ID: "1"}, {ID: "99", Note: "foreign"}}

	plan := Reconcile(original, current, rowKey, rowEqual)
	if len(plan.Create) != 1 || plan.Create[0].ID != "99" || len(plan.Update) != 0 || len(plan.Delete) != 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestReconcileRepeatedKeyIsCreate(t *testing.T) {
	original := []row{{ID: "1", Amount: 5}, {ID: "2", Amount: 6}}
	current := []row{{ID: "1", Amount: 5}, {ID: "1", Amount: 9, Note: "copy"}, {ID: "2", Amount: 6}}

	plan := Reconcile(original, current, rowKey, rowEqual)
	if len(plan.Create) != 1 || plan.Create[0].Note != "copy" {
		t.Fatalf("expected the repeated row to be created, got %+v", plan)
	}
	if len(plan.Update) != 0 || len(plan.Delete) != 0 {
		t.Fatalf("expected no updates or deletes, got %+v", plan)
	}
}

func TestReconcileReorderIsNotAnUpdate(t *testing.T) {
	original := rows(3, 1)
	current := []row{original[2], original[0], original[1]}

	if plan := Reconcile(original, current, rowKey, rowEqual); !plan.Empty() {
		t.Fatalf("expected empty plan got %+v", plan)
	}
}

func TestApplyCollectsAllFailures(t *testing.T) {
	plan := Plan[row]{
		Create: []row{{Note: "a"}, {Note: "b"}},
		Update: []row{{ID: "1"}},
		Delete: []row{{ID: "2"}, {ID: "3"}},
	}

	var calls atomic.Int32
	boom := errors.New("boom")
	ops := Ops[row]{
		Create: func(ctx context.Context, r row) error {
			calls.Add(1)
			if r.Note == "a" {
				return boom
			}
			return nil
		},
		Update: func(ctx context.Context, r row) error { calls.Add(1); return nil },
		Delete: func(ctx context.Context, r row) error {
			calls.Add(1)
			if r.ID == "3" {
				return errors.New("gone")
			}
			return nil
		},
	}
	parent := func(ctx context.Context) error { calls.Add(1); return nil }

	err := Apply(context.Background(), plan, ops, parent)
	if calls.Load() != 6 {
		t.Fatalf("expected every request issued, got %d", calls.Load())
	}

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError got %v", err)
	}
	if syncErr.Attempted != 6 || syncErr.Failed != 2 {
		t.Fatalf("expected 2 of 6 failed got %d of %d", syncErr.Failed, syncErr.Attempted)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom")
	}
}

func TestApplySuccess(t *testing.T) {
	ops := Ops[row]{
		Create: func(ctx context.Context, r row) error { return nil },
		Update: func(ctx context.Context, r row) error { return nil },
		Delete: func(ctx context.Context, r row) error { return nil },
	}
	if err := Apply(context.Background(), Plan[row]{Create: rows(2, 1)}, ops); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Apply(context.Background(), Plan[row]{}, ops); err != nil {
		t.Fatalf("unexpected error on empty plan: %v", err)
	}
}

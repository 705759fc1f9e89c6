package retry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ravenhollow/retryengine/retry"
	"github.com/ravenhollow/retryengine/retrypolicy"
)

// Stateful retry across invocations, rollbackFor always true. Per the
// engine's algorithm, should-rethrow is checked unconditionally on every
// failure — not only while more attempts remain — so with an
// always-true rollback classifier every failed invocation rethrows raw
// and accumulates one more registered failure in the cached context.
// Recovery is only reached once a later invocation finds the cache
// already holding a context whose CanRetry is false *before* any new
// attempt runs, so the loop body never executes and the engine falls
// straight through to exhaustion handling.
func TestStatefulRetryAcrossInvocations(t *testing.T) {
	cache := retry.NewMapContextCache(16)
	tmpl := retry.NewTemplate(retrypolicy.Simple{Max: 3}, nil)
	tmpl.Cache = cache

	key := "K"
	alwaysRollback := func(error) bool { return true }
	newState := func() *retry.State { return &retry.State{Key: key, RollbackFor: alwaysRollback} }

	failingOp := func(context.Context) (int, error) { return 0, errors.New("boom") }

	// Invocation 1: fresh context, count becomes 1, error propagates raw.
	if _, err := retry.ExecuteState[int](tmpl, context.Background(), failingOp, newState()); err == nil {
		t.Fatal("expected invocation 1 to propagate the raw error")
	}
	cached, ok := cache.Get(key)
	if !ok || cached.RetryCount() != 1 {
		t.Fatalf("after invocation 1, cache entry = %v (ok=%v), want RetryCount 1", cached, ok)
	}

	// Invocation 2: cached context reused, count becomes 2, error propagates.
	if _, err := retry.ExecuteState[int](tmpl, context.Background(), failingOp, newState()); err == nil {
		t.Fatal("expected invocation 2 to propagate the raw error")
	}
	cached, ok = cache.Get(key)
	if !ok || cached.RetryCount() != 2 {
		t.Fatalf("after invocation 2, cache entry = %v (ok=%v), want RetryCount 2", cached, ok)
	}

	// Invocation 3: cached context reused, count becomes 3, error propagates.
	if _, err := retry.ExecuteState[int](tmpl, context.Background(), failingOp, newState()); err == nil {
		t.Fatal("expected invocation 3 to propagate the raw error")
	}
	cached, ok = cache.Get(key)
	if !ok || cached.RetryCount() != 3 {
		t.Fatalf("after invocation 3, cache entry = %v (ok=%v), want RetryCount 3", cached, ok)
	}

	// Invocation 4: CanRetry is already false when the cached context is
	// reopened, so the loop body never runs and recovery fires instead.
	got, err := retry.ExecuteStateRecover[int](tmpl, context.Background(), failingOp,
		func(ctx context.Context) (int, error) {
			rc, _ := retry.CurrentContext(ctx)
			if !rc.BoolAttribute(retry.AttrExhausted) {
				t.Fatal("expected context.exhausted to be set before recovery runs")
			}
			return 99, nil
		},
		newState(),
	)
	if err != nil {
		t.Fatalf("invocation 4: %v", err)
	}
	if got != 99 {
		t.Fatalf("got %d, want 99 from recovery", got)
	}
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected the cache entry to be removed once recovery completes")
	}
}

// brokenKeyCache simulates a caller whose key equality breaks between
// registrations: every Put/Get/Remove behaves like a normal map, but
// ContainsKey always reports the key absent, as if a concurrent key
// mutation made the cache unable to find what it just stored.
type brokenKeyCache struct {
	*retry.MapContextCache
}

func (brokenKeyCache) ContainsKey(any) bool { return false }

// Per spec.md §7, an inconsistent cache state (retryCount>1 with no
// cached context for the key) is a distinct error, not a silently
// reopened fresh context.
func TestStatefulRetryInconsistentCacheStateErrors(t *testing.T) {
	cache := brokenKeyCache{retry.NewMapContextCache(16)}
	tmpl := retry.NewTemplate(retrypolicy.Simple{Max: 5}, nil)
	tmpl.Cache = cache

	state := &retry.State{Key: "K", RollbackFor: func(error) bool { return false }}
	failingOp := func(context.Context) (int, error) { return 0, errors.New("boom") }

	_, err := retry.ExecuteState[int](tmpl, context.Background(), failingOp, state)

	var inconsistent *retry.InconsistentStateError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("got err %v, want *InconsistentStateError", err)
	}
	if inconsistent.Key != "K" {
		t.Fatalf("Key = %v, want K", inconsistent.Key)
	}
}

// A nil KeyGenerator (or one returning a nil key) disables retry entirely.
func TestStatefulRetryNilKeyDisablesRetry(t *testing.T) {
	tmpl := retry.NewTemplate(retrypolicy.Simple{Max: 3}, nil)
	sr := &retry.StatefulRetry[int, string]{Template: tmpl}

	calls := 0
	got, err := sr.Execute(context.Background(), 7,
		func(_ context.Context, args int) (string, error) {
			calls++
			return "ran-once", nil
		},
		nil,
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "ran-once" || calls != 1 {
		t.Fatalf("got (%q, calls=%d), want (\"ran-once\", 1)", got, calls)
	}
}

func TestStatefulRetryKeyedAcrossInvocations(t *testing.T) {
	cache := retry.NewMapContextCache(16)
	tmpl := retry.NewTemplate(retrypolicy.Simple{Max: 2}, nil)
	tmpl.Cache = cache

	sr := &retry.StatefulRetry[string, int]{
		Template:     tmpl,
		KeyGenerator: func(args string) any { return args },
		Label:        "charge",
	}

	attempts := 0
	op := func(_ context.Context, args string) (int, error) {
		attempts++
		return 0, errors.New("boom")
	}

	if _, err := sr.Execute(context.Background(), "order-1", op, nil); err == nil {
		t.Fatal("expected the first invocation to propagate the raw error")
	}
	// The second failure exhausts Max=2 but still rolls back (rethrows);
	// recovery runs on the next invocation for the same key.
	if _, err := sr.Execute(context.Background(), "order-1", op, nil); err == nil {
		t.Fatal("expected the second invocation to propagate the raw error")
	}
	got, err := sr.Execute(context.Background(), "order-1", op,
		func(args string, lastErr error) (int, error) { return -1, nil },
	)
	if err != nil {
		t.Fatalf("third invocation: %v", err)
	}
	if got != -1 {
		t.Fatalf("got %d, want -1 from recovery", got)
	}
	if attempts != 2 {
		t.Fatalf("op invoked %d times, want 2", attempts)
	}
}

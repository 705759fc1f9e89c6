package retrypolicy

import (
	"errors"
	"testing"
	"time"

	"github.com/ravenhollow/retryengine/retry"
)

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cb := CircuitBreaker{
		Delegate:     Simple{Max: 3},
		OpenTimeout:  50 * time.Millisecond,
		ResetTimeout: 200 * time.Millisecond,
	}.WithClock(clock)

	rc := cb.Open(nil)

	for i := 0; i < 3; i++ {
		if !cb.CanRetry(rc) {
			t.Fatalf("attempt %d: expected delegate to still allow", i)
		}
		cb.RegisterThrowable(rc, errors.New("boom"))
	}

	if cb.CanRetry(rc) {
		t.Fatal("expected the breaker to be open after 3 consecutive failures within openTimeout")
	}
	if !rc.BoolAttribute(retry.AttrCircuitOpen) {
		t.Fatal("expected AttrCircuitOpen to be set once the breaker opens")
	}
}

func TestCircuitBreakerRejectsAndCountsWhileOpen(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cb := CircuitBreaker{
		Delegate:     Simple{Max: 1},
		OpenTimeout:  50 * time.Millisecond,
		ResetTimeout: 200 * time.Millisecond,
	}.WithClock(clock)

	rc := cb.Open(nil)
	cb.CanRetry(rc)
	cb.RegisterThrowable(rc, errors.New("boom"))

	for i := 0; i < 3; i++ {
		if cb.CanRetry(rc) {
			t.Fatalf("reject %d: expected the open breaker to refuse", i)
		}
	}

	v, _ := rc.Attribute(retry.AttrShortCount)
	count, _ := v.(int)
	if count < 3 {
		t.Fatalf("shortCount=%d, want at least 3", count)
	}
}

func TestCircuitBreakerResetsAfterResetTimeout(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cb := CircuitBreaker{
		Delegate:     Simple{Max: 1},
		OpenTimeout:  50 * time.Millisecond,
		ResetTimeout: 200 * time.Millisecond,
	}.WithClock(clock)

	rc := cb.Open(nil)
	cb.CanRetry(rc)
	cb.RegisterThrowable(rc, errors.New("boom"))
	cb.CanRetry(rc) // opens

	now = now.Add(250 * time.Millisecond)
	if !cb.CanRetry(rc) {
		t.Fatal("expected the breaker to rebuild its inner context and allow an attempt after resetTimeout")
	}
	if rc.BoolAttribute(retry.AttrCircuitOpen) {
		t.Fatal("expected AttrCircuitOpen to clear once the breaker resets")
	}
}

func TestCircuitBreakerIsStateGlobal(t *testing.T) {
	cb := CircuitBreaker{}
	rc := cb.Open(nil)
	if !rc.BoolAttribute(retry.AttrStateGlobal) {
		t.Fatal("expected the breaker's own context to be marked state.global")
	}
}

package retrypolicy

import (
	"testing"
	"time"
)

func TestTimeoutAllowsWithinDuration(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	p := Timeout{Duration: 100 * time.Millisecond}.WithClock(clock)

	rc := p.Open(nil)
	now = now.Add(50 * time.Millisecond)
	if !p.CanRetry(rc) {
		t.Fatal("expected CanRetry before the timeout elapses")
	}
}

func TestTimeoutRefusesAfterDuration(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	p := Timeout{Duration: 100 * time.Millisecond}.WithClock(clock)

	rc := p.Open(nil)
	now = now.Add(150 * time.Millisecond)
	if p.CanRetry(rc) {
		t.Fatal("expected CanRetry to refuse once the timeout has elapsed")
	}
}

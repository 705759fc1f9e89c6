package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ravenhollow/retryengine/retry"
	"github.com/ravenhollow/retryengine/retrypolicy"
)

func TestRingBufferTrackerComputesQuantiles(t *testing.T) {
	tr := NewRingBufferTracker(4)
	for _, ms := range []int{10, 20, 30, 40} {
		tr.Observe(time.Duration(ms) * time.Millisecond)
	}
	snap := tr.Snapshot()
	if snap.P50 == 0 || snap.P99 < snap.P50 {
		t.Fatalf("got %+v, want increasing quantiles", snap)
	}
}

func TestRingBufferTrackerWrapsAround(t *testing.T) {
	tr := NewRingBufferTracker(2)
	tr.Observe(1 * time.Millisecond)
	tr.Observe(2 * time.Millisecond)
	tr.Observe(100 * time.Millisecond) // overwrites the 1ms sample

	snap := tr.Snapshot()
	if snap.P50 < 2*time.Millisecond {
		t.Fatalf("got P50 %v, want the 1ms sample to have been evicted", snap.P50)
	}
}

func TestRingBufferTrackerEmptySnapshot(t *testing.T) {
	tr := NewRingBufferTracker(4)
	if snap := tr.Snapshot(); snap != (LatencySnapshot{}) {
		t.Fatalf("got %+v, want a zero snapshot", snap)
	}
}

func TestLatencyListenerObservesEachAttempt(t *testing.T) {
	tracker := NewRingBufferTracker(8)
	base := time.Unix(0, 0)
	var calls int
	clock := func() time.Time {
		now := base.Add(time.Duration(calls) * 5 * time.Millisecond)
		calls++
		return now
	}

	listener := (&LatencyListener{Tracker: tracker}).WithClock(clock)
	tmpl := retry.NewTemplate(retrypolicy.MaxAttempts{Max: 3}, nil)
	tmpl.Listener = listener

	attempt := 0
	_, err := retry.Execute[int](tmpl, context.Background(), func(context.Context) (int, error) {
		attempt++
		if attempt < 3 {
			return 0, errors.New("transient")
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	snap := tracker.Snapshot()
	if snap.P50 == 0 {
		t.Fatal("expected at least one latency sample to have been recorded")
	}
}

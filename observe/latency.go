package observe

import (
	"sort"
	"sync"
	"time"

	"github.com/ravenhollow/retryengine/retry"
)

// LatencySnapshot contains latency quantiles taken over a LatencyTracker's
// recent samples.
type LatencySnapshot struct {
	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// LatencyTracker tracks recent latency samples and calculates quantiles.
type LatencyTracker interface {
	Observe(d time.Duration)
	Snapshot() LatencySnapshot
}

// RingBufferTracker implements LatencyTracker over a fixed-size ring
// buffer. Safe for concurrent use.
type RingBufferTracker struct {
	mu      sync.RWMutex
	samples []time.Duration
	idx     int
	full    bool
}

// NewRingBufferTracker creates a tracker holding at most size samples.
// size<=0 falls back to 256.
func NewRingBufferTracker(size int) *RingBufferTracker {
	if size <= 0 {
		size = 256
	}
	return &RingBufferTracker{samples: make([]time.Duration, size)}
}

func (t *RingBufferTracker) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.idx] = d
	t.idx++
	if t.idx >= len(t.samples) {
		t.idx = 0
		t.full = true
	}
}

func (t *RingBufferTracker) Snapshot() LatencySnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := t.idx
	if t.full {
		count = len(t.samples)
	}
	if count == 0 {
		return LatencySnapshot{}
	}

	sorted := make([]time.Duration, count)
	if t.full {
		copy(sorted, t.samples)
	} else {
		copy(sorted, t.samples[:count])
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySnapshot{
		P50: quantile(sorted, 0.50),
		P90: quantile(sorted, 0.90),
		P95: quantile(sorted, 0.95),
		P99: quantile(sorted, 0.99),
	}
}

func quantile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// LatencyListener is a retry.Listener that feeds one sample per attempt
// into a LatencyTracker, independently of whether the attempt succeeded.
// Each sample runs from Open, or from the previous attempt's end, to the
// attempt's end, so a back-off pause counts toward the following sample.
// Unlike TimelineListener it carries no single-execution state, so one
// LatencyListener can be shared across concurrent Template calls; the
// per-attempt start time is keyed by the *retry.Context each call opens,
// since that's the one handle unique to a given execution.
type LatencyListener struct {
	Tracker LatencyTracker
	now     func() time.Time

	mu    sync.Mutex
	start map[*retry.Context]time.Time
}

// WithClock overrides the time source, for deterministic tests.
func (l *LatencyListener) WithClock(now func() time.Time) *LatencyListener {
	l.now = now
	return l
}

func (l *LatencyListener) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *LatencyListener) Open(rc *retry.Context) bool {
	now := l.clock()
	l.mu.Lock()
	if l.start == nil {
		l.start = make(map[*retry.Context]time.Time)
	}
	l.start[rc] = now
	l.mu.Unlock()
	return true
}

func (l *LatencyListener) OnError(rc *retry.Context, _ error) {
	l.observe(rc)
}

func (l *LatencyListener) OnSuccess(rc *retry.Context, _ any) {
	l.observe(rc)
}

func (l *LatencyListener) observe(rc *retry.Context) {
	now := l.clock()
	l.mu.Lock()
	started, ok := l.start[rc]
	if ok {
		l.start[rc] = now
	}
	l.mu.Unlock()
	if ok && l.Tracker != nil {
		l.Tracker.Observe(now.Sub(started))
	}
}

func (l *LatencyListener) Close(rc *retry.Context, _ error) {
	l.mu.Lock()
	delete(l.start, rc)
	l.mu.Unlock()
}

package observe

import (
	"sync"
	"time"

	"github.com/ravenhollow/retryengine/retry"
)

// TimelineListener is a retry.Listener that records every attempt of a
// single execution into a Timeline, then hands it to OnComplete. A
// TimelineListener is built fresh per execution — it is not meant to be
// shared across concurrent Template calls, since it has no notion of
// which call an Open/OnError/OnSuccess/Close call belongs to.
type TimelineListener struct {
	Name string

	// OnComplete, if set, is called once from Close with the finished
	// Timeline. Hedging-style fan-out has no analogue in this listener:
	// the engine this module implements runs attempts sequentially.
	OnComplete func(Timeline)

	now func() time.Time

	mu           sync.Mutex
	timeline     Timeline
	attemptStart time.Time
	nextIndex    int
}

// WithClock overrides the time source, for deterministic tests.
func (l *TimelineListener) WithClock(now func() time.Time) *TimelineListener {
	l.now = now
	return l
}

func (l *TimelineListener) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *TimelineListener) Open(*retry.Context) bool {
	now := l.clock()
	l.mu.Lock()
	l.timeline = Timeline{Name: l.Name, Start: now}
	l.attemptStart = now
	l.nextIndex = 0
	l.mu.Unlock()
	return true
}

func (l *TimelineListener) OnError(_ *retry.Context, err error) {
	now := l.clock()
	l.mu.Lock()
	l.timeline.Attempts = append(l.timeline.Attempts, AttemptRecord{
		Index: l.nextIndex,
		Start: l.attemptStart,
		End:   now,
		Err:   err,
	})
	l.nextIndex++
	l.attemptStart = now
	l.mu.Unlock()
}

func (l *TimelineListener) OnSuccess(_ *retry.Context, _ any) {
	now := l.clock()
	l.mu.Lock()
	l.timeline.Attempts = append(l.timeline.Attempts, AttemptRecord{
		Index: l.nextIndex,
		Start: l.attemptStart,
		End:   now,
	})
	l.nextIndex++
	l.mu.Unlock()
}

func (l *TimelineListener) Close(_ *retry.Context, lastErr error) {
	now := l.clock()
	l.mu.Lock()
	l.timeline.End = now
	l.timeline.FinalErr = lastErr
	tl := l.timeline
	cb := l.OnComplete
	l.mu.Unlock()

	if cb != nil {
		cb(tl)
	}
}

// Captured returns the Timeline as it stands right now. Safe to call
// concurrently with the listener's own hooks, but only meaningful after
// Close has fired for a finished read.
func (l *TimelineListener) Captured() Timeline {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeline
}

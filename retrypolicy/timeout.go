package retrypolicy

import (
	"time"

	"github.com/ravenhollow/retryengine/retry"
)

const timeoutOpenedAtAttr = "retrypolicy.timeout.openedAt"

// Timeout allows retries for as long as the elapsed time since Open is
// under Duration, with no attempt-count bound.
type Timeout struct {
	Duration time.Duration

	// now is overridable for tests; a nil now uses time.Now.
	now func() time.Time
}

// WithClock returns a copy of t that reads the current time from now,
// for deterministic tests.
func (t Timeout) WithClock(now func() time.Time) Timeout {
	t.now = now
	return t
}

func (t Timeout) clock() func() time.Time {
	if t.now != nil {
		return t.now
	}
	return time.Now
}

func (t Timeout) Open(parent *retry.Context) *retry.Context {
	rc := retry.NewContext(parent)
	rc.SetAttribute(timeoutOpenedAtAttr, t.clock()())
	return rc
}

func (t Timeout) CanRetry(rc *retry.Context) bool {
	v, ok := rc.Attribute(timeoutOpenedAtAttr)
	if !ok {
		return true
	}
	opened, ok := v.(time.Time)
	if !ok {
		return true
	}
	return t.clock()().Sub(opened) < t.Duration
}

func (t Timeout) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (t Timeout) Close(*retry.Context) {}

func (t Timeout) MaxAttempts() int { return -1 }

package retrypolicy

import (
	"time"

	"github.com/ravenhollow/retryengine/retry"
)

// DefaultOpenTimeout and DefaultResetTimeout are CircuitBreaker's
// fallbacks when OpenTimeout/ResetTimeout are left zero.
const (
	DefaultOpenTimeout  = 5 * time.Second
	DefaultResetTimeout = 20 * time.Second
)

const (
	circuitStartAttr = "retrypolicy.circuit.start"
	circuitInnerAttr = "retrypolicy.circuit.inner"
)

// CircuitBreaker wraps a delegate policy with a two-state (open/closed)
// circuit: while the delegate refuses retries on the breaker's inner
// context, CanRetry returns false and the circuit is open, until more
// than ResetTimeout has passed since the current window started, at
// which point the delegate gets a fresh inner context and a chance to
// prove the failure has cleared. There is no half-open probe phase — a
// three-state breaker with probe counting doesn't fit this two-state
// contract, so it isn't modeled here.
//
// The breaker's own Context is marked AttrStateGlobal so the engine
// keeps it in the context cache across invocations even on success,
// giving the circuit state a lifetime independent of any single call.
type CircuitBreaker struct {
	Delegate     retry.Policy
	OpenTimeout  time.Duration
	ResetTimeout time.Duration

	// now is overridable for tests; a nil now uses time.Now.
	now func() time.Time
}

// WithClock returns a copy of cb that reads the current time from now.
func (cb CircuitBreaker) WithClock(now func() time.Time) CircuitBreaker {
	cb.now = now
	return cb
}

func (cb CircuitBreaker) clock() func() time.Time {
	if cb.now != nil {
		return cb.now
	}
	return time.Now
}

func (cb CircuitBreaker) delegate() retry.Policy {
	if cb.Delegate != nil {
		return cb.Delegate
	}
	return Simple{Max: DefaultMaxAttempts}
}

func (cb CircuitBreaker) openTimeout() time.Duration {
	if cb.OpenTimeout <= 0 {
		return DefaultOpenTimeout
	}
	return cb.OpenTimeout
}

func (cb CircuitBreaker) resetTimeout() time.Duration {
	if cb.ResetTimeout <= 0 {
		return DefaultResetTimeout
	}
	return cb.ResetTimeout
}

func (cb CircuitBreaker) Open(parent *retry.Context) *retry.Context {
	rc := retry.NewContext(parent)
	rc.SetAttribute(retry.AttrStateGlobal, true)
	rc.SetAttribute(circuitStartAttr, cb.clock()())
	rc.SetAttribute(circuitInnerAttr, cb.delegate().Open(parent))
	return rc
}

func (cb CircuitBreaker) start(rc *retry.Context) time.Time {
	v, ok := rc.Attribute(circuitStartAttr)
	if !ok {
		return cb.clock()()
	}
	t, _ := v.(time.Time)
	return t
}

func (cb CircuitBreaker) setStart(rc *retry.Context, t time.Time) {
	rc.SetAttribute(circuitStartAttr, t)
}

func (cb CircuitBreaker) inner(rc *retry.Context) *retry.Context {
	v, ok := rc.Attribute(circuitInnerAttr)
	if !ok {
		return nil
	}
	inner, _ := v.(*retry.Context)
	return inner
}

func (cb CircuitBreaker) setInner(rc *retry.Context, inner *retry.Context) {
	rc.SetAttribute(circuitInnerAttr, inner)
}

func (cb CircuitBreaker) incrementShortCount(rc *retry.Context) {
	count, _ := rc.Attribute(retry.AttrShortCount)
	n, _ := count.(int)
	rc.SetAttribute(retry.AttrShortCount, n+1)
}

// CanRetry implements the transition table. The delegate's verdict is
// consulted on every call. A refusal within OpenTimeout of the window
// start restarts the window; a refusal after more than ResetTimeout
// rebuilds the inner context and asks the delegate again; an allowance
// after more than OpenTimeout rebuilds the inner context and restarts
// the window. Every false result marks the circuit open and increments
// AttrShortCount; a true result clears both.
func (cb CircuitBreaker) CanRetry(rc *retry.Context) bool {
	now := cb.clock()()
	start := cb.start(rc)
	elapsed := now.Sub(start)
	inner := cb.inner(rc)
	delegateCanRetry := cb.delegate().CanRetry(inner)

	if !delegateCanRetry {
		switch {
		case elapsed > cb.resetTimeout():
			inner = cb.delegate().Open(rc.Parent())
			cb.setInner(rc, inner)
			cb.setStart(rc, now)
			delegateCanRetry = cb.delegate().CanRetry(inner)
		case elapsed < cb.openTimeout():
			cb.setStart(rc, now)
		}
	} else if elapsed > cb.openTimeout() {
		inner = cb.delegate().Open(rc.Parent())
		cb.setInner(rc, inner)
		cb.setStart(rc, now)
	}

	rc.SetAttribute(retry.AttrCircuitOpen, !delegateCanRetry)
	if !delegateCanRetry {
		cb.incrementShortCount(rc)
	} else {
		rc.SetAttribute(retry.AttrShortCount, 0)
	}
	return delegateCanRetry
}

func (cb CircuitBreaker) RegisterThrowable(rc *retry.Context, err error) {
	rc.RegisterError(err)
	cb.delegate().RegisterThrowable(cb.inner(rc), err)
}

func (cb CircuitBreaker) Close(rc *retry.Context) {
	cb.delegate().Close(cb.inner(rc))
}

func (cb CircuitBreaker) MaxAttempts() int { return -1 }

// Package retrypolicy implements the retry.Policy variants: simple
// count-bounded, classifier-driven, composite, timeout, and circuit
// breaker. Each type satisfies package retry's Policy interface
// structurally; the wrapping policies (Composite, CircuitBreaker,
// BudgetGated) hold their sub-policies as retry.Policy values.
package retrypolicy

import (
	"github.com/ravenhollow/retryengine/retry"
)

// NeverRetry allows exactly one attempt: canRetry is true only before
// the first registered failure.
type NeverRetry struct{}

func (NeverRetry) Open(parent *retry.Context) *retry.Context { return retry.NewContext(parent) }

func (NeverRetry) CanRetry(ctx *retry.Context) bool { return ctx.RetryCount() == 0 }

func (NeverRetry) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (NeverRetry) Close(*retry.Context) {}

func (NeverRetry) MaxAttempts() int { return 1 }

// AlwaysRetry never refuses on its own; it exists to be composed with
// other signals (a Timeout, a Listener calling SetExhaustedOnly) that
// decide when the loop actually ends.
type AlwaysRetry struct{}

func (AlwaysRetry) Open(parent *retry.Context) *retry.Context { return retry.NewContext(parent) }

func (AlwaysRetry) CanRetry(*retry.Context) bool { return true }

func (AlwaysRetry) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (AlwaysRetry) Close(*retry.Context) {}

func (AlwaysRetry) MaxAttempts() int { return -1 }

// MaxAttempts bounds the attempt count alone, with no classifier: any
// error is retryable until the count is reached.
type MaxAttempts struct {
	Max int
}

func (m MaxAttempts) Open(parent *retry.Context) *retry.Context { return retry.NewContext(parent) }

func (m MaxAttempts) CanRetry(ctx *retry.Context) bool { return ctx.RetryCount() < m.max() }

func (m MaxAttempts) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (m MaxAttempts) Close(*retry.Context) {}

func (m MaxAttempts) MaxAttempts() int { return m.max() }

// max reports m.Max as configured; zero or negative means exhausted on
// entry, not "use a default" (see Simple.max).
func (m MaxAttempts) max() int { return m.Max }

// DefaultMaxAttempts is the attempt bound used where a policy needs a
// sensible count but none was explicitly configured — a nil
// CircuitBreaker/BudgetGated delegate.
const DefaultMaxAttempts = 3

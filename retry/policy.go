package retry

import "context"

// Policy decides whether the engine may attempt an operation again. Concrete
// policies live in package retrypolicy; Policy is declared here, not there,
// so Template can depend on the interface without importing retrypolicy,
// which itself imports retry (for *Context and Policy) and satisfies this
// interface structurally.
type Policy interface {
	// Open allocates or refreshes a Context, optionally nested under parent.
	Open(parent *Context) *Context

	// CanRetry reports whether the engine may attempt the operation again
	// right now, given ctx's current state.
	CanRetry(ctx *Context) bool

	// RegisterThrowable records a failed attempt against ctx. Implementations
	// must increment ctx.RetryCount exactly once when err is non-nil; the
	// straightforward way to satisfy that is to delegate to ctx.RegisterError.
	RegisterThrowable(ctx *Context, err error)

	// Close releases any resources the policy associated with ctx.
	Close(ctx *Context)

	// MaxAttempts returns the policy's attempt bound, or -1 if unbounded.
	MaxAttempts() int
}

// BackOffContext is opaque per-attempt-group state produced by a back-off
// policy's Start. It may be nil for stateless back-offs.
type BackOffContext interface{}

// BackOff computes and applies the pause between attempts. Start is called
// once per Context to allocate a BackOffContext (which may be nil); BackOff
// is called before every retried attempt to actually suspend the caller.
// Concrete policies live in package backoff.
type BackOff interface {
	Start(ctx *Context) BackOffContext
	BackOff(ctx context.Context, boc BackOffContext) error
}

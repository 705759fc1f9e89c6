package retry

import "context"

// compositeKey composes a call-site label with a caller-generated key so
// that two call sites using coincidentally equal keys don't collide in a
// shared ContextCache.
type compositeKey struct {
	label string
	key   any
}

// ExternalOperation is a per-call operation invoked with its original
// arguments, the shape the stateful adapter exists to support: a method
// interceptor's callback signature, boiled down to the one function the
// core engine actually needs.
type ExternalOperation[A any, T any] func(ctx context.Context, args A) (T, error)

// ExternalRecovery mirrors an external @Recover-style handler: called with
// the original arguments and the failure that exhausted retries.
type ExternalRecovery[A any, T any] func(args A, lastErr error) (T, error)

// StatefulRetry adapts a per-call operation into a key-addressable stateful
// retry. It is the core's surface for a method-interception layer (out of
// this module's scope, per its purpose) to translate "retry this method
// call across transactional boundaries" into ExecuteState/ExecuteStateRecover
// calls.
type StatefulRetry[A any, T any] struct {
	Template *Template

	// KeyGenerator computes the cache key from the call arguments. A nil
	// KeyGenerator, or one returning a nil key, disables retry entirely:
	// the operation runs exactly once.
	KeyGenerator func(args A) any

	// UseRawKey skips composing the key with Label, for callers that already
	// guarantee cross-call-site uniqueness.
	UseRawKey bool
	Label     string

	// NewArgumentsIdentifier reports whether args represent a new logical
	// call (forcing a fresh Context) rather than a resumed one.
	NewArgumentsIdentifier func(args A) bool

	// RollbackClassifier decides, per failure, whether the caller's
	// transaction should roll back (see State.RollbackFor). A nil
	// classifier rolls back on every failure, the source's default.
	RollbackClassifier func(err error) bool
}

// Execute runs op under a stateful retry keyed by KeyGenerator(args), or
// once with no retry if KeyGenerator is nil or returns a nil key. recovery
// may be nil.
func (s *StatefulRetry[A, T]) Execute(ctx context.Context, args A, op ExternalOperation[A, T], recovery ExternalRecovery[A, T]) (T, error) {
	var key any
	if s.KeyGenerator != nil {
		key = s.KeyGenerator(args)
	}
	if key == nil {
		return op(ctx, args)
	}
	if !s.UseRawKey {
		key = compositeKey{label: s.Label, key: key}
	}

	forceRefresh := false
	if s.NewArgumentsIdentifier != nil {
		forceRefresh = s.NewArgumentsIdentifier(args)
	}

	state := &State{Key: key, ForceRefresh: forceRefresh, RollbackFor: s.RollbackClassifier}

	wrappedOp := func(c context.Context) (T, error) { return op(c, args) }

	if recovery == nil {
		return ExecuteState[T](s.Template, ctx, wrappedOp, state)
	}

	wrappedRecovery := func(c context.Context) (T, error) {
		var lastErr error
		if rc, ok := CurrentContext(c); ok {
			lastErr = rc.LastError()
		}
		return recovery(args, lastErr)
	}

	return ExecuteStateRecover[T](s.Template, ctx, wrappedOp, wrappedRecovery, state)
}

package retry

import "context"

// Operation is the caller-supplied fallible unit of work. It may read/write
// attributes on the active Context (via CurrentContext(ctx)) and may call
// Context.SetExhaustedOnly to force the loop to exit early. It must be
// idempotent unless paired with compensating logic, since it can run more
// than once.
type Operation[T any] func(ctx context.Context) (T, error)

// Recovery is invoked once, with the active Context still reachable via
// CurrentContext, when attempts are exhausted and recovery is possible.
type Recovery[T any] func(ctx context.Context) (T, error)

// Template is the execution engine: it orchestrates a Policy, a BackOff, a
// Listener, and — for stateful retries — a ContextCache around a single
// Operation. A zero Template is usable: with no Policy it allows three
// attempts with every error retryable, with no BackOff it does not pause,
// and with no Cache stateful calls share one package-level cache.
type Template struct {
	Policy   Policy
	BackOff  BackOff
	Listener Listener
	Cache    ContextCache

	// ThrowLastExceptionOnExhausted, when true, makes a stateful execution
	// rethrow the last failure raw on exhaustion instead of wrapping it in
	// an ExhaustedError. Stateless executions always rethrow raw.
	ThrowLastExceptionOnExhausted bool

	// RecoverPanics, when true, converts a panic inside Operation or
	// Recovery into an error instead of propagating it as a panic.
	RecoverPanics bool
}

// NewTemplate builds a Template with the given policy and back-off and an
// empty Listener/Cache, matching how the rest of this package's zero values
// behave (no listeners fire, and stateful calls use a package-level
// MapContextCache bounded at DefaultCacheCapacity, shared by every
// Template without a Cache).
func NewTemplate(policy Policy, backOff BackOff) *Template {
	return &Template{Policy: policy, BackOff: backOff}
}

func (t *Template) cache() ContextCache {
	if t.Cache != nil {
		return t.Cache
	}
	return fallbackCache()
}

var sharedFallbackCache = NewMapContextCache(DefaultCacheCapacity)

// fallbackCache is used when a stateful Execute call is made against a
// Template with no Cache configured. Sharing one instance across such
// Templates mirrors the source's single static default cache.
func fallbackCache() ContextCache { return sharedFallbackCache }

func (t *Template) listener() Listener {
	if t.Listener != nil {
		return t.Listener
	}
	return noopListener{}
}

type noopListener struct{}

func (noopListener) Open(*Context) bool       { return true }
func (noopListener) OnError(*Context, error)  {}
func (noopListener) OnSuccess(*Context, any)  {}
func (noopListener) Close(*Context, error)    {}

type noopBackOff struct{}

func (noopBackOff) Start(*Context) BackOffContext                           { return nil }
func (noopBackOff) BackOff(context.Context, BackOffContext) error { return nil }

func (t *Template) backOff() BackOff {
	if t.BackOff != nil {
		return t.BackOff
	}
	return noopBackOff{}
}

// Execute runs op with no recovery and no stateful retry.
func Execute[T any](t *Template, ctx context.Context, op Operation[T]) (T, error) {
	return run[T](t, ctx, op, nil, nil)
}

// ExecuteRecover runs op, falling back to recovery once attempts are
// exhausted.
func ExecuteRecover[T any](t *Template, ctx context.Context, op Operation[T], recovery Recovery[T]) (T, error) {
	return run[T](t, ctx, op, recovery, nil)
}

// ExecuteState runs op as a stateful retry keyed by state.Key, with no
// recovery: exhaustion rethrows (wrapped, unless ThrowLastExceptionOnExhausted).
func ExecuteState[T any](t *Template, ctx context.Context, op Operation[T], state *State) (T, error) {
	return run[T](t, ctx, op, nil, state)
}

// ExecuteStateRecover runs op as a stateful retry with a recovery callback.
func ExecuteStateRecover[T any](t *Template, ctx context.Context, op Operation[T], recovery Recovery[T], state *State) (T, error) {
	return run[T](t, ctx, op, recovery, state)
}

func run[T any](t *Template, parentCtx context.Context, op Operation[T], recovery Recovery[T], state *State) (zero T, _ error) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	policy := t.Policy
	if policy == nil {
		policy = defaultPolicy{}
	}
	bo := t.backOff()
	listener := t.listener()
	cache := t.cache()

	parent, _ := CurrentContext(parentCtx)
	rc, err := openContext(policy, cache, parent, state)
	if err != nil {
		return zero, err
	}

	pubCtx := withCurrent(parentCtx, rc)

	var lastErr error
	defer func() {
		closeContext(policy, rc)
		listener.Close(rc, lastErr)
	}()

	if !listener.Open(rc) {
		return zero, &TerminatedError{Context: rc}
	}

	if _, ok := rc.Attribute(AttrMaxAttempts); !ok {
		rc.SetAttribute(AttrMaxAttempts, policy.MaxAttempts())
	}

	var boc BackOffContext
	if v, ok := rc.Attribute(AttrBackOff); ok {
		boc, _ = v.(BackOffContext)
	} else {
		boc = bo.Start(rc)
		if boc != nil {
			rc.SetAttribute(AttrBackOff, boc)
		}
	}

	for policy.CanRetry(rc) && !rc.ExhaustedOnly() {
		result, opErr := invoke(t.RecoverPanics, pubCtx, op)
		if opErr == nil {
			lastErr = nil
			listener.OnSuccess(rc, result)
			if state != nil && !rc.BoolAttribute(AttrStateGlobal) {
				cache.Remove(state.Key)
			}
			return result, nil
		}

		lastErr = opErr
		policy.RegisterThrowable(rc, opErr)
		if state != nil {
			if rc.RetryCount() > 1 && !cache.ContainsKey(state.Key) {
				return zero, &InconsistentStateError{Key: state.Key}
			}
			if err := cache.Put(state.Key, rc); err != nil {
				return zero, err
			}
		}
		listener.OnError(rc, opErr)

		if policy.CanRetry(rc) && !rc.ExhaustedOnly() {
			if err := bo.BackOff(pubCtx, boc); err != nil {
				return zero, &BackOffInterruptedError{Cause: err}
			}
		}

		if state != nil && state.rollbackFor(opErr) {
			return zero, opErr
		}

		if state != nil && rc.BoolAttribute(AttrStateGlobal) {
			break
		}
	}

	return handleExhausted(rc, cache, state, recovery, pubCtx, lastErr, t.ThrowLastExceptionOnExhausted, t.RecoverPanics)
}

func invoke[T any](recoverPanics bool, ctx context.Context, op Operation[T]) (result T, err error) {
	if recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				err = WrapValue(r)
			}
		}()
	}
	return op(ctx)
}

// openContext implements the engine's open_context step. With no State it
// simply opens (or reopens) a Context from the policy. With State it
// consults the cache first, tolerating the benign race where ContainsKey
// was true but a concurrent Remove emptied the entry before Get runs.
func openContext(policy Policy, cache ContextCache, parent *Context, state *State) (*Context, error) {
	if state == nil {
		return policy.Open(parent), nil
	}

	if !state.ForceRefresh && cache.ContainsKey(state.Key) {
		if cached, ok := cache.Get(state.Key); ok {
			cached.reopen()
			return cached, nil
		}
	}

	rc := policy.Open(parent)
	rc.SetAttribute(AttrState, state.Key)
	if rc.BoolAttribute(AttrStateGlobal) {
		if err := cache.Put(state.Key, rc); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

func closeContext(policy Policy, rc *Context) {
	if rc.BoolAttribute(AttrClosed) {
		return
	}
	policy.Close(rc)
	rc.SetAttribute(AttrClosed, true)
}

func handleExhausted[T any](rc *Context, cache ContextCache, state *State, recovery Recovery[T], pubCtx context.Context, lastErr error, throwLastExceptionOnExhausted bool, recoverPanics bool) (zero T, _ error) {
	rc.SetAttribute(AttrExhausted, true)

	if state != nil && !rc.BoolAttribute(AttrStateGlobal) {
		cache.Remove(state.Key)
	}

	if !rc.BoolAttribute(AttrNoRecovery) && recovery != nil {
		result, err := invoke(recoverPanics, pubCtx, Operation[T](recovery))
		if err == nil {
			rc.SetAttribute(AttrRecovered, true)
		}
		return result, err
	}

	if state != nil && !throwLastExceptionOnExhausted {
		return zero, &ExhaustedError{Context: rc, Last: lastErr}
	}
	return zero, lastErr
}

// defaultPolicy is the engine-level fallback used only when a Template has
// no Policy configured: three attempts, every error retryable. Richer
// policies (classifier-aware, composite, circuit-breaking) live in package
// retrypolicy, which this package cannot import without an import cycle —
// retrypolicy depends on retry for *Context, not the reverse.
type defaultPolicy struct{}

func (defaultPolicy) Open(parent *Context) *Context { return NewContext(parent) }
func (defaultPolicy) CanRetry(rc *Context) bool {
	return rc.RetryCount() < 3
}
func (defaultPolicy) RegisterThrowable(rc *Context, err error) { rc.RegisterError(err) }
func (defaultPolicy) Close(*Context)                           {}
func (defaultPolicy) MaxAttempts() int                          { return 3 }

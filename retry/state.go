package retry

// State is the caller-supplied descriptor that turns a retry stateful: the
// same logical failure can then be retried across separate top-level calls
// to Template.Execute, keyed by Key, because the engine persists the
// Context in a ContextCache between invocations instead of discarding it
// when Execute returns.
type State struct {
	// Key identifies the logical operation. It must be comparable (usable
	// as a map key) since it addresses the ContextCache directly.
	Key any

	// ForceRefresh, when true, skips the cache lookup and opens a fresh
	// Context even if one is cached under Key.
	ForceRefresh bool

	// RollbackFor decides, per failure, whether the caller's surrounding
	// transaction should be rolled back. When it returns true the engine
	// rethrows after registering the failure, leaving the cached Context
	// for the next invocation to resume. When it returns false the loop
	// continues in-stack, in the current call. A nil RollbackFor rolls
	// back on every error, matching the source's default.
	RollbackFor func(err error) bool
}

func (s *State) rollbackFor(err error) bool {
	if s == nil {
		return false
	}
	if s.RollbackFor == nil {
		return true
	}
	return s.RollbackFor(err)
}

package retrypolicy

import "github.com/ravenhollow/retryengine/retry"

// exceptionClassifier is the narrow slice of classify.Classifier this
// package needs, declared locally so retrypolicy doesn't import package
// classify just for one method signature.
type exceptionClassifier interface {
	Classify(err error) bool
}

// Simple retries up to Max times (including the initial attempt),
// gated by an optional exception classifier: canRetry is
// (lastErr==nil || Classifier.Classify(lastErr)) && retryCount<Max. A
// nil Classifier treats every error as retryable, matching the
// source's default classifier.
//
// When canRetry returns false and the last error isn't recoverable
// (per NotRecoverable, not per Classifier), the context's
// AttrNoRecovery attribute is set so the engine skips any configured
// recovery callback; every other canRetry call clears it.
type Simple struct {
	Max        int
	Classifier exceptionClassifier

	// NotRecoverable optionally overrides which errors may not be passed
	// to a recovery callback even once retries are exhausted. A nil
	// NotRecoverable means every error is recoverable.
	NotRecoverable exceptionClassifier
}

func (s Simple) Open(parent *retry.Context) *retry.Context { return retry.NewContext(parent) }

func (s Simple) CanRetry(ctx *retry.Context) bool {
	last := ctx.LastError()
	retryable := last == nil || s.classify(last)
	can := retryable && ctx.RetryCount() < s.max()

	if !can && last != nil && !s.recoverable(last) {
		ctx.SetAttribute(retry.AttrNoRecovery, true)
	} else {
		ctx.RemoveAttribute(retry.AttrNoRecovery)
	}
	return can
}

func (s Simple) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (s Simple) Close(*retry.Context) {}

func (s Simple) MaxAttempts() int { return s.max() }

// max reports s.Max as configured. A Max of zero or negative is not a
// "pick a default" sentinel: it means exhausted on entry, matching the
// boundary case where a policy allows no attempts at all.
func (s Simple) max() int { return s.Max }

func (s Simple) classify(err error) bool {
	if s.Classifier == nil {
		return true
	}
	return s.Classifier.Classify(err)
}

func (s Simple) recoverable(err error) bool {
	if s.NotRecoverable == nil {
		return true
	}
	return !s.NotRecoverable.Classify(err)
}

package retrypolicy

import "github.com/ravenhollow/retryengine/retry"

// ClassifierOnly retries for as long as the classifier says the last
// failure is retryable, with no attempt-count bound of its own: an
// always-retryable classifier paired with this policy never stops on
// its own, matching the source's BinaryExceptionClassifierRetryPolicy.
type ClassifierOnly struct {
	Classifier exceptionClassifier
}

func (c ClassifierOnly) Open(parent *retry.Context) *retry.Context { return retry.NewContext(parent) }

func (c ClassifierOnly) CanRetry(ctx *retry.Context) bool {
	last := ctx.LastError()
	if last == nil {
		return true
	}
	if c.Classifier == nil {
		return true
	}
	return c.Classifier.Classify(last)
}

func (c ClassifierOnly) RegisterThrowable(ctx *retry.Context, err error) { ctx.RegisterError(err) }

func (c ClassifierOnly) Close(*retry.Context) {}

func (c ClassifierOnly) MaxAttempts() int { return -1 }

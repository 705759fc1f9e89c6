package classify

// Built-in classifier registry names.
const (
	ClassifierAlwaysRetryable = "always"
	ClassifierNeverRetryable  = "never"
	ClassifierHTTP            = "http"
)

// RegisterBuiltins registers the classifiers every deployment of this
// module is expected to need into reg.
func RegisterBuiltins(reg *Registry) {
	if reg == nil {
		return
	}
	reg.Register(ClassifierAlwaysRetryable, AlwaysRetryable{})
	reg.Register(ClassifierNeverRetryable, NeverRetryable{})
	reg.Register(ClassifierHTTP, HTTPClassifier{})
}

// AlwaysRetryable classifies every non-nil error as retryable.
type AlwaysRetryable struct{}

func (AlwaysRetryable) Classify(err error) bool { return err != nil }

// NeverRetryable classifies every error as non-retryable.
type NeverRetryable struct{}

func (NeverRetryable) Classify(error) bool { return false }

package policy

import "reflect"

// RetryPolicyKind selects which retrypolicy type (a retry.Policy) a
// RetryPolicySpec compiles to.
type RetryPolicyKind int

const (
	KindSimple RetryPolicyKind = iota
	KindMaxAttempts
	KindClassifier
	KindComposite
	KindTimeout
	KindCircuitBreaker
	KindNever
	KindAlways
)

// BackOffKind selects which backoff type (a retry.BackOff) a BackOffSpec
// compiles to.
type BackOffKind int

const (
	BackOffNone BackOffKind = iota
	BackOffFixed
	BackOffUniformRandom
	BackOffExponential
	BackOffExponentialJitter
)

// CompositeOperator is the declarative form of retrypolicy.Operator;
// Compile maps it onto that type.
type CompositeOperator int

const (
	CompositeAND CompositeOperator = iota
	CompositeOR
)

// RetryPolicySpec declaratively describes a retrypolicy.Policy. Only
// the fields relevant to Kind are consulted by Compile; the rest are
// ignored.
type RetryPolicySpec struct {
	Kind RetryPolicyKind

	MaxAttempts int

	// ClassifierName and NotRecoverableName look up a classify.Classifier
	// previously registered in the classify.Registry passed to Compile.
	ClassifierName     string
	NotRecoverableName string

	TimeoutMS int64

	CircuitOpenTimeoutMS  int64
	CircuitResetTimeoutMS int64
	CircuitDelegate       *RetryPolicySpec

	Operator CompositeOperator
	Children []RetryPolicySpec

	// BudgetName, if set, wraps the compiled policy in a
	// retrypolicy.BudgetGated against a budget.Registry entry of this
	// name.
	BudgetName string
}

// BackOffSpec declaratively describes a retry.BackOff from package backoff.
type BackOffSpec struct {
	Kind BackOffKind

	PeriodMS int64 // Fixed

	MinMS, MaxMS int64 // UniformRandom; also Exponential's cap (MaxMS)

	InitialMS  int64   // Exponential / ExponentialWithJitter
	Multiplier float64 // Exponential / ExponentialWithJitter
}

// PolicySource records where an EffectivePolicy came from.
type PolicySource string

const (
	PolicySourceUnknown PolicySource = ""
	PolicySourceStatic  PolicySource = "static"
	PolicySourceRemote  PolicySource = "remote"
)

// PolicyMeta carries provenance that doesn't affect how the policy
// behaves, only how it's reported.
type PolicyMeta struct {
	Source PolicySource
}

// EffectivePolicy is the fully-resolved configuration for one
// PolicyKey: a retry policy plus the back-off paired with it.
type EffectivePolicy struct {
	Key     PolicyKey
	ID      string
	Retry   RetryPolicySpec
	BackOff BackOffSpec
	Meta    PolicyMeta
}

// IsZero reports whether pol carries no configuration at all (the
// value obtained from an unset EffectivePolicy field). RetryPolicySpec
// holds a slice and a pointer, so it isn't comparable with ==;
// reflect.DeepEqual stands in for that comparison.
func (pol EffectivePolicy) IsZero() bool {
	return pol.Key == (PolicyKey{}) &&
		pol.ID == "" &&
		reflect.DeepEqual(pol.Retry, RetryPolicySpec{}) &&
		reflect.DeepEqual(pol.BackOff, BackOffSpec{})
}

// DefaultPolicyFor returns the policy this module falls back to when
// no configuration is found for key: three attempts, fixed 100ms
// back-off, retrying every error.
func DefaultPolicyFor(key PolicyKey) EffectivePolicy {
	return EffectivePolicy{
		Key: key,
		ID:  "default",
		Retry: RetryPolicySpec{
			Kind:        KindSimple,
			MaxAttempts: 3,
		},
		BackOff: BackOffSpec{
			Kind:     BackOffFixed,
			PeriodMS: 100,
		},
		Meta: PolicyMeta{Source: PolicySourceStatic},
	}
}

// Normalize validates pol and fills in defaults, returning a
// *NormalizeError for a configuration that can never compile (a
// composite with no children, or a timeout policy without a positive
// timeout). Out-of-range back-off values, such as an exponential
// multiplier below 1, are clamped rather than rejected.
func (pol EffectivePolicy) Normalize() (EffectivePolicy, error) {
	if pol.Retry.Kind == KindComposite && len(pol.Retry.Children) == 0 {
		return EffectivePolicy{}, &NormalizeError{Field: "retry.children", Value: "empty"}
	}
	if pol.Retry.Kind == KindCircuitBreaker && pol.Retry.CircuitDelegate == nil {
		pol.Retry.CircuitDelegate = &RetryPolicySpec{Kind: KindSimple, MaxAttempts: 3}
	}
	if pol.Retry.Kind == KindTimeout && pol.Retry.TimeoutMS <= 0 {
		return EffectivePolicy{}, &NormalizeError{Field: "retry.timeoutMs", Value: "must be positive"}
	}

	switch pol.BackOff.Kind {
	case BackOffExponential, BackOffExponentialJitter:
		if pol.BackOff.Multiplier < 1.0 {
			pol.BackOff.Multiplier = 1.0
		}
		if pol.BackOff.InitialMS <= 0 {
			pol.BackOff.InitialMS = 100
		}
		if pol.BackOff.MaxMS <= 0 || pol.BackOff.MaxMS < pol.BackOff.InitialMS {
			pol.BackOff.MaxMS = 30000
		}
	case BackOffFixed:
		if pol.BackOff.PeriodMS <= 0 {
			pol.BackOff.PeriodMS = 1
		}
	case BackOffUniformRandom:
		if pol.BackOff.MinMS < 0 {
			pol.BackOff.MinMS = 0
		}
	}

	return pol, nil
}

package policy

import (
	"fmt"
	"time"

	"github.com/ravenhollow/retryengine/backoff"
	"github.com/ravenhollow/retryengine/budget"
	"github.com/ravenhollow/retryengine/classify"
	"github.com/ravenhollow/retryengine/retry"
	"github.com/ravenhollow/retryengine/retrypolicy"
)

// Compile turns a declarative EffectivePolicy into the live
// retry.Policy/retry.BackOff pair a Template runs against. Classifier
// and budget names are resolved against the supplied registries; a nil
// registry means "no classifiers/budgets are available," which is only
// valid for specs that don't reference one by name.
func Compile(pol EffectivePolicy, classifiers *classify.Registry, budgets *budget.Registry) (retry.Policy, retry.BackOff, error) {
	retryPolicy, err := compileRetry(pol.Retry, classifiers, budgets)
	if err != nil {
		return nil, nil, err
	}
	bo, err := compileBackOff(pol.BackOff)
	if err != nil {
		return nil, nil, err
	}
	return retryPolicy, bo, nil
}

func compileRetry(spec RetryPolicySpec, classifiers *classify.Registry, budgets *budget.Registry) (retry.Policy, error) {
	var p retry.Policy

	switch spec.Kind {
	case KindNever:
		p = retrypolicy.NeverRetry{}
	case KindAlways:
		p = retrypolicy.AlwaysRetry{}
	case KindMaxAttempts:
		p = retrypolicy.MaxAttempts{Max: spec.MaxAttempts}
	case KindClassifier:
		c, err := lookupClassifier(spec.ClassifierName, classifiers)
		if err != nil {
			return nil, err
		}
		p = retrypolicy.ClassifierOnly{Classifier: c}
	case KindComposite:
		if len(spec.Children) == 0 {
			return nil, &NormalizeError{Field: "retry.children", Value: "empty"}
		}
		children := make([]retry.Policy, len(spec.Children))
		for i, child := range spec.Children {
			cp, err := compileRetry(child, classifiers, budgets)
			if err != nil {
				return nil, fmt.Errorf("retry.children[%d]: %w", i, err)
			}
			children[i] = cp
		}
		op := retrypolicy.AND
		if spec.Operator == CompositeOR {
			op = retrypolicy.OR
		}
		p = retrypolicy.Composite{Policies: children, Operator: op}
	case KindTimeout:
		if spec.TimeoutMS <= 0 {
			return nil, &NormalizeError{Field: "retry.timeoutMs", Value: "must be positive"}
		}
		p = retrypolicy.Timeout{Duration: time.Duration(spec.TimeoutMS) * time.Millisecond}
	case KindCircuitBreaker:
		delegateSpec := spec.CircuitDelegate
		if delegateSpec == nil {
			delegateSpec = &RetryPolicySpec{Kind: KindSimple, MaxAttempts: 3}
		}
		delegate, err := compileRetry(*delegateSpec, classifiers, budgets)
		if err != nil {
			return nil, fmt.Errorf("retry.circuitDelegate: %w", err)
		}
		p = retrypolicy.CircuitBreaker{
			Delegate:     delegate,
			OpenTimeout:  time.Duration(spec.CircuitOpenTimeoutMS) * time.Millisecond,
			ResetTimeout: time.Duration(spec.CircuitResetTimeoutMS) * time.Millisecond,
		}
	default: // KindSimple
		var classifier, notRecoverable classify.Classifier
		var err error
		if spec.ClassifierName != "" {
			if classifier, err = lookupClassifier(spec.ClassifierName, classifiers); err != nil {
				return nil, err
			}
		}
		if spec.NotRecoverableName != "" {
			if notRecoverable, err = lookupClassifier(spec.NotRecoverableName, classifiers); err != nil {
				return nil, err
			}
		}
		p = retrypolicy.Simple{Max: spec.MaxAttempts, Classifier: classifier, NotRecoverable: notRecoverable}
	}

	if spec.BudgetName != "" {
		b, err := lookupBudget(spec.BudgetName, budgets)
		if err != nil {
			return nil, err
		}
		p = retrypolicy.BudgetGated{Delegate: p, Budget: b}
	}

	return p, nil
}

func compileBackOff(spec BackOffSpec) (retry.BackOff, error) {
	switch spec.Kind {
	case BackOffFixed:
		if spec.PeriodMS <= 0 {
			return nil, &NormalizeError{Field: "backOff.periodMs", Value: "must be positive"}
		}
		return backoff.NewFixed(time.Duration(spec.PeriodMS) * time.Millisecond), nil
	case BackOffUniformRandom:
		return backoff.NewUniformRandom(
			time.Duration(spec.MinMS)*time.Millisecond,
			time.Duration(spec.MaxMS)*time.Millisecond,
		), nil
	case BackOffExponential:
		if spec.Multiplier < 1.0 {
			return nil, &NormalizeError{Field: "backOff.multiplier", Value: "must be >= 1.0"}
		}
		return backoff.NewExponential(
			time.Duration(spec.InitialMS)*time.Millisecond,
			spec.Multiplier,
			time.Duration(spec.MaxMS)*time.Millisecond,
		), nil
	case BackOffExponentialJitter:
		if spec.Multiplier < 1.0 {
			return nil, &NormalizeError{Field: "backOff.multiplier", Value: "must be >= 1.0"}
		}
		return backoff.NewExponentialWithJitter(
			time.Duration(spec.InitialMS)*time.Millisecond,
			spec.Multiplier,
			time.Duration(spec.MaxMS)*time.Millisecond,
		), nil
	default:
		return backoff.NoBackOff{}, nil
	}
}

func lookupClassifier(name string, reg *classify.Registry) (classify.Classifier, error) {
	c, ok := reg.Get(name)
	if !ok {
		return nil, &NormalizeError{Field: "classifier", Value: name}
	}
	return c, nil
}

func lookupBudget(name string, reg *budget.Registry) (budget.Budget, error) {
	b, ok := reg.Get(name)
	if !ok {
		return nil, &NormalizeError{Field: "budget", Value: name}
	}
	return b, nil
}

package controlplane

import (
	"context"
	"errors"
	"fmt"

	"github.com/ravenhollow/retryengine/budget"
	"github.com/ravenhollow/retryengine/classify"
	"github.com/ravenhollow/retryengine/policy"
	"github.com/ravenhollow/retryengine/retry"
)

// TemplateFor resolves key's EffectivePolicy from provider, compiles it
// against classifiers and budgets, and returns a Template ready to run
// an operation through — the bridge the teacher's Executor built in
// (resolvePolicyFast → provider.GetEffectivePolicy → compile-and-run)
// but split out as an explicit step, since this module's Template is a
// value the caller holds rather than something an Executor resolves
// fresh on every call.
//
// A provider error other than ErrPolicyNotFound is returned as-is. A
// missing policy (ErrPolicyNotFound, or a zero EffectivePolicy with no
// error) falls back to policy.DefaultPolicyFor(key), matching the
// provider's own fallback for an unconfigured key.
func TemplateFor(ctx context.Context, provider PolicyProvider, key policy.PolicyKey, classifiers *classify.Registry, budgets *budget.Registry) (*retry.Template, error) {
	if provider == nil {
		return nil, errors.New("controlplane: TemplateFor called with a nil PolicyProvider")
	}

	pol, err := provider.GetEffectivePolicy(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrPolicyNotFound) {
			return nil, fmt.Errorf("controlplane: resolving policy for %s: %w", key, err)
		}
		pol = policy.DefaultPolicyFor(key)
	}
	if pol.IsZero() {
		pol = policy.DefaultPolicyFor(key)
	}
	pol.Key = key

	pol, err = pol.Normalize()
	if err != nil {
		return nil, fmt.Errorf("controlplane: normalizing policy for %s: %w", key, err)
	}

	retryPolicy, backOff, err := policy.Compile(pol, classifiers, budgets)
	if err != nil {
		return nil, fmt.Errorf("controlplane: compiling policy for %s: %w", key, err)
	}

	return retry.NewTemplate(retryPolicy, backOff), nil
}

// Package recourse is the package-level convenience façade over retry:
// Do/DoValue run an operation against the shared default Template
// without the caller building one explicitly.
package recourse

import (
	"context"

	"github.com/ravenhollow/retryengine/budget"
	"github.com/ravenhollow/retryengine/classify"
	"github.com/ravenhollow/retryengine/controlplane"
	"github.com/ravenhollow/retryengine/policy"
	"github.com/ravenhollow/retryengine/retry"
)

// Key is the structured form of a policy key.
type Key = policy.PolicyKey

// ParseKey parses "namespace/name" (or a bare name) into a Key.
func ParseKey(s string) (Key, error) { return policy.ParseKey(s) }

// TemplateFor resolves key's policy from provider, compiles it against
// classifiers and budgets, and returns a Template ready to run an
// operation through. It is the façade's entry point for control-plane-
// distributed policies, as opposed to Do/DoValue's single shared
// default Template; see controlplane.TemplateFor for the resolution and
// fallback rules.
func TemplateFor(ctx context.Context, provider controlplane.PolicyProvider, key Key, classifiers *classify.Registry, budgets *budget.Registry) (*retry.Template, error) {
	return controlplane.TemplateFor(ctx, provider, key, classifiers, budgets)
}

// Init installs tmpl as the default Template. It must be called before
// Do/DoValue are used; see retry.SetGlobal for the startup-time-only
// configuration contract this defers to.
func Init(tmpl *retry.Template) {
	retry.SetGlobal(tmpl)
}

// Do runs op against the default Template with no result value.
func Do(ctx context.Context, op retry.Operation[struct{}]) error {
	_, err := retry.Execute[struct{}](retry.DefaultTemplate(), ctx, op)
	return err
}

// DoValue runs op against the default Template, returning its result.
func DoValue[T any](ctx context.Context, op retry.Operation[T]) (T, error) {
	return retry.Execute[T](retry.DefaultTemplate(), ctx, op)
}

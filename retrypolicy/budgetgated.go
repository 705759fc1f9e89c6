package retrypolicy

import (
	"context"

	"github.com/ravenhollow/retryengine/budget"
	"github.com/ravenhollow/retryengine/retry"
)

// BudgetGated wraps a delegate policy so that each attempt also costs a
// token from a shared budget: once the budget is exhausted, CanRetry
// refuses even if the delegate would allow another attempt. It is an
// ordinary policy decorator — the core Template has no knowledge of
// budgets at all.
type BudgetGated struct {
	Delegate retry.Policy
	Budget   budget.Budget
}

const budgetGatedDecisionAttr = "retrypolicy.budgetgated.decision"

// budgetGatedDecision caches the Allow outcome for a given RetryCount, so
// that the engine's several CanRetry calls at one retry count (the
// post-register guard before back-off, then the next loop head) consume
// exactly one token per attempt instead of one per call.
type budgetGatedDecision struct {
	count   int
	allowed bool
}

func (g BudgetGated) delegate() retry.Policy {
	if g.Delegate != nil {
		return g.Delegate
	}
	return Simple{Max: DefaultMaxAttempts}
}

func (g BudgetGated) Open(parent *retry.Context) *retry.Context {
	return g.delegate().Open(parent)
}

func (g BudgetGated) CanRetry(rc *retry.Context) bool {
	if !g.delegate().CanRetry(rc) {
		return false
	}
	if g.Budget == nil {
		return true
	}

	count := rc.RetryCount()
	if v, ok := rc.Attribute(budgetGatedDecisionAttr); ok {
		if d, ok := v.(budgetGatedDecision); ok && d.count == count {
			return d.allowed
		}
	}

	allowed := g.Budget.Allow(context.Background()).Allowed
	rc.SetAttribute(budgetGatedDecisionAttr, budgetGatedDecision{count: count, allowed: allowed})
	return allowed
}

func (g BudgetGated) RegisterThrowable(rc *retry.Context, err error) {
	g.delegate().RegisterThrowable(rc, err)
}

func (g BudgetGated) Close(rc *retry.Context) { g.delegate().Close(rc) }

func (g BudgetGated) MaxAttempts() int { return g.delegate().MaxAttempts() }

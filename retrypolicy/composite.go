package retrypolicy

import "github.com/ravenhollow/retryengine/retry"

// Operator selects how Composite combines its sub-policies' canRetry
// votes.
type Operator int

const (
	// AND requires every sub-policy to allow another attempt.
	AND Operator = iota
	// OR allows another attempt if any sub-policy allows one.
	OR
)

const compositeChildrenAttr = "retrypolicy.composite.children"

// Composite combines several retry policies under one canRetry vote.
// It owns a parallel array of child contexts, one per sub-policy,
// carried on the composite's own Context so a single Composite value
// can be shared across concurrent stateful operations without its
// children's state bleeding between them.
type Composite struct {
	Policies []retry.Policy
	Operator Operator
}

func (c Composite) Open(parent *retry.Context) *retry.Context {
	rc := retry.NewContext(parent)
	children := make([]*retry.Context, len(c.Policies))
	for i, p := range c.Policies {
		children[i] = p.Open(parent)
	}
	rc.SetAttribute(compositeChildrenAttr, children)
	return rc
}

func (c Composite) children(rc *retry.Context) []*retry.Context {
	v, ok := rc.Attribute(compositeChildrenAttr)
	if !ok {
		return nil
	}
	children, _ := v.([]*retry.Context)
	return children
}

func (c Composite) CanRetry(rc *retry.Context) bool {
	children := c.children(rc)
	if len(c.Policies) == 0 {
		return false
	}
	switch c.Operator {
	case OR:
		for i, p := range c.Policies {
			if p.CanRetry(children[i]) {
				return true
			}
		}
		return false
	default: // AND
		for i, p := range c.Policies {
			if !p.CanRetry(children[i]) {
				return false
			}
		}
		return true
	}
}

func (c Composite) RegisterThrowable(rc *retry.Context, err error) {
	rc.RegisterError(err)
	children := c.children(rc)
	for i, p := range c.Policies {
		p.RegisterThrowable(children[i], err)
	}
}

func (c Composite) Close(rc *retry.Context) {
	children := c.children(rc)
	for i, p := range c.Policies {
		p.Close(children[i])
	}
}

// MaxAttempts combines the sub-policies' bounds per Operator: the most
// restrictive (smallest finite) bound under AND, the least restrictive
// (largest, or unbounded if any child is) under OR.
func (c Composite) MaxAttempts() int {
	switch c.Operator {
	case OR:
		max := -1
		for _, p := range c.Policies {
			m := p.MaxAttempts()
			if m < 0 {
				return -1
			}
			if m > max {
				max = m
			}
		}
		return max
	default: // AND
		min := -1
		for _, p := range c.Policies {
			m := p.MaxAttempts()
			if m < 0 {
				continue
			}
			if min < 0 || m < min {
				min = m
			}
		}
		return min
	}
}

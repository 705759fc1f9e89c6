package controlplane

import (
	"testing"
	"time"

	"github.com/ravenhollow/retryengine/policy"
)

func TestPolicyCacheSetAndGet(t *testing.T) {
	c := NewPolicyCache()
	key := policy.PolicyKey{Name: "charge"}
	pol := policy.DefaultPolicyFor(key)

	c.Set(key, pol, time.Minute)

	got, found, negative := c.Get(key)
	if !found || negative {
		t.Fatalf("found=%v negative=%v, want found=true negative=false", found, negative)
	}
	if got.ID != pol.ID {
		t.Fatalf("got ID %q, want %q", got.ID, pol.ID)
	}
}

func TestPolicyCacheExpires(t *testing.T) {
	now := time.Now()
	c := NewPolicyCache()
	c.nowFn = func() time.Time { return now }

	key := policy.PolicyKey{Name: "charge"}
	c.Set(key, policy.DefaultPolicyFor(key), time.Second)

	c.nowFn = func() time.Time { return now.Add(2 * time.Second) }
	if _, found, _ := c.Get(key); found {
		t.Fatal("expected the entry to have expired")
	}
}

func TestPolicyCacheNegativeEntry(t *testing.T) {
	c := NewPolicyCache()
	key := policy.PolicyKey{Name: "missing"}
	c.SetMissing(key, time.Minute)

	_, found, negative := c.Get(key)
	if !found || !negative {
		t.Fatalf("found=%v negative=%v, want both true", found, negative)
	}
}

func TestPolicyCacheInvalidate(t *testing.T) {
	c := NewPolicyCache()
	key := policy.PolicyKey{Name: "charge"}
	c.Set(key, policy.DefaultPolicyFor(key), time.Minute)
	c.Invalidate(key)

	if _, found, _ := c.Get(key); found {
		t.Fatal("expected the entry to be gone after Invalidate")
	}
}

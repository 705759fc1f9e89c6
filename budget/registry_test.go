package budget

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("unlimited", UnlimitedBudget{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	b, ok := reg.Get("unlimited")
	if !ok {
		t.Fatal("expected registered budget to be found")
	}
	if _, ok := b.(UnlimitedBudget); !ok {
		t.Fatalf("got %T, want UnlimitedBudget", b)
	}
}

func TestRegistryRejectsEmptyNameAndNilBudget(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("", UnlimitedBudget{}); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected nil budget to be rejected")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("missing"); ok {
		t.Fatal("expected missing budget to report not found")
	}
}

func TestMustRegisterPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegister to panic on invalid registration")
		}
	}()
	reg := NewRegistry()
	reg.MustRegister("", UnlimitedBudget{})
}

func TestRegistryNilReceiverIsSafe(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Get("x"); ok {
		t.Fatal("expected nil registry to never find anything")
	}
}

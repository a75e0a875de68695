package physics

import "testing"

type namedCollider string

func (namedCollider) OnCollisionEnter(Contact) {}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	a := r.Register(namedCollider("a"))
	b := r.Register(namedCollider("b"))

	if a.IsZero() || b.IsZero() {
		t.Fatal("Registered refs must not be zero")
	}
	if c, ok := r.Resolve(a); !ok || c != namedCollider("a") {
		t.Errorf("Expected a, got %v %v", c, ok)
	}
	if _, ok := r.Resolve(Ref{}); ok {
		t.Error("Zero ref must never resolve")
	}
	if _, ok := r.Resolve(Ref{Index: 40, Gen: 1}); ok {
		t.Error("Unknown index must not resolve")
	}
	if r.Live() != 2 {
		t.Errorf("Expected 2 live, got %d", r.Live())
	}
}

// TestRegistryGenerations verifies recycled slots do not revive old refs
func TestRegistryGenerations(t *testing.T) {
	r := NewRegistry()
	old := r.Register(namedCollider("old"))
	r.Release(old)
	r.Release(old) // double release is harmless

	fresh := r.Register(namedCollider("fresh"))
	if fresh.Index != old.Index {
		t.Fatalf("Expected slot %d to be recycled, got %d", old.Index, fresh.Index)
	}
	if fresh.Gen == old.Gen {
		t.Fatal("Recycled slot must bump its generation")
	}
	if _, ok := r.Resolve(old); ok {
		t.Error("Stale ref resolved after recycling")
	}
	if c, ok := r.Resolve(fresh); !ok || c != namedCollider("fresh") {
		t.Error("Fresh ref should resolve")
	}
	if r.Live() != 1 {
		t.Errorf("Expected 1 live, got %d", r.Live())
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	var refs []Ref
	for i := 0; i < 4; i++ {
		refs = append(refs, r.Register(namedCollider("x")))
	}
	r.Reset()

	for _, ref := range refs {
		if _, ok := r.Resolve(ref); ok {
			t.Errorf("Ref %+v resolved after reset", ref)
		}
	}
	if r.Live() != 0 {
		t.Errorf("Expected 0 live, got %d", r.Live())
	}
}

func TestRegisterNil(t *testing.T) {
	r := NewRegistry()
	if ref := r.Register(nil); !ref.IsZero() {
		t.Error("Registering nil should return the zero ref")
	}
}

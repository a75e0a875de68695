package physics

// Contact is delivered to the source body's owner when a collision test passes.
type Contact struct {
	Self          Handle   // source body
	Other         Handle   // destination body
	OtherRef      Ref      // destination's back-reference; resolve it through the registry
	OtherCategory Category // lets receivers branch without resolving
	Point         Vec2     // source collision origin at the time of contact
}

// Collider is implemented by gameplay objects that react to contact.
type Collider interface {
	OnCollisionEnter(c Contact)
}

// Ref is a generation-checked, non-owning reference to a registered Collider.
// The zero Ref never resolves.
type Ref struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether r is the empty reference.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

type refSlot struct {
	gen      uint32
	collider Collider
	live     bool
}

// Registry maps refs to colliders. Releasing a ref bumps its slot generation so
// every copy of the old ref goes stale instead of pointing at a recycled object.
type Registry struct {
	slots []refSlot // slot 0 is reserved so the zero Ref is never valid
	free  []uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make([]refSlot, 1, 64)}
}

// Register stores c and returns a ref to it.
func (r *Registry) Register(c Collider) Ref {
	if c == nil {
		return Ref{}
	}
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, refSlot{gen: 1})
		idx = uint32(len(r.slots) - 1)
	}
	slot := &r.slots[idx]
	slot.collider = c
	slot.live = true
	return Ref{Index: idx, Gen: slot.gen}
}

// Release invalidates ref. Releasing a stale ref is a no-op.
func (r *Registry) Release(ref Ref) {
	slot := r.slot(ref)
	if slot == nil {
		return
	}
	slot.collider = nil
	slot.live = false
	slot.gen++
	r.free = append(r.free, ref.Index)
}

// Resolve returns the collider behind ref, or false if it was released.
func (r *Registry) Resolve(ref Ref) (Collider, bool) {
	slot := r.slot(ref)
	if slot == nil {
		return nil, false
	}
	return slot.collider, true
}

// Live returns the number of registered colliders.
func (r *Registry) Live() int {
	return len(r.slots) - 1 - len(r.free)
}

// Reset releases every live ref. Slots are kept so old refs stay detectably stale.
func (r *Registry) Reset() {
	for i := 1; i < len(r.slots); i++ {
		if r.slots[i].live {
			r.Release(Ref{Index: uint32(i), Gen: r.slots[i].gen})
		}
	}
}

func (r *Registry) slot(ref Ref) *refSlot {
	if ref.Index == 0 || int(ref.Index) >= len(r.slots) {
		return nil
	}
	slot := &r.slots[ref.Index]
	if !slot.live || slot.gen != ref.Gen {
		return nil
	}
	return slot
}

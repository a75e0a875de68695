package physics

// Store is the reusable slot array of bodies.
//
// Creation scans for the first dead slot before appending, so no live handle is
// ever invalidated by another creation or removal. Removal only flips Alive.
type Store struct {
	bodies []Body
	player Handle
	live   int
}

// NewStore returns an empty store with room for capacity bodies.
func NewStore(capacity int) *Store {
	return &Store{
		bodies: make([]Body, 0, capacity),
		player: NoHandle,
	}
}

// Create stores a body built from d and returns its handle.
// A second live player is rejected with ErrPlayerExists.
func (s *Store) Create(d Descriptor) (Handle, error) {
	if err := d.validate(); err != nil {
		return NoHandle, err
	}
	if d.Category == CategoryPlayer && s.player != NoHandle {
		return NoHandle, ErrPlayerExists
	}

	h := NoHandle
	for i := range s.bodies {
		if !s.bodies[i].Alive {
			h = Handle(i)
			break
		}
	}
	if h == NoHandle {
		h = Handle(len(s.bodies))
		s.bodies = append(s.bodies, Body{})
	}
	s.bodies[h] = d.body(h)
	s.live++

	if d.Category == CategoryPlayer {
		s.player = h
	}
	return h, nil
}

// Get returns the live body behind h. The pointer is valid until the next Create.
func (s *Store) Get(h Handle) (*Body, error) {
	b, err := s.lookup(h)
	if err != nil {
		return nil, handleError("get", h, err)
	}
	return b, nil
}

// Remove kills the body behind h and clears its back-reference.
// Invalid or already dead handles are ignored.
func (s *Store) Remove(h Handle) {
	b, err := s.lookup(h)
	if err != nil {
		return
	}
	*b = Body{Handle: h}
	s.live--
	if s.player == h {
		s.player = NoHandle
	}
}

// Reset drops every slot. All previously issued handles become out of range.
func (s *Store) Reset() {
	s.bodies = s.bodies[:0]
	s.player = NoHandle
	s.live = 0
}

// Player returns the tracked player handle, or NoHandle.
func (s *Store) Player() Handle {
	return s.player
}

// Len returns the number of slots, dead ones included.
func (s *Store) Len() int {
	return len(s.bodies)
}

// Live returns the number of live bodies.
func (s *Store) Live() int {
	return s.live
}

// Each calls fn for every live body in slot order. fn must not create bodies.
func (s *Store) Each(fn func(b *Body)) {
	for i := range s.bodies {
		if s.bodies[i].Alive {
			fn(&s.bodies[i])
		}
	}
}

// at returns the slot at h without liveness checks; h must be in range.
func (s *Store) at(h Handle) *Body {
	return &s.bodies[h]
}

func (s *Store) lookup(h Handle) (*Body, error) {
	if h < 0 || int(h) >= len(s.bodies) {
		return nil, ErrHandleOutOfRange
	}
	b := &s.bodies[h]
	if !b.Alive {
		return nil, ErrDeadHandle
	}
	return b, nil
}

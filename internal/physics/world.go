package physics

// Config configures a World.
type Config struct {
	Viewport Viewport
	Gravity  Vec2
	Capacity int // initial slot capacity
}

// DefaultConfig returns a zero-gravity world with the default viewport.
func DefaultConfig() Config {
	return Config{
		Viewport: DefaultViewport,
		Capacity: 256,
	}
}

// TickStats summarizes one fixed step.
type TickStats struct {
	Integrated int // live bodies advanced
	OnScreen   int // bodies that passed the culling gate
	Tests      int // narrow-phase tests run
	Contacts   int // tests that hit
}

// Stats is a point-in-time view of the world.
type Stats struct {
	Slots        int
	Live         int
	Colliders    int
	Ticks        uint64
	HandleErrors uint64
	LastTick     TickStats
}

// World is the physics system: body store, gravity, culling viewport and the
// category-scoped collision pass.
type World struct {
	store    *Store
	refs     *Registry
	gravity  Vec2
	viewport Viewport

	// Reused each tick so the pass does not allocate
	bullets   []Handle
	asteroids []Handle

	ticks        uint64
	handleErrors uint64
	lastTick     TickStats
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		cfg.Viewport = DefaultViewport
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 256
	}
	return &World{
		store:     NewStore(cfg.Capacity),
		refs:      NewRegistry(),
		gravity:   cfg.Gravity,
		viewport:  cfg.Viewport,
		bullets:   make([]Handle, 0, cfg.Capacity),
		asteroids: make([]Handle, 0, cfg.Capacity),
	}
}

// Create adds a body and returns its handle.
func (w *World) Create(d Descriptor) (Handle, error) {
	return w.store.Create(d)
}

// Remove kills the body behind h. Invalid or dead handles are ignored.
func (w *World) Remove(h Handle) {
	w.store.Remove(h)
}

// Get returns the live body behind h for reading or writing.
// The pointer must not be kept past the next Create or Tick.
func (w *World) Get(h Handle) (*Body, error) {
	b, err := w.store.Get(h)
	if err != nil {
		w.handleErrors++
	}
	return b, err
}

// Each calls fn for every live body.
func (w *World) Each(fn func(b *Body)) {
	w.store.Each(fn)
}

// Player returns the tracked player handle, or NoHandle.
func (w *World) Player() Handle {
	return w.store.Player()
}

// Refs returns the registry used to resolve back-references.
func (w *World) Refs() *Registry {
	return w.refs
}

// SetGravity sets the ambient acceleration applied to every body.
func (w *World) SetGravity(x, y float64) {
	w.gravity = Vec2{x, y}
}

// Gravity returns the ambient acceleration.
func (w *World) Gravity() Vec2 {
	return w.gravity
}

// Viewport returns the culling viewport.
func (w *World) Viewport() Viewport {
	return w.viewport
}

// Unload clears every body and releases every back-reference.
func (w *World) Unload() {
	w.store.Reset()
	w.refs.Reset()
	w.bullets = w.bullets[:0]
	w.asteroids = w.asteroids[:0]
	w.lastTick = TickStats{}
}

// Stats returns counters for monitoring.
func (w *World) Stats() Stats {
	return Stats{
		Slots:        w.store.Len(),
		Live:         w.store.Live(),
		Colliders:    w.refs.Live(),
		Ticks:        w.ticks,
		HandleErrors: w.handleErrors,
		LastTick:     w.lastTick,
	}
}

// Tick runs one fixed step: integrate and cull every live body, then test
// bullets against asteroids and asteroids against the player.
func (w *World) Tick(dt float64, cameraTopLeft Vec2) TickStats {
	var stats TickStats

	w.bullets = w.bullets[:0]
	w.asteroids = w.asteroids[:0]

	for i := range w.store.bodies {
		b := &w.store.bodies[i]
		if !b.Alive {
			continue
		}
		Integrate(b, w.gravity, dt)
		w.viewport.cull(b, cameraTopLeft)
		stats.Integrated++

		if !b.CollisionEnabled {
			continue
		}
		stats.OnScreen++
		switch b.Category {
		case CategoryBullet:
			w.bullets = append(w.bullets, b.Handle)
		case CategoryAsteroid:
			w.asteroids = append(w.asteroids, b.Handle)
		}
	}

	// Callbacks may remove or create bodies, so both sides are re-resolved
	// before every test.
	for _, bh := range w.bullets {
		for _, ah := range w.asteroids {
			bullet := w.eligible(bh)
			if bullet == nil {
				break
			}
			asteroid := w.eligible(ah)
			if asteroid == nil {
				continue
			}
			stats.Tests++
			if Overlaps(bullet, asteroid) {
				stats.Contacts++
				w.dispatch(bullet, asteroid)
			}
		}
	}

	for _, ah := range w.asteroids {
		player := w.eligible(w.store.player)
		if player == nil {
			break
		}
		asteroid := w.eligible(ah)
		if asteroid == nil {
			continue
		}
		stats.Tests++
		if Overlaps(asteroid, player) {
			stats.Contacts++
			w.dispatch(asteroid, player)
		}
	}

	w.ticks++
	w.lastTick = stats
	return stats
}

// eligible returns the body behind h if it is alive and collision-enabled.
func (w *World) eligible(h Handle) *Body {
	if h < 0 || int(h) >= w.store.Len() {
		return nil
	}
	b := w.store.at(h)
	if !b.Alive || !b.CollisionEnabled {
		return nil
	}
	return b
}

// dispatch notifies the source owner. A released owner is a no-op.
func (w *World) dispatch(src, dst *Body) {
	collider, ok := w.refs.Resolve(src.Owner)
	if !ok {
		return
	}
	collider.OnCollisionEnter(Contact{
		Self:          src.Handle,
		Other:         dst.Handle,
		OtherRef:      dst.Owner,
		OtherCategory: dst.Category,
		Point:         src.Origin(),
	})
}

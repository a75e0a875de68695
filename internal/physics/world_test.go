package physics

import (
	"math"
	"testing"
)

const testDt = 0.02

type recorder struct {
	contacts []Contact
	onHit    func(c Contact)
}

func (r *recorder) OnCollisionEnter(c Contact) {
	r.contacts = append(r.contacts, c)
	if r.onHit != nil {
		r.onHit(c)
	}
}

func newTestWorld() *World {
	return NewWorld(DefaultConfig())
}

func mustCreate(t testing.TB, w *World, d Descriptor) Handle {
	t.Helper()
	h, err := w.Create(d)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return h
}

func bulletAt(pos Vec2, owner Ref) Descriptor {
	return Descriptor{
		Category:   CategoryBullet,
		Position:   pos,
		Shape:      ShapeCircle,
		Width:      2,
		Height:     2,
		SpeedLimit: 500,
		Owner:      owner,
	}
}

func asteroidAt(pos Vec2, size float64, owner Ref) Descriptor {
	return Descriptor{
		Category: CategoryAsteroid,
		Position: pos,
		Shape:    ShapeCircle,
		Width:    size,
		Height:   size,
		Owner:    owner,
	}
}

func playerAt(pos Vec2, owner Ref) Descriptor {
	return Descriptor{
		Category: CategoryPlayer,
		Position: pos,
		Shape:    ShapeCircle,
		Width:    16,
		Height:   10,
		Owner:    owner,
	}
}

// TestBulletAsteroidContact verifies one notification on the bullet side per tick
func TestBulletAsteroidContact(t *testing.T) {
	w := newTestWorld()
	bulletOwner := &recorder{}
	asteroidOwner := &recorder{}

	bullet := mustCreate(t, w, bulletAt(Vec2{100, 100}, w.Refs().Register(bulletOwner)))
	asteroidRef := w.Refs().Register(asteroidOwner)
	asteroid := mustCreate(t, w, asteroidAt(Vec2{105, 100}, 20, asteroidRef))

	stats := w.Tick(testDt, Vec2{0, 0})

	if len(bulletOwner.contacts) != 1 {
		t.Fatalf("Expected 1 bullet contact, got %d", len(bulletOwner.contacts))
	}
	if len(asteroidOwner.contacts) != 0 {
		t.Errorf("Asteroid owner should not be notified, got %d", len(asteroidOwner.contacts))
	}

	c := bulletOwner.contacts[0]
	if c.Self != bullet || c.Other != asteroid {
		t.Errorf("Expected contact %d->%d, got %d->%d", bullet, asteroid, c.Self, c.Other)
	}
	if c.OtherRef != asteroidRef {
		t.Errorf("Expected other ref %v, got %v", asteroidRef, c.OtherRef)
	}
	if c.OtherCategory != CategoryAsteroid {
		t.Errorf("Expected asteroid category, got %v", c.OtherCategory)
	}
	if stats.Contacts != 1 || stats.Tests != 1 {
		t.Errorf("Expected 1 test and 1 contact, got %+v", stats)
	}

	// The overlap persists, so the next tick notifies again
	w.Tick(testDt, Vec2{0, 0})
	if len(bulletOwner.contacts) != 2 {
		t.Errorf("Expected 2 contacts after second tick, got %d", len(bulletOwner.contacts))
	}
}

// TestOffScreenPairIgnored verifies culled bodies never collide
func TestOffScreenPairIgnored(t *testing.T) {
	w := newTestWorld()
	owner := &recorder{}

	bullet := mustCreate(t, w, bulletAt(Vec2{100, 100}, w.Refs().Register(owner)))
	mustCreate(t, w, asteroidAt(Vec2{105, 100}, 20, Ref{}))

	stats := w.Tick(testDt, Vec2{1000, 1000})

	if len(owner.contacts) != 0 {
		t.Errorf("Expected no contacts off-screen, got %d", len(owner.contacts))
	}
	if stats.Tests != 0 {
		t.Errorf("Expected no narrow-phase tests, got %d", stats.Tests)
	}
	b, _ := w.Get(bullet)
	if b.OnScreen || b.CollisionEnabled {
		t.Error("Off-screen body must not be collision-enabled")
	}
}

// TestCullingEdgesInclusive verifies viewport bounds count as on-screen
func TestCullingEdgesInclusive(t *testing.T) {
	v := Viewport{Width: 640, Height: 360}
	cam := Vec2{100, 50}

	tests := []struct {
		name string
		pos  Vec2
		want bool
	}{
		{"top-left corner", Vec2{100, 50}, true},
		{"bottom-right corner", Vec2{740, 410}, true},
		{"inside", Vec2{300, 200}, true},
		{"left of view", Vec2{99.9, 200}, false},
		{"below view", Vec2{300, 410.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsOnScreen(tt.pos, cam); got != tt.want {
				t.Errorf("IsOnScreen(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

// TestCollisionFlagFollowsScreen verifies the gate is re-evaluated each tick
func TestCollisionFlagFollowsScreen(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, asteroidAt(Vec2{10, 10}, 20, Ref{}))

	w.Tick(testDt, Vec2{0, 0})
	b, _ := w.Get(h)
	if !b.CollisionEnabled {
		t.Fatal("On-screen body should be collision-enabled")
	}

	w.Tick(testDt, Vec2{500, 500})
	b, _ = w.Get(h)
	if b.CollisionEnabled || b.OnScreen {
		t.Error("Body leaving the screen should lose collision")
	}
}

// TestPairingPolicy verifies only bullet-asteroid and asteroid-player pairs are tested
func TestPairingPolicy(t *testing.T) {
	w := newTestWorld()
	refs := w.Refs()
	bulletA, bulletB := &recorder{}, &recorder{}
	asteroidA, asteroidB := &recorder{}, &recorder{}
	player := &recorder{}

	// Everything stacked on the same spot
	pos := Vec2{200, 200}
	mustCreate(t, w, bulletAt(pos, refs.Register(bulletA)))
	mustCreate(t, w, bulletAt(pos, refs.Register(bulletB)))
	mustCreate(t, w, asteroidAt(pos, 20, refs.Register(asteroidA)))
	mustCreate(t, w, asteroidAt(pos, 20, refs.Register(asteroidB)))
	mustCreate(t, w, playerAt(pos, refs.Register(player)))

	stats := w.Tick(testDt, Vec2{0, 0})

	// 2 bullets x 2 asteroids + 2 asteroids x player
	if stats.Tests != 6 || stats.Contacts != 6 {
		t.Errorf("Expected 6 tests and 6 contacts, got %+v", stats)
	}
	for name, r := range map[string]*recorder{"bulletA": bulletA, "bulletB": bulletB} {
		if len(r.contacts) != 2 {
			t.Errorf("%s: expected 2 contacts, got %d", name, len(r.contacts))
		}
		for _, c := range r.contacts {
			if c.OtherCategory != CategoryAsteroid {
				t.Errorf("%s: bullet hit %v", name, c.OtherCategory)
			}
		}
	}
	for name, r := range map[string]*recorder{"asteroidA": asteroidA, "asteroidB": asteroidB} {
		if len(r.contacts) != 1 || r.contacts[0].OtherCategory != CategoryPlayer {
			t.Errorf("%s: expected a single player contact, got %+v", name, r.contacts)
		}
	}
	if len(player.contacts) != 0 {
		t.Errorf("Player should never be a source, got %d contacts", len(player.contacts))
	}
}

// TestOffScreenPlayerNotHit verifies the player is gated like every other body
func TestOffScreenPlayerNotHit(t *testing.T) {
	w := newTestWorld()
	owner := &recorder{}
	mustCreate(t, w, asteroidAt(Vec2{-50, -50}, 40, w.Refs().Register(owner)))
	mustCreate(t, w, playerAt(Vec2{-50, -50}, Ref{}))

	w.Tick(testDt, Vec2{0, 0})
	if len(owner.contacts) != 0 {
		t.Errorf("Expected no contacts, got %d", len(owner.contacts))
	}
}

// TestCallbackRemovingBodies verifies the pass revalidates after each dispatch
func TestCallbackRemovingBodies(t *testing.T) {
	w := newTestWorld()
	owner := &recorder{}
	owner.onHit = func(c Contact) {
		w.Remove(c.Self)
		w.Remove(c.Other)
	}

	mustCreate(t, w, bulletAt(Vec2{50, 50}, w.Refs().Register(owner)))
	a1 := mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{}))
	a2 := mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{}))

	w.Tick(testDt, Vec2{0, 0})

	if len(owner.contacts) != 1 {
		t.Fatalf("A removed bullet must not hit again, got %d contacts", len(owner.contacts))
	}
	if _, err := w.Get(a1); err == nil {
		t.Error("First asteroid should be removed")
	}
	if _, err := w.Get(a2); err != nil {
		t.Errorf("Second asteroid should survive: %v", err)
	}
}

// TestCallbackCreatingBodies verifies creation during dispatch is safe
func TestCallbackCreatingBodies(t *testing.T) {
	w := NewWorld(Config{Capacity: 1})
	owner := &recorder{}
	var spawned []Handle
	owner.onHit = func(c Contact) {
		for i := 0; i < 16; i++ {
			spawned = append(spawned, mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{})))
		}
	}

	mustCreate(t, w, bulletAt(Vec2{50, 50}, w.Refs().Register(owner)))
	mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{}))
	mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{}))

	w.Tick(testDt, Vec2{0, 0})

	// Both asteroids existed before the pass; spawned ones are not yet culled
	if len(owner.contacts) != 2 {
		t.Errorf("Expected 2 contacts, got %d", len(owner.contacts))
	}
	if len(spawned) != 32 || w.Stats().Live != 35 {
		t.Errorf("Expected 35 live bodies, got %d", w.Stats().Live)
	}
}

// TestStaleOwnerIgnored verifies dispatch through a released ref is a no-op
func TestStaleOwnerIgnored(t *testing.T) {
	w := newTestWorld()
	owner := &recorder{}
	ref := w.Refs().Register(owner)
	mustCreate(t, w, bulletAt(Vec2{50, 50}, ref))
	mustCreate(t, w, asteroidAt(Vec2{50, 50}, 20, Ref{}))

	w.Refs().Release(ref)
	// A new registration may recycle the slot but not the generation
	other := &recorder{}
	w.Refs().Register(other)

	stats := w.Tick(testDt, Vec2{0, 0})

	if stats.Contacts != 1 {
		t.Errorf("Expected the overlap to be detected, got %d", stats.Contacts)
	}
	if len(owner.contacts) != 0 || len(other.contacts) != 0 {
		t.Error("Stale ref must not reach any collider")
	}
}

// TestApplyForward verifies facing-up thrust replaces velocity
func TestApplyForward(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, playerAt(Vec2{0, 0}, Ref{}))

	if !w.ApplyForward(h, 50) {
		t.Fatal("ApplyForward on a live body should succeed")
	}
	b, _ := w.Get(h)
	if math.Abs(b.Velocity.X()) > epsilon || !approx(b.Velocity.Y(), -50) {
		t.Errorf("Expected velocity (0, -50), got %v", b.Velocity)
	}
	if !b.Accelerating {
		t.Error("Accelerating should be set")
	}

	// Repeated thrust does not compound
	w.ApplyForward(h, 50)
	if !approx(b.Velocity.Len(), 50) {
		t.Errorf("Expected speed 50 after repeat, got %v", b.Velocity.Len())
	}

	b.Rotation = 90
	w.ApplyForward(h, 10)
	if !approx(b.Velocity.X(), 10) || math.Abs(b.Velocity.Y()) > epsilon {
		t.Errorf("Expected velocity (10, 0) facing right, got %v", b.Velocity)
	}
}

// TestApplyDirected verifies knockback replaces velocity with the given direction
func TestApplyDirected(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, playerAt(Vec2{0, 0}, Ref{}))
	b, _ := w.Get(h)
	b.Velocity = Vec2{5, 5}

	w.ApplyDirected(h, 20, Vec2{-1, 0})
	if b.Velocity != (Vec2{-20, 0}) {
		t.Errorf("Expected (-20, 0), got %v", b.Velocity)
	}
}

// TestApplyTorqueAccumulates verifies torque sums within a tick and is clamped on step
func TestApplyTorqueAccumulates(t *testing.T) {
	tests := []struct {
		name  string
		limit float64
		want  float64
	}{
		{"under limit", 100, -20},
		{"clamped", 15, -15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld()
			d := asteroidAt(Vec2{10, 10}, 20, Ref{})
			d.TorqueLimit = tt.limit
			d.Decay = 1
			h := mustCreate(t, w, d)

			w.ApplyTorque(h, 10)
			w.ApplyTorque(h, -30)

			b, _ := w.Get(h)
			if b.Torque != -20 {
				t.Fatalf("Expected accumulated torque -20, got %v", b.Torque)
			}
			if !b.RotatingLeft || b.RotatingRight {
				t.Error("Last negative torque should flag rotating left")
			}

			w.Tick(testDt, Vec2{0, 0})
			b, _ = w.Get(h)
			if !approx(b.Torque, tt.want) {
				t.Errorf("Expected torque %v after tick, got %v", tt.want, b.Torque)
			}
			if !approx(b.Rotation, tt.want*testDt) {
				t.Errorf("Expected rotation %v, got %v", tt.want*testDt, b.Rotation)
			}
		})
	}
}

// TestActuatorsIgnoreDeadBodies verifies dead handles are quietly skipped
func TestActuatorsIgnoreDeadBodies(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))
	w.Remove(h)

	if w.ApplyForward(h, 10) || w.ApplyDirected(h, 10, Vec2{1, 0}) || w.ApplyTorque(h, 10) {
		t.Error("Actuators on a dead body should report false")
	}
	if w.Stats().HandleErrors != 0 {
		t.Error("Dead-body actuation is not a handle error")
	}
}

// TestSetGravity verifies ambient gravity reaches every body
func TestSetGravity(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))

	w.SetGravity(0, 50)
	if w.Gravity() != (Vec2{0, 50}) {
		t.Errorf("Expected gravity (0, 50), got %v", w.Gravity())
	}

	w.Tick(testDt, Vec2{0, 0})
	b, _ := w.Get(h)
	if !approx(b.Velocity.Y(), 1) {
		t.Errorf("Expected vy 1, got %v", b.Velocity.Y())
	}
}

// TestStatsCounters verifies world counters
func TestStatsCounters(t *testing.T) {
	w := newTestWorld()
	mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, w.Refs().Register(&recorder{})))
	mustCreate(t, w, asteroidAt(Vec2{5000, 0}, 20, Ref{}))
	w.Tick(testDt, Vec2{0, 0})
	w.Tick(testDt, Vec2{0, 0})

	s := w.Stats()
	if s.Ticks != 2 {
		t.Errorf("Expected 2 ticks, got %d", s.Ticks)
	}
	if s.Live != 2 || s.Slots != 2 || s.Colliders != 1 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.LastTick.Integrated != 2 || s.LastTick.OnScreen != 1 {
		t.Errorf("Unexpected last tick %+v", s.LastTick)
	}
}

func BenchmarkWorldTick_100Asteroids(b *testing.B)  { benchmarkWorldTick(b, 100, 20) }
func BenchmarkWorldTick_500Asteroids(b *testing.B)  { benchmarkWorldTick(b, 500, 50) }
func BenchmarkWorldTick_2000Asteroids(b *testing.B) { benchmarkWorldTick(b, 2000, 100) }

func benchmarkWorldTick(b *testing.B, asteroids, bullets int) {
	w := NewWorld(Config{Capacity: asteroids + bullets + 1})
	sink := &recorder{}
	ref := w.Refs().Register(sink)

	for i := 0; i < asteroids; i++ {
		pos := Vec2{float64(i*37%640) + 0.5, float64(i*53%360) + 0.5}
		mustCreate(b, w, asteroidAt(pos, 10, ref))
	}
	for i := 0; i < bullets; i++ {
		pos := Vec2{float64(i*71%640) + 0.5, float64(i*29%360) + 0.5}
		mustCreate(b, w, bulletAt(pos, ref))
	}
	mustCreate(b, w, playerAt(Vec2{320, 180}, Ref{}))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		sink.contacts = sink.contacts[:0]
		w.Tick(testDt, Vec2{0, 0})
	}
}

package game

import (
	"sync/atomic"
	"time"

	"asteroid-drift/internal/physics"
)

// BodySnapshot is an immutable copy of one body for readers outside the tick loop.
type BodySnapshot struct {
	Handle           int     `json:"handle"`
	Category         string  `json:"category"`
	Shape            string  `json:"shape"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	VX               float64 `json:"vx"`
	VY               float64 `json:"vy"`
	Rotation         float64 `json:"rotation"`
	Torque           float64 `json:"torque"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	CenterX          float64 `json:"centerX"`
	CenterY          float64 `json:"centerY"`
	OnScreen         bool    `json:"onScreen"`
	CollisionEnabled bool    `json:"collisionEnabled"`
	Collided         bool    `json:"collided"` // took part in a contact during the last frame
	Accelerating     bool    `json:"accelerating"`
	RotatingLeft     bool    `json:"rotatingLeft"`
	RotatingRight    bool    `json:"rotatingRight"`
}

// NewBodySnapshot copies b.
func NewBodySnapshot(b *physics.Body) BodySnapshot {
	return BodySnapshot{
		Handle:           int(b.Handle),
		Category:         b.Category.String(),
		Shape:            b.Shape.String(),
		X:                b.Position.X(),
		Y:                b.Position.Y(),
		VX:               b.Velocity.X(),
		VY:               b.Velocity.Y(),
		Rotation:         b.Rotation,
		Torque:           b.Torque,
		Width:            b.Width,
		Height:           b.Height,
		CenterX:          b.Center.X(),
		CenterY:          b.Center.Y(),
		OnScreen:         b.OnScreen,
		CollisionEnabled: b.CollisionEnabled,
		Accelerating:     b.Accelerating,
		RotatingLeft:     b.RotatingLeft,
		RotatingRight:    b.RotatingRight,
	}
}

// HUDSnapshot is the player-facing status line.
type HUDSnapshot struct {
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Score     int     `json:"score"`
	HighScore int     `json:"highScore"`
	GunReady  bool    `json:"gunReady"`
	GameOver  bool    `json:"gameOver"`
	Round     int     `json:"round"`
}

// GameSnapshot is a complete immutable world state for readers.
// Bodies is pre-allocated and capped by MaxSnapshotBodies.
type GameSnapshot struct {
	Sequence   uint64    // Monotonic sequence for ordering
	Timestamp  time.Time // When snapshot was created
	TickNumber uint64    // Fixed tick this represents

	Bodies []BodySnapshot
	HUD    HUDSnapshot

	CameraX, CameraY   float64 // viewport top-left
	ViewportW          float64
	ViewportH          float64
	GravityX, GravityY float64

	// Aggregate stats
	LiveBodies int
	Asteroids  int
	Bullets    int
	Contacts   int // during the last fixed tick
	Truncated  bool
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure
// Uses triple buffering for lock-free producer/consumer
type SnapshotPool struct {
	snapshots [3]GameSnapshot // Triple buffer
	maxBodies int
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated body slices
func NewSnapshotPool(maxBodies int) *SnapshotPool {
	pool := &SnapshotPool{maxBodies: maxBodies}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = GameSnapshot{
			Bodies: make([]BodySnapshot, 0, maxBodies),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called after a frame)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	bodies := snap.Bodies[:0]
	*snap = GameSnapshot{Bodies: bodies}

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances read pointer
// Called after snapshot is fully populated
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// MaxBodies returns the per-snapshot body cap
func (p *SnapshotPool) MaxBodies() int {
	return p.maxBodies
}

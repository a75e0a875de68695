package game

import (
	"math/rand"

	"asteroid-drift/internal/config"
	"asteroid-drift/internal/physics"
)

// Spawner decides when and where asteroids appear. It owns its RNG so a
// seeded run is reproducible.
type Spawner struct {
	rng      *rand.Rand
	cooldown float64
	cfg      config.SpawnTuning
}

// SpawnPlan is one asteroid the spawner wants created.
type SpawnPlan struct {
	Position  physics.Vec2
	Direction physics.Vec2 // unit vector toward the camera center
	Torque    float64
}

// NewSpawner creates a spawner with its own seeded RNG.
func NewSpawner(cfg config.SpawnTuning, seed int64) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed)),
		cfg: cfg,
	}
}

// SetTuning swaps the spawn parameters without resetting the cooldown.
func (s *Spawner) SetTuning(cfg config.SpawnTuning) {
	s.cfg = cfg
}

// Reset restarts the cooldown.
func (s *Spawner) Reset() {
	s.cooldown = 0
}

// Update advances the cooldown and reports whether a spawn is due.
func (s *Spawner) Update(dt float64) bool {
	s.cooldown += dt
	interval := float64(s.cfg.IntervalMS) / 1000
	if s.cooldown > interval {
		s.cooldown = 0
		return true
	}
	return false
}

// Plan picks a point just outside a random camera edge, aimed at the camera
// center, with a random spin.
func (s *Spawner) Plan(cam Camera) SpawnPlan {
	left, top, right, bottom := cam.Bounds()
	margin := s.cfg.EdgeMargin
	jitter := margin / 2

	var pos physics.Vec2
	switch s.rng.Intn(4) {
	case 0: // top
		pos = physics.Vec2{s.between(left-jitter, right+jitter), top - margin}
	case 1: // right
		pos = physics.Vec2{right + margin, s.between(top-jitter, bottom+jitter)}
	case 2: // bottom
		pos = physics.Vec2{s.between(left-jitter, right+jitter), bottom + margin}
	default: // left
		pos = physics.Vec2{left - margin, s.between(top-jitter, bottom+jitter)}
	}

	dir := cam.Target.Sub(pos)
	if dir.LenSqr() > 0 {
		dir = dir.Normalize()
	}

	return SpawnPlan{
		Position:  pos,
		Direction: dir,
		Torque:    s.between(-s.cfg.MaxTorque, s.cfg.MaxTorque),
	}
}

func (s *Spawner) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

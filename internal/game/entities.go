package game

import (
	"asteroid-drift/internal/physics"
)

// Sprite-aligned collision origins for each entity kind.
var (
	playerCenter   = physics.Vec2{8, 10}
	bulletCenter   = physics.Vec2{8, 8}
	asteroidCenter = physics.Vec2{8, 8}
)

// gunOffset is how far ahead of the ship's position bullets appear.
const gunOffset = 6.0

// Player is the ship controlled through the API.
type Player struct {
	engine *Engine
	ref    physics.Ref
	Body   physics.Handle

	Health    float64
	MaxHealth float64
	Score     int
	Dead      bool

	gunCooldown float64
}

// OnCollisionEnter is a no-op: asteroids report their own contact with the ship.
func (p *Player) OnCollisionEnter(physics.Contact) {}

// GunReady reports whether the cooldown has elapsed.
func (p *Player) GunReady() bool {
	return p.gunCooldown <= 0
}

// TakeDamage lowers health and knocks the ship away from point. Knockback
// scales with the share of max health lost.
func (p *Player) TakeDamage(damage float64, point physics.Vec2) {
	if p.Dead {
		return
	}
	e := p.engine
	p.Health -= damage

	if b, err := e.world.Get(p.Body); err == nil {
		away := b.Position.Sub(point)
		if away.LenSqr() > 0 {
			force := damage / p.MaxHealth * e.tuning.Player.Knockback
			e.world.ApplyDirected(p.Body, force, away.Normalize())
		}
	}

	e.eventLog.EmitSimple(EventTypeDamage, e.tickCount, sourcePlayer, DamagePayload{
		Target:   sourcePlayer,
		Damage:   damage,
		Health:   p.Health,
		ContactX: point.X(),
		ContactY: point.Y(),
	})

	if p.Health <= 0 {
		p.Health = 0
		e.killPlayer()
	}
}

func (p *Player) update(dt float64) {
	if p.gunCooldown > 0 {
		p.gunCooldown -= dt
		if p.gunCooldown < 0 {
			p.gunCooldown = 0
		}
	}
}

// Bullet is a short-lived projectile fired by the player.
type Bullet struct {
	engine *Engine
	ref    physics.Ref
	Body   physics.Handle

	Damage   float64
	Lifetime float64
	dead     bool
}

// OnCollisionEnter damages the asteroid it hit, credits the shooter and
// destroys the bullet.
func (b *Bullet) OnCollisionEnter(c physics.Contact) {
	if b.dead || c.OtherCategory != physics.CategoryAsteroid {
		return
	}
	e := b.engine
	collider, ok := e.world.Refs().Resolve(c.OtherRef)
	if !ok {
		return
	}
	asteroid, ok := collider.(*Asteroid)
	if !ok || asteroid.dead {
		return
	}

	e.markCollided(c.Self, c.Other)
	asteroid.TakeDamage(b.Damage)

	score := 0
	if e.player != nil && !e.player.Dead {
		e.player.Score += e.tuning.Bullet.Score
		score = e.player.Score
	}
	e.eventLog.EmitSimple(EventTypeHit, e.tickCount, sourcePlayer, HitPayload{
		Bullet:   int(c.Self),
		Asteroid: int(c.Other),
		X:        c.Point.X(),
		Y:        c.Point.Y(),
		Score:    score,
	})

	e.destroyBullet(b, "hit")
}

func (b *Bullet) update(dt float64) {
	b.Lifetime -= dt
	if b.Lifetime <= 0 {
		b.engine.destroyBullet(b, "expired")
	}
}

// Asteroid drifts toward the camera and hurts the ship on contact.
type Asteroid struct {
	engine *Engine
	ref    physics.Ref
	Body   physics.Handle

	Mass   float64
	Size   float64
	Life   float64
	Damage float64
	dead   bool
}

// OnCollisionEnter damages the player and destroys the asteroid.
func (a *Asteroid) OnCollisionEnter(c physics.Contact) {
	if a.dead || c.OtherCategory != physics.CategoryPlayer {
		return
	}
	e := a.engine
	collider, ok := e.world.Refs().Resolve(c.OtherRef)
	if !ok {
		return
	}
	player, ok := collider.(*Player)
	if !ok {
		return
	}

	e.markCollided(c.Self, c.Other)
	player.TakeDamage(a.Damage, c.Point)
	e.destroyAsteroid(a, "impact")
}

// TakeDamage lowers life and destroys the asteroid once it runs out.
func (a *Asteroid) TakeDamage(damage float64) {
	if a.dead {
		return
	}
	a.Life -= damage
	if a.Life <= 0 {
		a.engine.destroyAsteroid(a, "shot")
	}
}

func (a *Asteroid) update(dt float64) {
	a.Life -= dt * a.engine.tuning.Asteroid.Erosion
	if a.Life <= 0 {
		a.engine.destroyAsteroid(a, "eroded")
	}
}

package ipc

import (
	"time"

	"asteroid-drift/internal/game"
)

// FromGame converts a world snapshot to its wire form.
func FromGame(s *game.GameSnapshot) *Snapshot {
	bodies := make([]Body, len(s.Bodies))
	for i := range s.Bodies {
		bodies[i] = Body(s.Bodies[i])
	}
	return &Snapshot{
		Sequence:   s.Sequence,
		UnixNano:   s.Timestamp.UnixNano(),
		TickNumber: s.TickNumber,
		Bodies:     bodies,
		HUD:        HUD(s.HUD),
		CameraX:    s.CameraX,
		CameraY:    s.CameraY,
		ViewportW:  s.ViewportW,
		ViewportH:  s.ViewportH,
		GravityX:   s.GravityX,
		GravityY:   s.GravityY,
		LiveBodies: s.LiveBodies,
		Asteroids:  s.Asteroids,
		Bullets:    s.Bullets,
		Contacts:   s.Contacts,
		Truncated:  s.Truncated,
	}
}

// Game converts back so viewers can hand the snapshot to the renderer.
func (s *Snapshot) Game() *game.GameSnapshot {
	bodies := make([]game.BodySnapshot, len(s.Bodies))
	for i := range s.Bodies {
		bodies[i] = game.BodySnapshot(s.Bodies[i])
	}
	return &game.GameSnapshot{
		Sequence:   s.Sequence,
		Timestamp:  time.Unix(0, s.UnixNano),
		TickNumber: s.TickNumber,
		Bodies:     bodies,
		HUD:        game.HUDSnapshot(s.HUD),
		CameraX:    s.CameraX,
		CameraY:    s.CameraY,
		ViewportW:  s.ViewportW,
		ViewportH:  s.ViewportH,
		GravityX:   s.GravityX,
		GravityY:   s.GravityY,
		LiveBodies: s.LiveBodies,
		Asteroids:  s.Asteroids,
		Bullets:    s.Bullets,
		Contacts:   s.Contacts,
		Truncated:  s.Truncated,
	}
}

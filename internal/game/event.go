package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Fixed step boundary
	EventTypeSpawn
	EventTypeShoot
	EventTypeHit
	EventTypeDamage
	EventTypeDestroy
	EventTypeGameOver
	EventTypeRestart
	EventTypeGravity
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event sources used for per-source rate limiting
const (
	sourcePlayer  = "player"
	sourceSpawner = "spawner"
	sourceWorld   = "world"
	sourceAPI     = "api"
)

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Fixed tick this occurred in
	Source    string    `json:"source"`    // Emitter (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeShoot:
		return "shoot"
	case EventTypeHit:
		return "hit"
	case EventTypeDamage:
		return "damage"
	case EventTypeDestroy:
		return "destroy"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeRestart:
		return "restart"
	case EventTypeGravity:
		return "gravity"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload summarizes one fixed step
type TickPayload struct {
	DeltaTimeNs int64 `json:"deltaTimeNs"`
	Live        int   `json:"live"`
	OnScreen    int   `json:"onScreen"`
	Contacts    int   `json:"contacts"`
}

// SpawnPayload describes a new asteroid
type SpawnPayload struct {
	Handle int     `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Torque float64 `json:"torque"`
}

// ShootPayload describes a fired bullet
type ShootPayload struct {
	Handle   int     `json:"handle"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// HitPayload describes a bullet striking an asteroid
type HitPayload struct {
	Bullet   int     `json:"bullet"`
	Asteroid int     `json:"asteroid"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Score    int     `json:"score"`
}

// DamagePayload describes damage taken by the ship
type DamagePayload struct {
	Target   string  `json:"target"`
	Damage   float64 `json:"damage"`
	Health   float64 `json:"health"`
	ContactX float64 `json:"contactX"`
	ContactY float64 `json:"contactY"`
}

// DestroyPayload describes a body leaving the world
type DestroyPayload struct {
	Handle   int    `json:"handle"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// GameOverPayload contains the final score
type GameOverPayload struct {
	Score     int `json:"score"`
	HighScore int `json:"highScore"`
}

// RestartPayload marks a fresh round
type RestartPayload struct {
	Round     int `json:"round"`
	HighScore int `json:"highScore"`
}

// GravityPayload records a gravity change
type GravityPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}

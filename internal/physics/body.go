// Package physics is the fixed-step motion and collision kernel of the game.
//
// Bodies live in a flat slot array and are addressed by integer handles, never by
// pointer. Gameplay objects are reached through generation-checked refs so the
// kernel never keeps them alive. The kernel is single-threaded: callers serialize
// access (the game engine holds its own mutex around every call).
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the vector type used throughout the kernel.
type Vec2 = mgl64.Vec2

// Handle is a stable slot index into the body store.
type Handle int

// NoHandle marks the absence of a body (e.g. no player tracked).
const NoHandle Handle = -1

// Valid reports whether h could address a slot at all (non-negative).
// It says nothing about whether the slot is alive.
func (h Handle) Valid() bool {
	return h >= 0
}

// Shape selects the narrow-phase test used for a body.
type Shape uint8

const (
	ShapeCircle    Shape = iota // radius = Width/2, centered on Position+Center
	ShapeRectangle              // axis-aligned, Position is the top-left corner
)

// String returns the shape name used in logs and JSON.
func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeRectangle:
		return "rectangle"
	default:
		return "invalid"
	}
}

// Category decides which collision pairing rules apply to a body.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryPlayer
	CategoryBullet
	CategoryAsteroid
)

// String returns the category name used in logs and JSON.
func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryBullet:
		return "bullet"
	case CategoryAsteroid:
		return "asteroid"
	default:
		return "unknown"
	}
}

// Default limits applied when a descriptor leaves them at zero.
const (
	DefaultSpeedLimit  = 100.0
	DefaultTorqueLimit = 200.0
)

// Body is the physical record of one entity.
type Body struct {
	Handle Handle

	// Kinematics
	Position    Vec2
	Velocity    Vec2
	Rotation    float64 // degrees, (-180, 180] after every step
	Torque      float64 // angular velocity surrogate, degrees/second
	SpeedLimit  float64
	TorqueLimit float64
	Decay       float64 // deceleration multiplier; 0 disables friction

	// Shape
	Shape  Shape
	Width  float64
	Height float64
	Center Vec2 // local offset aligning the collision origin with the sprite origin

	Category Category

	// Lifecycle
	Alive            bool
	OnScreen         bool
	CollisionEnabled bool

	// Transient state read by gameplay/presentation
	Accelerating   bool
	RotatingLeft   bool
	RotatingRight  bool
	ApplyingTorque bool // torque was actuated since the last integration step

	// Non-owning link to the gameplay object; used only for collision dispatch
	Owner Ref
}

// Origin returns the collision origin: Position offset by the local center.
func (b *Body) Origin() Vec2 {
	return b.Position.Add(b.Center)
}

// Radius returns the circle radius used by the narrow phase.
func (b *Body) Radius() float64 {
	return b.Width / 2
}

// Speed returns the velocity magnitude.
func (b *Body) Speed() float64 {
	return b.Velocity.Len()
}

// Descriptor is what callers submit to create a body.
type Descriptor struct {
	Category    Category
	Position    Vec2
	Velocity    Vec2
	Rotation    float64
	Torque      float64
	SpeedLimit  float64 // 0 means DefaultSpeedLimit
	TorqueLimit float64 // 0 means DefaultTorqueLimit
	Decay       float64
	Shape       Shape
	Width       float64
	Height      float64
	Center      Vec2
	Owner       Ref
}

func (d Descriptor) validate() error {
	if d.Shape != ShapeCircle && d.Shape != ShapeRectangle {
		return ErrInvalidDescriptor
	}
	if d.Width < 0 || d.Height < 0 || d.SpeedLimit < 0 || d.TorqueLimit < 0 || d.Decay < 0 {
		return ErrInvalidDescriptor
	}
	return nil
}

// body builds a fresh live record from the descriptor.
func (d Descriptor) body(h Handle) Body {
	speedLimit := d.SpeedLimit
	if speedLimit == 0 {
		speedLimit = DefaultSpeedLimit
	}
	torqueLimit := d.TorqueLimit
	if torqueLimit == 0 {
		torqueLimit = DefaultTorqueLimit
	}
	return Body{
		Handle:      h,
		Position:    d.Position,
		Velocity:    d.Velocity,
		Rotation:    NormalizeDegrees(d.Rotation),
		Torque:      d.Torque,
		SpeedLimit:  speedLimit,
		TorqueLimit: torqueLimit,
		Decay:       d.Decay,
		Shape:       d.Shape,
		Width:       d.Width,
		Height:      d.Height,
		Center:      d.Center,
		Category:    d.Category,
		Alive:       true,
		Owner:       d.Owner,
	}
}

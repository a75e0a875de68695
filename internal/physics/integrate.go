package physics

import "math"

// Integrate advances one body by dt seconds under uniform gravity.
//
// Order: normalize rotation, cap speed, decay and move, cap torque, rotate and
// decay torque unless it was actuated this tick, then add gravity. dt == 0 leaves
// the body unchanged apart from the clamps.
func Integrate(b *Body, gravity Vec2, dt float64) {
	b.Rotation = NormalizeDegrees(b.Rotation)

	b.Velocity = CapSpeed(b.Velocity, b.SpeedLimit)

	if b.Velocity.LenSqr() > 0 {
		b.Velocity = b.Velocity.Mul(decayFactor(b.Decay, dt))
		b.Position = b.Position.Add(b.Velocity.Mul(dt))
	} else {
		b.Accelerating = false
	}

	b.Torque = clamp(b.Torque, -b.TorqueLimit, b.TorqueLimit)

	if b.Torque != 0 {
		b.Rotation = NormalizeDegrees(b.Rotation + b.Torque*dt)
		if !b.ApplyingTorque {
			b.Torque *= decayFactor(b.Decay, dt)
		}
	}
	b.ApplyingTorque = false

	b.Velocity = b.Velocity.Add(gravity.Mul(dt))
}

// CapSpeed rescales v to limit when its magnitude exceeds it, keeping the heading.
func CapSpeed(v Vec2, limit float64) Vec2 {
	magSq := v.LenSqr()
	if magSq == 0 || magSq <= limit*limit {
		return v
	}
	return v.Mul(limit / math.Sqrt(magSq))
}

// NormalizeDegrees maps any angle into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	if deg > -180 && deg <= 180 {
		return deg
	}
	deg = math.Mod(deg+180, 360)
	if deg <= 0 {
		deg += 360
	}
	return deg - 180
}

// decayFactor is the per-step multiplier 1 - decay*dt, floored at zero so a
// large step stops the body instead of reversing it.
func decayFactor(decay, dt float64) float64 {
	f := 1 - decay*dt
	if f < 0 {
		return 0
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

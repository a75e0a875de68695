package physics

import "math"

// ForwardVector returns the unit heading for a rotation in degrees.
// 0° points up the screen (negative Y).
func ForwardVector(rotation float64) Vec2 {
	rad := rotation * math.Pi / 180
	return Vec2{math.Sin(rad), -math.Cos(rad)}
}

// ApplyForward replaces the body's velocity with its heading scaled by magnitude.
// Returns false if h does not address a live body.
func (w *World) ApplyForward(h Handle, magnitude float64) bool {
	b := w.actuated(h, "apply_forward")
	if b == nil {
		return false
	}
	b.Velocity = ForwardVector(b.Rotation).Mul(magnitude)
	b.Accelerating = true
	return true
}

// ApplyDirected replaces the body's velocity with direction scaled by magnitude.
// Used for knockback, where the push is away from the impact point.
func (w *World) ApplyDirected(h Handle, magnitude float64, direction Vec2) bool {
	b := w.actuated(h, "apply_directed")
	if b == nil {
		return false
	}
	b.Velocity = direction.Mul(magnitude)
	b.Accelerating = true
	return true
}

// ApplyTorque adds torque to the body and exempts it from decay this tick.
func (w *World) ApplyTorque(h Handle, torque float64) bool {
	b := w.actuated(h, "apply_torque")
	if b == nil {
		return false
	}
	b.Torque += torque
	b.ApplyingTorque = true
	b.RotatingLeft = torque < 0
	b.RotatingRight = torque > 0
	return true
}

// actuated resolves h for a mutation. Dead bodies are ignored quietly; out of
// range handles are programming errors and are counted (and asserted in debug builds).
func (w *World) actuated(h Handle, op string) *Body {
	b, err := w.store.lookup(h)
	if err == ErrHandleOutOfRange {
		w.handleErrors++
		assertHandle(&HandleError{Op: op, Handle: h, Err: err})
		return nil
	}
	if err != nil {
		return nil
	}
	return b
}

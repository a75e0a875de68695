package physics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// TestIntegrateCapsSpeed verifies velocity is rescaled to the limit keeping its heading
func TestIntegrateCapsSpeed(t *testing.T) {
	b := &Body{
		Velocity:    Vec2{300, 400},
		SpeedLimit:  100,
		TorqueLimit: DefaultTorqueLimit,
	}

	for i := 0; i < 5; i++ {
		b.Velocity = Vec2{300, 400}
		Integrate(b, Vec2{}, 0.02)

		if !approx(b.Velocity.Len(), 100) {
			t.Fatalf("Expected speed 100, got %v", b.Velocity.Len())
		}
		dir := b.Velocity.Normalize()
		if !approx(dir.X(), 0.6) || !approx(dir.Y(), 0.8) {
			t.Fatalf("Heading changed: got %v", dir)
		}
	}
}

// TestIntegrateZeroDecayKeepsSpeed verifies bullets fly at constant velocity
func TestIntegrateZeroDecayKeepsSpeed(t *testing.T) {
	b := &Body{
		Velocity:    Vec2{0, -500},
		SpeedLimit:  600,
		TorqueLimit: DefaultTorqueLimit,
	}

	for i := 0; i < 500; i++ {
		Integrate(b, Vec2{}, 0.02)
	}

	if !approx(b.Velocity.Len(), 500) {
		t.Errorf("Expected speed 500, got %v", b.Velocity.Len())
	}
	if !approx(b.Position.Y(), -5000) {
		t.Errorf("Expected y -5000, got %v", b.Position.Y())
	}
}

// TestIntegrateDecay verifies friction scales velocity by 1 - decay*dt before moving
func TestIntegrateDecay(t *testing.T) {
	b := &Body{
		Velocity:    Vec2{10, 0},
		SpeedLimit:  100,
		TorqueLimit: DefaultTorqueLimit,
		Decay:       1,
	}
	Integrate(b, Vec2{}, 0.5)

	if !approx(b.Velocity.X(), 5) {
		t.Errorf("Expected vx 5, got %v", b.Velocity.X())
	}
	if !approx(b.Position.X(), 2.5) {
		t.Errorf("Expected x 2.5, got %v", b.Position.X())
	}

	// A step long enough to overshoot stops the body instead of reversing it
	Integrate(b, Vec2{}, 5)
	if b.Velocity.X() != 0 {
		t.Errorf("Expected vx 0, got %v", b.Velocity.X())
	}
}

// TestIntegrateZeroDt verifies a zero step leaves motion unchanged
func TestIntegrateZeroDt(t *testing.T) {
	b := &Body{
		Position:    Vec2{7, 8},
		Velocity:    Vec2{3, 4},
		Rotation:    45,
		Torque:      10,
		SpeedLimit:  100,
		TorqueLimit: 100,
		Decay:       1,
	}
	Integrate(b, Vec2{0, 9.8}, 0)

	if b.Position != (Vec2{7, 8}) {
		t.Errorf("Position changed: %v", b.Position)
	}
	if b.Velocity != (Vec2{3, 4}) {
		t.Errorf("Velocity changed: %v", b.Velocity)
	}
	if b.Rotation != 45 {
		t.Errorf("Rotation changed: %v", b.Rotation)
	}
	if b.Torque != 10 {
		t.Errorf("Torque changed: %v", b.Torque)
	}
}

// TestIntegrateClearsAccelerating verifies a resting body drops the accelerating flag
func TestIntegrateClearsAccelerating(t *testing.T) {
	b := &Body{SpeedLimit: 100, TorqueLimit: 100, Accelerating: true}
	Integrate(b, Vec2{}, 0.02)
	if b.Accelerating {
		t.Error("Accelerating should be cleared at rest")
	}

	b.Velocity = Vec2{1, 0}
	b.Accelerating = true
	Integrate(b, Vec2{}, 0.02)
	if !b.Accelerating {
		t.Error("Accelerating should survive while moving")
	}
}

// TestIntegrateTorque covers clamping, rotation and decay of torque
func TestIntegrateTorque(t *testing.T) {
	tests := []struct {
		name         string
		torque       float64
		limit        float64
		fresh        bool
		wantTorque   float64
		wantRotation float64
	}{
		{"clamped positive", 500, 50, true, 50, 25},
		{"clamped negative", -500, 50, true, -50, -25},
		{"fresh skips decay", 20, 50, true, 20, 10},
		{"stale decays", 20, 50, false, 10, 10},
		{"zero torque", 0, 50, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Body{
				Torque:         tt.torque,
				TorqueLimit:    tt.limit,
				SpeedLimit:     100,
				Decay:          1,
				ApplyingTorque: tt.fresh,
			}
			Integrate(b, Vec2{}, 0.5)

			if !approx(b.Torque, tt.wantTorque) {
				t.Errorf("Expected torque %v, got %v", tt.wantTorque, b.Torque)
			}
			if !approx(b.Rotation, tt.wantRotation) {
				t.Errorf("Expected rotation %v, got %v", tt.wantRotation, b.Rotation)
			}
			if b.ApplyingTorque {
				t.Error("Fresh torque flag should be cleared every step")
			}
		})
	}
}

// TestIntegrateRotationStaysNormalized verifies rotation wraps after each step
func TestIntegrateRotationStaysNormalized(t *testing.T) {
	b := &Body{Rotation: 170, Torque: 200, TorqueLimit: 200, SpeedLimit: 100}
	for i := 0; i < 200; i++ {
		b.ApplyingTorque = true
		Integrate(b, Vec2{}, 0.1)
		if b.Rotation <= -180 || b.Rotation > 180 {
			t.Fatalf("Rotation %v out of range at step %d", b.Rotation, i)
		}
		if math.Abs(b.Torque) > b.TorqueLimit {
			t.Fatalf("Torque %v exceeds limit at step %d", b.Torque, i)
		}
	}
}

// TestIntegrateGravity verifies gravity accelerates velocity after the move
func TestIntegrateGravity(t *testing.T) {
	b := &Body{SpeedLimit: 100, TorqueLimit: 100}
	Integrate(b, Vec2{0, 10}, 0.1)

	if b.Position != (Vec2{}) {
		t.Errorf("Body at rest should not move on the gravity step, got %v", b.Position)
	}
	if !approx(b.Velocity.Y(), 1) {
		t.Errorf("Expected vy 1, got %v", b.Velocity.Y())
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{-179, -179},
		{190, -170},
		{-190, 170},
		{359, -1},
		{540, 180},
		{720, 0},
		{-725, -5},
	}

	for _, tt := range tests {
		if got := NormalizeDegrees(tt.in); !approx(got, tt.want) {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCapSpeed(t *testing.T) {
	if v := CapSpeed(Vec2{3, 4}, 10); v != (Vec2{3, 4}) {
		t.Errorf("Under-limit velocity changed: %v", v)
	}
	if v := CapSpeed(Vec2{}, 0); v != (Vec2{}) {
		t.Errorf("Zero velocity changed: %v", v)
	}
	if v := CapSpeed(Vec2{0, -20}, 5); !approx(v.Y(), -5) || v.X() != 0 {
		t.Errorf("Expected (0, -5), got %v", v)
	}
}

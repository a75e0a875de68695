//go:build physicsdebug

package physics

import "testing"

func TestOutOfRangePanicsInDebugBuilds(t *testing.T) {
	w := newTestWorld()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected a panic")
		}
		if _, ok := r.(*HandleError); !ok {
			t.Errorf("Expected *HandleError panic, got %T", r)
		}
	}()
	w.Get(Handle(3))
}

func TestDeadHandleDoesNotPanic(t *testing.T) {
	w := newTestWorld()
	h := mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))
	w.Remove(h)

	if _, err := w.Get(h); err == nil {
		t.Error("Expected a dead handle error")
	}
	if w.ApplyForward(h, 1) {
		t.Error("ApplyForward on a dead body should report false")
	}
}

func TestActuatorOutOfRangePanicsWithOp(t *testing.T) {
	w := newTestWorld()

	defer func() {
		herr, ok := recover().(*HandleError)
		if !ok {
			t.Fatal("Expected a *HandleError panic")
		}
		if herr.Op != "apply_torque" || herr.Handle != Handle(7) || herr.Err != ErrHandleOutOfRange {
			t.Errorf("Unexpected panic value %v", herr)
		}
	}()
	w.ApplyTorque(Handle(7), 1)
}

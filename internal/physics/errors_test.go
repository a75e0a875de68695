//go:build !physicsdebug

package physics

import (
	"errors"
	"testing"
)

// TestGetInvalidHandle verifies reads report typed errors instead of stale data
func TestGetInvalidHandle(t *testing.T) {
	w := newTestWorld()
	live := mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))
	dead := mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))
	w.Remove(dead)

	tests := []struct {
		name   string
		handle Handle
		want   error
	}{
		{"negative", NoHandle, ErrHandleOutOfRange},
		{"past end", Handle(99), ErrHandleOutOfRange},
		{"dead slot", dead, ErrDeadHandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := w.Get(tt.handle)
			if b != nil {
				t.Error("Expected nil body")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if !IsHandleError(err) {
				t.Error("IsHandleError should recognise the error")
			}
			var herr *HandleError
			if !errors.As(err, &herr) {
				t.Fatal("Expected *HandleError")
			}
			if herr.Op != "get" || herr.Handle != tt.handle {
				t.Errorf("Unexpected error fields %+v", herr)
			}
		})
	}

	if _, err := w.Get(live); err != nil {
		t.Errorf("Live handle should resolve: %v", err)
	}
	if w.Stats().HandleErrors != 3 {
		t.Errorf("Expected 3 handle errors, got %d", w.Stats().HandleErrors)
	}
}

// TestUnloadInvalidatesHandles verifies no query after unload sees old data
func TestUnloadInvalidatesHandles(t *testing.T) {
	w := newTestWorld()
	ref := w.Refs().Register(&recorder{})
	var handles []Handle
	for i := 0; i < 5; i++ {
		handles = append(handles, mustCreate(t, w, asteroidAt(Vec2{float64(i), 0}, 20, ref)))
	}
	mustCreate(t, w, playerAt(Vec2{0, 0}, Ref{}))

	w.Unload()

	for _, h := range handles {
		if _, err := w.Get(h); !IsHandleError(err) {
			t.Errorf("Handle %d: expected handle error after unload, got %v", h, err)
		}
	}
	if w.Player() != NoHandle {
		t.Error("Unload should forget the player")
	}
	if _, ok := w.Refs().Resolve(ref); ok {
		t.Error("Unload should release every back-reference")
	}
	if s := w.Stats(); s.Live != 0 || s.Slots != 0 {
		t.Errorf("Expected an empty world, got %+v", s)
	}

	// The world is usable again and handles restart at zero
	if h := mustCreate(t, w, playerAt(Vec2{0, 0}, Ref{})); h != 0 {
		t.Errorf("Expected handle 0 after unload, got %d", h)
	}
}

// TestActuatorsOutOfRange verifies bad handles are counted but harmless
func TestActuatorsOutOfRange(t *testing.T) {
	w := newTestWorld()
	mustCreate(t, w, asteroidAt(Vec2{0, 0}, 20, Ref{}))

	if w.ApplyForward(Handle(5), 10) {
		t.Error("ApplyForward should fail on an out of range handle")
	}
	if w.ApplyDirected(NoHandle, 10, Vec2{1, 0}) {
		t.Error("ApplyDirected should fail on a negative handle")
	}
	if w.ApplyTorque(Handle(1), 10) {
		t.Error("ApplyTorque should fail on an out of range handle")
	}
	if w.Stats().HandleErrors != 3 {
		t.Errorf("Expected 3 handle errors, got %d", w.Stats().HandleErrors)
	}
	if w.Stats().Slots != 1 {
		t.Error("Bad handles must not grow the store")
	}
}

package game

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned for control names the engine does not know.
	ErrUnknownAction = errors.New("game: unknown action")
	// ErrGameOver is returned for controls sent after the ship was destroyed.
	ErrGameOver = errors.New("game: game over")
	// ErrBodyLimit is returned when the world is at its body cap.
	ErrBodyLimit = errors.New("game: body limit reached")
)

// Action is a ship control. Controls are held: they apply every fixed tick
// until released.
type Action string

const (
	ActionThrust    Action = "thrust"
	ActionReverse   Action = "reverse"
	ActionTurnLeft  Action = "turn_left"
	ActionTurnRight Action = "turn_right"
	ActionShoot     Action = "shoot"
)

// ParseAction validates a control name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionThrust, ActionReverse, ActionTurnLeft, ActionTurnRight, ActionShoot:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

type inputState struct {
	thrust  bool
	reverse bool
	left    bool
	right   bool
	shoot   bool
}

func (in *inputState) set(a Action, active bool) error {
	switch a {
	case ActionThrust:
		in.thrust = active
	case ActionReverse:
		in.reverse = active
	case ActionTurnLeft:
		in.left = active
	case ActionTurnRight:
		in.right = active
	case ActionShoot:
		in.shoot = active
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	return nil
}

// applyInput drives the ship from the held controls. Runs once per fixed tick.
func (e *Engine) applyInput() {
	p := e.player
	if p == nil || p.Dead {
		return
	}
	t := e.tuning.Player

	if e.input.thrust {
		e.world.ApplyForward(p.Body, t.Thrust)
	}
	if e.input.reverse {
		e.world.ApplyForward(p.Body, -t.Thrust)
	}
	if e.input.left {
		e.world.ApplyTorque(p.Body, -t.RotationSpeed)
	}
	if e.input.right {
		e.world.ApplyTorque(p.Body, t.RotationSpeed)
	}
	if e.input.shoot {
		e.shoot()
	}
}

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current state
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrClosed is returned once the controller has stopped
	ErrClosed = errors.New("session closed")
)

// State is the session lifecycle
type State int

const (
	Idle State = iota
	Capturing
	Armed
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Armed:
		return "armed"
	case Running:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText lets states appear by name in JSON payloads
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action names a user request, used in transition errors
type Action string

const (
	ActionBeginCapture Action = "begin capture"
	ActionToggleRun    Action = "toggle run"
)

// allows reports whether a user action is accepted in state s
func (s State) allows(a Action) bool {
	switch a {
	case ActionBeginCapture:
		return s == Idle || s == Armed
	case ActionToggleRun:
		return s == Armed || s == Running
	}
	return false
}

func invalidTransition(s State, a Action) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, a, s)
}

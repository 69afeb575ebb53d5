// Package input provides the trigger model plus cross-platform input listening and injection.
package input

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrListenerInstall is returned when the OS refuses to install the keyboard/pointer hook
var ErrListenerInstall = errors.New("input hook could not be installed")

// ErrUnknownButton is returned when a pointer button name is not recognised
var ErrUnknownButton = errors.New("unknown pointer button")

// Kind tells which physical channel a trigger belongs to
type Kind uint8

const (
	KindNone Kind = iota
	KindKeyboard
	KindPointer
)

// Button identifies one of the three tracked pointer buttons
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// String returns the lowercase button name ("left", "right", "middle")
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	}
	return "none"
}

// ParseButton maps a button name back to a Button
func ParseButton(name string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle", "center":
		return ButtonMiddle, nil
	}
	return ButtonNone, fmt.Errorf("%w: %q", ErrUnknownButton, name)
}

// Trigger is the single captured input that playback repeats.
// It is a plain value: two triggers are the same trigger when they compare equal.
type Trigger struct {
	Kind   Kind   `json:"kind"`
	Key    string `json:"key,omitempty"`
	Button Button `json:"button,omitempty"`
}

// KeyboardKey builds a keyboard trigger for the named key
func KeyboardKey(name string) Trigger {
	return Trigger{Kind: KindKeyboard, Key: name}
}

// PointerButton builds a pointer trigger for the given button
func PointerButton(b Button) Trigger {
	return Trigger{Kind: KindPointer, Button: b}
}

// IsZero reports whether no trigger has been captured
func (t Trigger) IsZero() bool {
	return t.Kind == KindNone
}

// Description is the human readable form shown when a trigger resolves:
// "left mouse click" for pointer buttons, the literal key name otherwise.
func (t Trigger) Description() string {
	switch t.Kind {
	case KindPointer:
		return t.Button.String() + " mouse click"
	case KindKeyboard:
		return t.Key
	}
	return ""
}

// ShortName is the compact label used on the capture control ("left mouse", "a")
func (t Trigger) ShortName() string {
	switch t.Kind {
	case KindPointer:
		return t.Button.String() + " mouse"
	case KindKeyboard:
		return t.Key
	}
	return ""
}

func (t Trigger) String() string {
	switch t.Kind {
	case KindPointer:
		return fmt.Sprintf("PointerButton(%s)", t.Button)
	case KindKeyboard:
		return fmt.Sprintf("KeyboardKey(%s)", t.Key)
	}
	return "Trigger(none)"
}

// Listener waits for the next event on each physical channel.
// Both calls are single shot and return ctx.Err() when the context ends first.
type Listener interface {
	ListenKeyboard(ctx context.Context) (Trigger, error)
	ListenPointer(ctx context.Context) (Trigger, error)
}

// Emitter synthesizes one press of a trigger
type Emitter interface {
	Emit(t Trigger) error
}

// Source is the full input abstraction used by the session
type Source interface {
	Listener
	Emitter
}

// Device pairs a Listener with an Emitter into a Source
type Device struct {
	Listener
	Emitter
}

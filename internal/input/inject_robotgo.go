//go:build !windows

package input

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// macOS and Linux implementation of input injection using robotgo

// Injector synthesizes key taps and mouse clicks
type Injector struct{}

// NewInjector creates a new robotgo backed injector
func NewInjector() *Injector {
	return &Injector{}
}

// Emit presses and releases the trigger once
func (i *Injector) Emit(t Trigger) error {
	switch t.Kind {
	case KindKeyboard:
		if err := robotgo.KeyTap(t.Key); err != nil {
			return fmt.Errorf("failed to tap key %q: %w", t.Key, err)
		}
		return nil
	case KindPointer:
		name, err := robotgoButton(t.Button)
		if err != nil {
			return err
		}
		robotgo.Click(name, false)
		return nil
	}
	return fmt.Errorf("cannot emit empty trigger")
}

func robotgoButton(b Button) (string, error) {
	switch b {
	case ButtonLeft:
		return "left", nil
	case ButtonRight:
		return "right", nil
	case ButtonMiddle:
		return "center", nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownButton, b)
}

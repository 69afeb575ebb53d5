//go:build windows

package input

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/sys/windows"
)

// Windows implementation of input injection using keybd_event / mouse_event

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procKeybdEvent = user32.NewProc("keybd_event")
	procMouseEvent = user32.NewProc("mouse_event")
	procVkKeyScanW = user32.NewProc("VkKeyScanW")
)

const (
	KEYEVENTF_KEYUP        = 0x0002
	MOUSEEVENTF_LEFTDOWN   = 0x0002
	MOUSEEVENTF_LEFTUP     = 0x0004
	MOUSEEVENTF_RIGHTDOWN  = 0x0008
	MOUSEEVENTF_RIGHTUP    = 0x0010
	MOUSEEVENTF_MIDDLEDOWN = 0x0020
	MOUSEEVENTF_MIDDLEUP   = 0x0040
)

// Injector synthesizes key taps and mouse clicks
type Injector struct{}

// NewInjector creates a new Windows injector
func NewInjector() *Injector {
	return &Injector{}
}

// Emit presses and releases the trigger once
func (i *Injector) Emit(t Trigger) error {
	switch t.Kind {
	case KindKeyboard:
		vk, err := resolveVK(t.Key)
		if err != nil {
			return err
		}
		procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
		procKeybdEvent.Call(uintptr(vk), 0, KEYEVENTF_KEYUP, 0)
		return nil
	case KindPointer:
		var down, up uintptr
		switch t.Button {
		case ButtonLeft:
			down, up = MOUSEEVENTF_LEFTDOWN, MOUSEEVENTF_LEFTUP
		case ButtonRight:
			down, up = MOUSEEVENTF_RIGHTDOWN, MOUSEEVENTF_RIGHTUP
		case ButtonMiddle:
			down, up = MOUSEEVENTF_MIDDLEDOWN, MOUSEEVENTF_MIDDLEUP
		default:
			return fmt.Errorf("%w: %d", ErrUnknownButton, t.Button)
		}
		procMouseEvent.Call(down, 0, 0, 0, 0)
		procMouseEvent.Call(up, 0, 0, 0, 0)
		return nil
	}
	return fmt.Errorf("cannot emit empty trigger")
}

// resolveVK tries the static table first and falls back to the active keyboard
// layout for single printable characters such as ";" or "/".
func resolveVK(name string) (uint8, error) {
	vk, err := vkFromName(name)
	if err == nil {
		return vk, nil
	}
	if utf8.RuneCountInString(name) != 1 {
		return 0, err
	}
	r, _ := utf8.DecodeRuneInString(name)
	ret, _, _ := procVkKeyScanW.Call(uintptr(uint16(r)))
	if int16(ret) == -1 {
		return 0, err
	}
	return uint8(ret & 0xFF), nil
}

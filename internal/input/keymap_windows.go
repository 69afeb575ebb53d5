//go:build windows

package input

import (
	"fmt"
	"strings"
)

// namedKeys maps gohook key names to Windows virtual-key codes
var namedKeys = map[string]uint8{
	"ctrl":        0x11,
	"lctrl":       0xA2,
	"rctrl":       0xA3,
	"alt":         0x12,
	"lalt":        0xA4,
	"ralt":        0xA5,
	"shift":       0x10,
	"lshift":      0xA0,
	"rshift":      0xA1,
	"cmd":         0x5B,
	"lcmd":        0x5B,
	"rcmd":        0x5C,
	"space":       0x20,
	"enter":       0x0D,
	"esc":         0x1B,
	"escape":      0x1B,
	"backspace":   0x08,
	"tab":         0x09,
	"capslock":    0x14,
	"pageup":      0x21,
	"pagedown":    0x22,
	"end":         0x23,
	"home":        0x24,
	"left":        0x25,
	"up":          0x26,
	"right":       0x27,
	"down":        0x28,
	"printscreen": 0x2C,
	"insert":      0x2D,
	"delete":      0x2E,
	"pause":       0x13,
	"scrolllock":  0x91,
	"numlock":     0x90,
}

// vkFromName resolves a key name to a virtual-key code.
// Letters, digits and F1-F24 are computed; everything else goes through namedKeys.
func vkFromName(name string) (uint8, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if vk, ok := namedKeys[key]; ok {
		return vk, nil
	}

	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 0x41, nil
		case c >= '0' && c <= '9':
			return c, nil
		}
	}

	var n int
	if _, err := fmt.Sscanf(key, "f%d", &n); err == nil && n >= 1 && n <= 24 {
		return uint8(0x6F + n), nil
	}

	return 0, fmt.Errorf("no virtual-key code for %q", name)
}

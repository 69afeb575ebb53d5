//go:build darwin

package input

/*
#cgo LDFLAGS: -framework ApplicationServices

#include <stdbool.h>
#include <ApplicationServices/ApplicationServices.h>

// Check if we have accessibility permissions
static bool hasAccessibilityPermissions() {
    return AXIsProcessTrusted();
}
*/
import "C"

// accessibilityTrusted reports whether macOS lets this process tap global input
func accessibilityTrusted() bool {
	return bool(C.hasAccessibilityPermissions())
}

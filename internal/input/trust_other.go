//go:build !darwin

package input

// accessibilityTrusted is always true where no per-process input permission exists
func accessibilityTrusted() bool {
	return true
}

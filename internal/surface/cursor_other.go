//go:build !windows

package surface

// No portable pointer-position API here; the popup centers itself on the
// current screen instead.
func cursorPos() (int, int, bool) {
	return 0, 0, false
}

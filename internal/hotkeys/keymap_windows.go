//go:build windows

package hotkeys

import "golang.design/x/hotkey"

func modifierFor(token string) (hotkey.Modifier, bool) {
	switch token {
	case "CommandOrControl", "Control":
		return hotkey.ModCtrl, true
	case "Alt":
		return hotkey.ModAlt, true
	case "Shift":
		return hotkey.ModShift, true
	case "Super":
		return hotkey.ModWin, true
	}
	return 0, false
}

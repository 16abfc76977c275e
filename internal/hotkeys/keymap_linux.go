//go:build linux

package hotkeys

import "golang.design/x/hotkey"

func modifierFor(token string) (hotkey.Modifier, bool) {
	switch token {
	case "CommandOrControl", "Control":
		return hotkey.ModCtrl, true
	case "Alt":
		return hotkey.Mod1, true
	case "Shift":
		return hotkey.ModShift, true
	case "Super":
		return hotkey.Mod4, true
	}
	return 0, false
}

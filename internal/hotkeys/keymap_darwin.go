//go:build darwin

package hotkeys

import "golang.design/x/hotkey"

func modifierFor(token string) (hotkey.Modifier, bool) {
	switch token {
	case "CommandOrControl", "Super":
		return hotkey.ModCmd, true
	case "Control":
		return hotkey.ModCtrl, true
	case "Alt":
		return hotkey.ModOption, true
	case "Shift":
		return hotkey.ModShift, true
	}
	return 0, false
}

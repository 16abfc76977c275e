package hotkeys

import (
	"strings"
	"unicode"
)

// Canonical modifier names, in the order they appear in a normalized
// accelerator string.
var modifierOrder = []string{"CommandOrControl", "Control", "Alt", "Shift", "Super"}

var modifierAliases = map[string]string{
	"cmd":              "CommandOrControl",
	"command":          "CommandOrControl",
	"commandorcontrol": "CommandOrControl",
	"cmdorctrl":        "CommandOrControl",
	"ctrl":             "Control",
	"control":          "Control",
	"alt":              "Alt",
	"option":           "Alt",
	"shift":            "Shift",
	"super":            "Super",
	"win":              "Super",
	"meta":             "Super",
}

var keyAliases = map[string]string{
	"space":     "Space",
	"spacebar":  "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"esc":       "Escape",
	"escape":    "Escape",
	"tab":       "Tab",
	"delete":    "Delete",
	"del":       "Delete",
	"backspace": "Backspace",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"plus":      "Plus",
	"minus":     "Minus",
}

// Pointer-button pseudo-keys. Accepted in the data model but never wired
// to the OS-level global hotkey facility.
var pointerKeys = map[string]string{
	"mousebutton3": "MouseButton3",
	"mousebutton4": "MouseButton4",
	"mousebutton5": "MouseButton5",
	"middleclick":  "MouseButton3",
}

// Normalize parses a '+'-delimited accelerator, canonicalizes modifier
// names, orders modifiers deterministically and requires exactly one
// non-modifier key token. Anything else normalizes to "" (unbound).
func Normalize(raw string) string {
	tokens := strings.Split(raw, "+")

	mods := map[string]bool{}
	key := ""
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		lower := strings.ToLower(token)
		if canonical, ok := modifierAliases[lower]; ok {
			mods[canonical] = true
			continue
		}
		if key != "" {
			// More than one non-modifier key.
			return ""
		}
		key = canonicalKey(token)
	}
	if key == "" {
		return ""
	}

	parts := make([]string, 0, len(mods)+1)
	for _, name := range modifierOrder {
		if mods[name] {
			parts = append(parts, name)
		}
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}

func canonicalKey(token string) string {
	lower := strings.ToLower(token)
	if canonical, ok := keyAliases[lower]; ok {
		return canonical
	}
	if canonical, ok := pointerKeys[lower]; ok {
		return canonical
	}
	if isFunctionKey(lower) {
		return strings.ToUpper(token)
	}
	runes := []rune(token)
	if len(runes) == 1 {
		return strings.ToUpper(token)
	}
	// Unknown named key: keep it, first rune upper-cased.
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isFunctionKey(lower string) bool {
	if len(lower) < 2 || lower[0] != 'f' {
		return false
	}
	for _, r := range lower[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsPointer reports whether a normalized accelerator ends in a
// pointer-button pseudo-key.
func IsPointer(normalized string) bool {
	parts := strings.Split(normalized, "+")
	last := strings.ToLower(parts[len(parts)-1])
	_, ok := pointerKeys[last]
	return ok
}

// Package hotkey turns configured key combinations such as "Ctrl+Enter" into
// window shortcuts for the study viewer.
package hotkey

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const (
	DefaultSubmit   = "Ctrl+Enter"
	DefaultFullArea = "Ctrl+A"
	DefaultClear    = "Escape"
)

// Parse reads "Mod+Mod+Key". Modifiers are ctrl, alt, shift and
// win/cmd/super; exactly one non-modifier key is required.
func Parse(combo string) (*desktop.CustomShortcut, error) {
	sc := &desktop.CustomShortcut{}
	for _, part := range strings.Split(combo, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
			return nil, fmt.Errorf("invalid hotkey %q: empty key", combo)
		case "ctrl", "control":
			sc.Modifier |= fyne.KeyModifierControl
		case "alt":
			sc.Modifier |= fyne.KeyModifierAlt
		case "shift":
			sc.Modifier |= fyne.KeyModifierShift
		case "win", "cmd", "super":
			sc.Modifier |= fyne.KeyModifierSuper
		default:
			if sc.KeyName != "" {
				return nil, fmt.Errorf("invalid hotkey %q: more than one key", combo)
			}
			name, ok := keyName(part)
			if !ok {
				return nil, fmt.Errorf("invalid hotkey %q: unknown key %q", combo, part)
			}
			sc.KeyName = name
		}
	}
	if sc.KeyName == "" {
		return nil, fmt.Errorf("invalid hotkey %q: no key", combo)
	}
	return sc, nil
}

// MustParse falls back to def when combo does not parse.
func MustParse(combo, def string) *desktop.CustomShortcut {
	if sc, err := Parse(combo); err == nil {
		return sc
	}
	sc, err := Parse(def)
	if err != nil {
		panic(err)
	}
	return sc
}

func keyName(k string) (fyne.KeyName, bool) {
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return fyne.KeyName(strings.ToUpper(k)), true
		case c >= '0' && c <= '9':
			return fyne.KeyName(k), true
		}
	}
	if len(k) >= 2 && k[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(k[1:], "%d", &n); err == nil && n >= 1 && n <= 12 && fmt.Sprint(n) == k[1:] {
			return fyne.KeyName("F" + k[1:]), true
		}
	}
	switch k {
	case "space":
		return fyne.KeySpace, true
	case "enter", "return":
		return fyne.KeyReturn, true
	case "esc", "escape":
		return fyne.KeyEscape, true
	case "tab":
		return fyne.KeyTab, true
	case "backspace":
		return fyne.KeyBackspace, true
	case "delete", "del":
		return fyne.KeyDelete, true
	case "insert", "ins":
		return fyne.KeyInsert, true
	case "home":
		return fyne.KeyHome, true
	case "end":
		return fyne.KeyEnd, true
	case "pageup", "pgup":
		return fyne.KeyPageUp, true
	case "pagedown", "pgdn":
		return fyne.KeyPageDown, true
	case "left":
		return fyne.KeyLeft, true
	case "up":
		return fyne.KeyUp, true
	case "right":
		return fyne.KeyRight, true
	case "down":
		return fyne.KeyDown, true
	}
	return "", false
}

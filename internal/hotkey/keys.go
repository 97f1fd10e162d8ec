package hotkey

import "fmt"

// Virtual-key codes used for defaults and modifier classification.
const (
	vkBack    = 0x08
	vkTab     = 0x09
	vkReturn  = 0x0D
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkEscape  = 0x1B
	vkSpace   = 0x20
	vkDelete  = 0x2E
	vkLWin    = 0x5B
	vkRWin    = 0x5C
	vkF1      = 0x70
	vkF12     = 0x7B
	vkLShift  = 0xA0
	vkRShift  = 0xA1
	vkLCtrl   = 0xA2
	vkRCtrl   = 0xA3
	vkLMenu   = 0xA4
	vkRMenu   = 0xA5
)

// Letter key codes referenced by the stock bindings.
const (
	KeyB uint16 = 'B'
	KeyV uint16 = 'V'
)

// IsModifierKey reports whether the key code is itself a modifier key.
// Modifier keys never anchor a capture: a captured binding needs a regular
// key, with modifiers recorded from the live flag state.
func IsModifierKey(keyCode uint16) bool {
	switch keyCode {
	case vkShift, vkControl, vkMenu, vkLWin, vkRWin,
		vkLShift, vkRShift, vkLCtrl, vkRCtrl, vkLMenu, vkRMenu:
		return true
	default:
		return false
	}
}

// KeyDisplayName returns a short human-readable name for a key code.
func KeyDisplayName(keyCode uint16) string {
	switch {
	case keyCode >= 'A' && keyCode <= 'Z':
		return string(rune(keyCode))
	case keyCode >= '0' && keyCode <= '9':
		return string(rune(keyCode))
	case keyCode >= vkF1 && keyCode <= vkF12:
		return fmt.Sprintf("F%d", keyCode-vkF1+1)
	}

	switch keyCode {
	case vkSpace:
		return "Space"
	case vkTab:
		return "Tab"
	case vkReturn:
		return "Enter"
	case vkEscape:
		return "Esc"
	case vkBack:
		return "Backspace"
	case vkDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Key(%d)", keyCode)
	}
}

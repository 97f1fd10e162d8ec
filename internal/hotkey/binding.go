package hotkey

import (
	"strings"

	"push-to-type/internal/domain"
)

// Modifier is a bitmask of held modifier keys.
type Modifier int

const (
	ModControl Modifier = 1 << 0
	ModOption  Modifier = 1 << 1
	ModShift   Modifier = 1 << 2
	ModCommand Modifier = 1 << 3
)

// Has reports whether mod is contained in m.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// Contains reports whether every modifier in required is also held in m.
func (m Modifier) Contains(required Modifier) bool {
	return m&required == required
}

// IsEmpty reports whether no modifiers are held.
func (m Modifier) IsEmpty() bool {
	return m == 0
}

// String returns a display form like "Ctrl+Shift".
func (m Modifier) String() string {
	if m == 0 {
		return ""
	}

	var parts []string
	if m.Has(ModControl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModOption) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModCommand) {
		parts = append(parts, "Cmd")
	}
	return strings.Join(parts, "+")
}

// Binding is an immutable key code plus modifier set. Two bindings are equal
// exactly when both fields are equal; rebinding replaces the whole value.
type Binding struct {
	KeyCode   uint16
	Modifiers Modifier
}

// Matches reports whether a raw event's key code and full modifier set equal
// this binding.
func (b Binding) Matches(keyCode uint16, modifiers Modifier) bool {
	return b.KeyCode == keyCode && b.Modifiers == modifiers
}

// String returns the canonical display form, e.g. "Ctrl+Shift+V".
func (b Binding) String() string {
	name := KeyDisplayName(b.KeyCode)
	if mods := b.Modifiers.String(); mods != "" {
		return mods + "+" + name
	}
	return name
}

// FromConfig converts the persisted form into a Binding value.
func FromConfig(cfg domain.BindingConfig) Binding {
	return Binding{KeyCode: cfg.KeyCode, Modifiers: Modifier(cfg.Modifiers)}
}

// Config converts the Binding into its persisted form.
func (b Binding) Config() domain.BindingConfig {
	return domain.BindingConfig{KeyCode: b.KeyCode, Modifiers: int(b.Modifiers)}
}

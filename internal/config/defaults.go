package config

import (
	"push-to-type/internal/domain"
	"push-to-type/internal/hotkey"
)

// DefaultSettings returns baseline local configuration for first launch:
// a local backend and the stock Ctrl+V / Ctrl+Shift+V / Ctrl+B bindings.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		BackendBaseURL: "http://127.0.0.1:5001",
		PollTimeoutSec: 60,
		Notifications:  true,
		Bindings:       DefaultBindings(),
	}
}

// DefaultBindings returns the stock hotkey for each role.
func DefaultBindings() map[domain.Role]domain.BindingConfig {
	return map[domain.Role]domain.BindingConfig{
		domain.RoleRecordAndSubmit: hotkey.Binding{KeyCode: hotkey.KeyV, Modifiers: hotkey.ModControl}.Config(),
		domain.RoleRecordOnly:      hotkey.Binding{KeyCode: hotkey.KeyV, Modifiers: hotkey.ModControl | hotkey.ModShift}.Config(),
		domain.RoleAsk:             hotkey.Binding{KeyCode: hotkey.KeyB, Modifiers: hotkey.ModControl}.Config(),
	}
}

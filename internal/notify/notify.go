// Package notify raises OS toast notifications for flow outcomes.
package notify

import "github.com/gen2brain/beeep"

// Notifier shows toasts when enabled. The zero value is disabled.
type Notifier struct {
	enabled bool
}

// New creates a notifier. Disabled notifiers swallow every call.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// SetEnabled flips delivery at runtime when the settings change.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// Info shows an informational toast.
func (n *Notifier) Info(title, message string) {
	if !n.enabled {
		return
	}
	_ = beeep.Notify(title, message, "")
}

// Error shows a failure toast.
func (n *Notifier) Error(title, message string) {
	if !n.enabled {
		return
	}
	_ = beeep.Alert(title, message, "")
}

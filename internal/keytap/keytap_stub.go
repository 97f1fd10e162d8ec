//go:build !windows

package keytap

import (
	"fmt"

	"push-to-type/internal/hotkey"
)

// Tap is a placeholder on platforms without a low-level hook implementation.
type Tap struct{}

// New creates an inactive tap.
func New() *Tap {
	return &Tap{}
}

// Start always fails: there is no global keyboard hook on this platform.
func (t *Tap) Start() (<-chan hotkey.RawEvent, error) {
	return nil, fmt.Errorf("%w: not supported on this platform", ErrHookUnavailable)
}

// Stop is a no-op.
func (t *Tap) Stop() {}

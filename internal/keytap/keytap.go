// Package keytap provides the system-wide keyboard event feed consumed by
// the hotkey monitor. The platform hook is thin glue: it translates raw OS
// key messages into hotkey.RawEvent values and performs no matching itself.
package keytap

import "errors"

// ErrHookUnavailable is returned by Start when the OS-level keyboard hook
// cannot be installed, typically because the required input-monitoring
// permission is missing or another hook holds the slot.
var ErrHookUnavailable = errors.New("keyboard hook unavailable")

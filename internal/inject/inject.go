// Package inject delivers transcribed text into the focused application:
// clipboard swap plus a synthesized Ctrl+V, with an optional Enter for
// submit-style flows.
package inject

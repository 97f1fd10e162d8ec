//go:build !windows

package inject

import "fmt"

// Paste is not supported off Windows; the desktop shell surfaces the text
// in the HUD instead.
func Paste(text string, submit bool) error {
	return fmt.Errorf("text injection not supported on this platform")
}

//go:build windows

package inject

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// Paste routes text through the clipboard into the focused control, then
// restores whatever the clipboard held before. submit additionally presses
// Enter so chat-style targets send the message immediately.
func Paste(text string, submit bool) error {
	original, _ := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	// Give the clipboard owner change a moment to settle before Ctrl+V.
	time.Sleep(80 * time.Millisecond)

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("prepare key synthesis: %w", err)
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send paste keystroke: %w", err)
	}

	if submit {
		time.Sleep(50 * time.Millisecond)
		enter, err := keybd_event.NewKeyBonding()
		if err != nil {
			return fmt.Errorf("prepare key synthesis: %w", err)
		}
		enter.SetKeys(keybd_event.VK_ENTER)
		if err := enter.Launching(); err != nil {
			return fmt.Errorf("send enter keystroke: %w", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	_ = clipboard.WriteAll(original)
	return nil
}

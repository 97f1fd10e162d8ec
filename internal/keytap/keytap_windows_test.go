//go:build windows

package keytap

import (
	"errors"
	"testing"
	"time"
)

func TestTapStartStop(t *testing.T) {
	tap := New()
	events, err := tap.Start()
	if err != nil {
		if errors.Is(err, ErrHookUnavailable) {
			t.Skip("low-level keyboard hooks unavailable in this session")
		}
		t.Fatalf("Start: %v", err)
	}

	again, err := tap.Start()
	if err != nil || again != events {
		t.Errorf("second Start = (%v, %v), want the live feed", again, err)
	}

	// Stop must evict the hook thread and close the feed; stray key events
	// may still drain first.
	tap.Stop()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-events:
			if !open {
				tap.Stop() // idempotent
				return
			}
		case <-deadline:
			t.Fatal("event feed not closed after Stop")
		}
	}
}

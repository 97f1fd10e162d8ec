package stage

import (
	"testing"

	"push-to-type/internal/domain"
)

// TestBusSince verifies incremental reads by sequence.
func TestBusSince(t *testing.T) {
	bus := NewBus(3)
	bus.Publish(Event{Stage: domain.StageRecording})
	bus.Publish(Event{Stage: domain.StageUploading})
	bus.Publish(Event{Stage: domain.StageWaiting})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestBusCapsHistory verifies buffer limit trimming behavior.
func TestBusCapsHistory(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestBusCurrent verifies the live stage tracks the last publish.
func TestBusCurrent(t *testing.T) {
	bus := NewBus(0)
	if got := bus.Current(); got != domain.StageIdle {
		t.Fatalf("initial stage = %q, want idle", got)
	}
	bus.Publish(Event{Stage: domain.StageRecording, Role: domain.RoleAsk})
	if got := bus.Current(); got != domain.StageRecording {
		t.Fatalf("stage = %q, want recording", got)
	}
}

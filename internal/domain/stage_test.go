package domain

import (
	"testing"
	"time"
)

func TestStageAutoClearAfter(t *testing.T) {
	tests := []struct {
		stage Stage
		after time.Duration
		ok    bool
	}{
		{StageCompleted, 2500 * time.Millisecond, true},
		{StageError, 4 * time.Second, true},
		{StageIdle, 0, false},
		{StageRecording, 0, false},
		{StageUploading, 0, false},
		{StageWaiting, 0, false},
		{StageResponding, 0, false},
		{StageAwaitingPermission, 0, false},
	}
	for _, tt := range tests {
		after, ok := tt.stage.AutoClearAfter()
		if ok != tt.ok || after != tt.after {
			t.Errorf("%s.AutoClearAfter() = (%v, %v), want (%v, %v)",
				tt.stage, after, ok, tt.after, tt.ok)
		}
	}
}

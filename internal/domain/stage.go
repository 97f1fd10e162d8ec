package domain

import "time"

// Stage is the pipeline stage rendered by the HUD.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageRecording          Stage = "recording"
	StageUploading          Stage = "uploading"
	StageWaiting            Stage = "waiting"
	StageResponding         Stage = "responding"
	StageCompleted          Stage = "completed"
	StageError              Stage = "error"
	StageAwaitingPermission Stage = "awaiting-permission"
)

// Auto-clear intervals for transient terminal stages.
const (
	completedClearAfter = 2500 * time.Millisecond
	errorClearAfter     = 4 * time.Second
)

// AutoClearAfter returns how long the stage stays visible before reverting
// to idle. The second return is false for stages that persist until the
// orchestrator changes them explicitly.
func (s Stage) AutoClearAfter() (time.Duration, bool) {
	switch s {
	case StageCompleted:
		return completedClearAfter, true
	case StageError:
		return errorClearAfter, true
	default:
		return 0, false
	}
}

// Title returns the short HUD heading for the stage.
func (s Stage) Title() string {
	switch s {
	case StageIdle:
		return "Ready"
	case StageRecording:
		return "Recording"
	case StageUploading, StageWaiting:
		return "Transcribing"
	case StageResponding:
		return "Answering"
	case StageCompleted:
		return "Copied"
	case StageAwaitingPermission:
		return "Permission needed"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}

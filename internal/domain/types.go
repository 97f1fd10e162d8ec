package domain

import "time"

// Role names one logical hotkey function.
type Role string

const (
	RoleRecordAndSubmit Role = "record-and-submit"
	RoleRecordOnly      Role = "record-only"
	RoleAsk             Role = "ask"
)

// Roles lists every role in deterministic matching order.
var Roles = []Role{RoleRecordAndSubmit, RoleRecordOnly, RoleAsk}

// JobStatus tracks the lifecycle of one remote transcription job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusReady      JobStatus = "ready"
	JobStatusError      JobStatus = "error"
	JobStatusTimeout    JobStatus = "timeout"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further polling may occur for this status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusReady, JobStatusError, JobStatusTimeout, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Job stores identity and outcome of one server-side transcription job.
type Job struct {
	ID           string    `json:"id"`
	Status       JobStatus `json:"status"`
	ResultText   string    `json:"resultText,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BindingConfig is the persisted form of one hotkey binding.
type BindingConfig struct {
	KeyCode   uint16 `json:"keyCode"`
	Modifiers int    `json:"modifiers"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	BackendBaseURL string                 `json:"backendBaseUrl"`
	PollTimeoutSec int                    `json:"pollTimeoutSec"`
	Token          string                 `json:"token,omitempty"`
	Notifications  bool                   `json:"notifications"`
	Bindings       map[Role]BindingConfig `json:"bindings"`
}

package backend

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a flow aborted by the user. It is silent: callers reset
// to idle without surfacing a message.
var ErrCancelled = errors.New("cancelled")

// ErrTimeout marks a poll loop that exhausted its wall-clock deadline.
var ErrTimeout = errors.New("timed out waiting for transcription")

// ErrUnknownJob marks a job id the server no longer knows (HTTP 404 on poll).
var ErrUnknownJob = errors.New("unknown job")

// ErrEmptyRecording marks an audio file still empty after bounded re-reads.
var ErrEmptyRecording = errors.New("recording file is empty")

// ServerError reports a non-2xx response where a 2xx was required.
type ServerError struct {
	Status int
}

// Error formats the status for logs and the HUD.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned HTTP %d", e.Status)
}

// DecodeError reports a response body that could not be parsed. It is
// terminal for uploads and treated as transient by the poll loop.
type DecodeError struct {
	Err error
}

// Error describes the decode failure.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NetworkError reports a transport-level failure reaching the backend: DNS,
// refused connection, or a request that never produced a response.
type NetworkError struct {
	Err error
}

// Error describes the transport failure.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

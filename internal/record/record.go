// Package record owns microphone capture: a session controller that
// serializes begin/end/cancel, a PortAudio recorder streaming 16 kHz mono
// WAV to disk, and the keeper for the most recent finished take.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotRecording is returned by End and Cancel when no capture is live.
var ErrNotRecording = errors.New("no recording in progress")

// Capture is the device layer under a Session. Start begins writing to
// path; Stop finalizes the file and blocks until it is flushed; Abort
// discards the take and removes the file.
type Capture interface {
	Start(path string) error
	Stop() error
	Abort() error
}

// Session serializes capture around a single live take. Begin while a take
// is live is a no-op that returns the live take's path, so a duplicate
// hotkey down cannot spawn a second stream.
type Session struct {
	mu      sync.Mutex
	capture Capture
	tempDir string

	active     bool
	activePath string
}

// NewSession creates a session writing takes into tempDir. An empty
// tempDir selects the OS temp directory.
func NewSession(capture Capture, tempDir string) *Session {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Session{capture: capture, tempDir: tempDir}
}

// Begin starts a new take, or returns the live take's path unchanged.
func (s *Session) Begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return s.activePath, nil
	}

	path := s.tempPath()
	if err := s.capture.Start(path); err != nil {
		// The session stays idle: a later End must not report a phantom
		// take.
		return "", fmt.Errorf("start capture: %w", err)
	}
	s.active = true
	s.activePath = path
	return path, nil
}

// End finalizes the live take and returns its path. After a failed Begin
// it returns ErrNotRecording.
func (s *Session) End() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return "", ErrNotRecording
	}
	path := s.activePath
	s.active = false
	s.activePath = ""

	if err := s.capture.Stop(); err != nil {
		return "", fmt.Errorf("stop capture: %w", err)
	}
	return path, nil
}

// Cancel discards the live take. Nothing is uploaded and the file is
// removed.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNotRecording
	}
	s.active = false
	s.activePath = ""

	if err := s.capture.Abort(); err != nil {
		return fmt.Errorf("abort capture: %w", err)
	}
	return nil
}

// Active reports whether a take is live.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// tempPath builds a collision-free WAV path for the next take.
func (s *Session) tempPath() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(s.tempDir, fmt.Sprintf("take_%s.wav", id))
}

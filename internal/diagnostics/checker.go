// Package diagnostics runs startup checks: backend reachability, a
// writable take directory, and keyboard hook support on this platform.
package diagnostics

import (
	"fmt"
	"net/http"
	"os"
	goruntime "runtime"
	"strings"
	"time"

	"push-to-type/internal/domain"
)

// Checker validates the environment the flow depends on.
type Checker struct {
	httpClient *http.Client
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	goos       string
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: 3 * time.Second},
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		goos:       goruntime.GOOS,
	}
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	httpClient *http.Client,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	goos string,
) *Checker {
	return &Checker{
		httpClient: httpClient,
		createTemp: createTemp,
		remove:     remove,
		goos:       goos,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkBackend(settings.BackendBaseURL),
		c.checkTakeDir(os.TempDir()),
		c.checkHookSupport(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkBackend verifies the transcription service answers HTTP at all. Any
// status code counts as reachable; only transport failures fail the check.
func (c *Checker) checkBackend(baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "backend",
		Name: "Transcription backend",
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Backend base URL is empty."
		item.Hint = "Set the transcription service address in settings."
		return item
	}

	resp, err := c.httpClient.Get(strings.TrimRight(baseURL, "/") + "/api/transcription/startup-probe")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Backend is not reachable: %v", err)
		item.Hint = "Start the transcription service or fix the base URL in settings."
		return item
	}
	resp.Body.Close()

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Backend answered at %s", baseURL)
	return item
}

// checkTakeDir verifies recordings can be written to the temp directory.
func (c *Checker) checkTakeDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "take_dir",
		Name: "Recording directory",
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot write recordings under %s", dir)
		item.Hint = "Check permissions for the temp directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkHookSupport reports whether the low-level keyboard hook exists on
// this platform.
func (c *Checker) checkHookSupport() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "keyboard_hook",
		Name: "Keyboard hook",
	}

	if c.goos != "windows" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Global hotkeys are not supported on %s.", c.goos)
		item.Hint = "Run the app on Windows to use push-to-type hotkeys."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Low-level keyboard hook is available."
	return item
}

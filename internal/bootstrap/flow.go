package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"push-to-type/internal/backend"
	"push-to-type/internal/domain"
	"push-to-type/internal/notify"
	"push-to-type/internal/record"
	"push-to-type/internal/stage"
)

// jobHandle is one live poll loop: a one-shot result channel plus cancel.
type jobHandle interface {
	Result() <-chan domain.Job
	Cancel()
}

// backendClient isolates the HTTP client behind an interface for tests.
type backendClient interface {
	Upload(ctx context.Context, filePath string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
	Poll(recordingID string) jobHandle
}

// recorder is the capture session surface the flow drives.
type recorder interface {
	Begin() (string, error)
	End() (string, error)
	Cancel() error
	Active() bool
}

// keeper retains the most recent finished take for retry.
type keeper interface {
	Keep(src string) error
	Last() (string, error)
}

// Flow runs the hotkey-to-paste transaction: record, upload, poll, deliver.
// At most one transaction is in flight; starting a new recording abandons
// the previous transaction's poll loop first.
type Flow struct {
	client   backendClient
	session  recorder
	takes    keeper
	bus      *stage.Bus
	notifier *notify.Notifier
	paste    func(text string, submit bool) error
	onEvent  func(stage.Event)
	log      *slog.Logger

	// clearAfter resolves a stage's auto-expiry; swapped in tests.
	clearAfter func(s domain.Stage) (time.Duration, bool)

	mu      sync.Mutex
	poller  jobHandle
	abandon context.CancelFunc
	clclock int64
}

// NewFlow wires the transaction coordinator.
func NewFlow(client backendClient, session recorder, takes keeper, bus *stage.Bus, notifier *notify.Notifier, paste func(string, bool) error) *Flow {
	return &Flow{
		client:     client,
		session:    session,
		takes:      takes,
		bus:        bus,
		notifier:   notifier,
		paste:      paste,
		log:        slog.Default(),
		clearAfter: domain.Stage.AutoClearAfter,
	}
}

// SetEventCallback registers a push hook invoked for every published stage
// event. Must be set before the first transaction.
func (f *Flow) SetEventCallback(cb func(stage.Event)) {
	f.onEvent = cb
}

// SetClient swaps the backend client after a settings change.
func (f *Flow) SetClient(client backendClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.client = client
}

// currentClient reads the client under the lock.
func (f *Flow) currentClient() backendClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client
}

// HandleRoleDown starts recording for a hotkey press. Any outstanding poll
// loop is abandoned first so its late result cannot interleave with the
// new take.
func (f *Flow) HandleRoleDown(role domain.Role) {
	f.abandonCurrent()

	if _, err := f.session.Begin(); err != nil {
		f.fail(role, fmt.Sprintf("microphone unavailable: %v", err))
		return
	}
	f.publish(stage.Event{Stage: domain.StageRecording, Role: role})
}

// HandleRoleUp finalizes the take and runs the remote transaction in the
// background.
func (f *Flow) HandleRoleUp(role domain.Role) {
	path, err := f.session.End()
	if err != nil {
		if errors.Is(err, record.ErrNotRecording) {
			// Begin failed earlier; the error stage is already showing.
			return
		}
		f.fail(role, fmt.Sprintf("finalize recording: %v", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.mu.Lock()
	f.abandon = cancel
	f.mu.Unlock()

	go f.transact(ctx, role, path)
}

// CancelCurrent aborts whatever the flow is doing: a live recording is
// discarded, an outstanding poll loop abandoned, and the HUD reset.
func (f *Flow) CancelCurrent() {
	if f.session.Active() {
		_ = f.session.Cancel()
	}
	f.abandonCurrent()
	f.publish(stage.Event{Stage: domain.StageIdle})
}

// RetryLast re-uploads the most recent finished take and pastes the
// transcription without submitting.
func (f *Flow) RetryLast() error {
	path, err := f.takes.Last()
	if err != nil {
		return err
	}

	f.abandonCurrent()
	ctx, cancel := context.WithCancel(context.Background())
	f.mu.Lock()
	f.abandon = cancel
	f.mu.Unlock()

	go f.transact(ctx, domain.RoleRecordOnly, path)
	return nil
}

// TranscribeFile uploads an existing audio file picked by the user and
// shows the transcription in the HUD without pasting.
func (f *Flow) TranscribeFile(path string) {
	f.abandonCurrent()
	ctx, cancel := context.WithCancel(context.Background())
	f.mu.Lock()
	f.abandon = cancel
	f.mu.Unlock()

	go f.transactShowOnly(ctx, path)
}

// transact runs upload, poll, and delivery for one take.
func (f *Flow) transact(ctx context.Context, role domain.Role, path string) {
	text, ok := f.obtainTranscription(ctx, role, path)
	if !ok {
		return
	}

	// Retry is a convenience; losing the copy must not fail the delivery.
	_ = f.takes.Keep(path)

	switch role {
	case domain.RoleAsk:
		f.publish(stage.Event{Stage: domain.StageResponding, Role: role, Message: text})
		answer, err := f.currentClient().Ask(ctx, text)
		if err != nil {
			f.fail(role, fmt.Sprintf("ask backend: %v", err))
			return
		}
		f.complete(role, answer)
		f.notifier.Info("Answer ready", truncate(answer, 120))
	default:
		if err := f.paste(text, role == domain.RoleRecordAndSubmit); err != nil {
			f.fail(role, fmt.Sprintf("deliver text: %v", err))
			return
		}
		f.complete(role, text)
		f.notifier.Info("Transcribed", truncate(text, 120))
	}
	f.log.Info("transaction delivered", "role", string(role), "chars", len(text))
}

// transactShowOnly uploads and polls but only surfaces the text in the HUD.
func (f *Flow) transactShowOnly(ctx context.Context, path string) {
	text, ok := f.obtainTranscription(ctx, domain.RoleRecordOnly, path)
	if !ok {
		return
	}
	f.complete(domain.RoleRecordOnly, text)
}

// obtainTranscription runs upload plus poll and returns the text, or
// publishes the failure and returns false.
func (f *Flow) obtainTranscription(ctx context.Context, role domain.Role, path string) (string, bool) {
	f.publish(stage.Event{Stage: domain.StageUploading, Role: role})

	client := f.currentClient()
	recordingID, err := client.Upload(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return "", false
		}
		f.fail(role, fmt.Sprintf("upload recording: %v", err))
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}

	f.publish(stage.Event{Stage: domain.StageWaiting, Role: role})

	handle := client.Poll(recordingID)
	f.mu.Lock()
	f.poller = handle
	f.mu.Unlock()

	var job domain.Job
	select {
	case job = <-handle.Result():
	case <-ctx.Done():
		handle.Cancel()
		f.forget(handle)
		return "", false
	}
	f.forget(handle)

	// A result can land in the buffered channel just as the transaction is
	// abandoned; deliver nothing once the context is gone.
	if ctx.Err() != nil {
		return "", false
	}

	if job.Status != domain.JobStatusReady {
		f.fail(role, job.ErrorMessage)
		return "", false
	}
	return job.ResultText, true
}

// forget clears the stored poll handle once its transaction is over.
func (f *Flow) forget(handle jobHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.poller == handle {
		f.poller = nil
	}
}

// abandonCurrent cancels the outstanding poll loop and transaction, if any.
func (f *Flow) abandonCurrent() {
	f.mu.Lock()
	poller := f.poller
	abandon := f.abandon
	f.poller = nil
	f.abandon = nil
	f.mu.Unlock()

	if poller != nil {
		poller.Cancel()
	}
	if abandon != nil {
		abandon()
	}
}

// complete publishes the terminal success stage and schedules its
// auto-clear back to idle.
func (f *Flow) complete(role domain.Role, message string) {
	f.publish(stage.Event{Stage: domain.StageCompleted, Role: role, Message: message})
	f.scheduleClear(domain.StageCompleted)
}

// fail publishes the error stage, notifies, and schedules its auto-clear.
func (f *Flow) fail(role domain.Role, message string) {
	f.log.Warn("transaction failed", "role", string(role), "reason", message)
	f.publish(stage.Event{Stage: domain.StageError, Role: role, Message: message})
	f.notifier.Error("Push to type", message)
	f.scheduleClear(domain.StageError)
}

// scheduleClear reverts the HUD to idle after the stage's display interval,
// unless another transition superseded it in the meantime.
func (f *Flow) scheduleClear(s domain.Stage) {
	after, ok := f.clearAfter(s)
	if !ok {
		return
	}

	f.mu.Lock()
	f.clclock++
	tick := f.clclock
	f.mu.Unlock()

	time.AfterFunc(after, func() {
		f.mu.Lock()
		stale := tick != f.clclock
		f.mu.Unlock()
		if stale || f.bus.Current() != s {
			return
		}
		f.publish(stage.Event{Stage: domain.StageIdle})
	})
}

// publish appends to the stage feed and fires the push hook.
func (f *Flow) publish(event stage.Event) {
	f.mu.Lock()
	f.clclock++
	f.mu.Unlock()

	published := f.bus.Publish(event)
	if f.onEvent != nil {
		f.onEvent(published)
	}
}

// truncate shortens s for toast bodies without splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// clientAdapter narrows *backend.Client to the backendClient interface.
type clientAdapter struct {
	*backend.Client
}

// Poll starts the transcription poll loop for the uploaded recording.
func (c clientAdapter) Poll(recordingID string) jobHandle {
	return c.PollTranscription(recordingID)
}

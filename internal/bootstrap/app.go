// Package bootstrap wires configuration, the hotkey monitor, the recording
// flow, and the Wails desktop shell.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"push-to-type/internal/backend"
	"push-to-type/internal/config"
	"push-to-type/internal/diagnostics"
	"push-to-type/internal/domain"
	"push-to-type/internal/hotkey"
	"push-to-type/internal/inject"
	"push-to-type/internal/keytap"
	"push-to-type/internal/notify"
	"push-to-type/internal/record"
	"push-to-type/internal/stage"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.wav;*.mp3;*.m4a;*.flac;*.ogg;*.webm",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires settings, the hotkey monitor, the flow, and UI callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Diagnostics domain.DiagnosticReport

	assets   fs.FS
	checker  *diagnostics.Checker
	bus      *stage.Bus
	flow     *Flow
	monitor  *hotkey.Monitor
	notifier *notify.Notifier

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup checks.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewJSONStore(config.DefaultPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	notifier := notify.New(settings.Notifications)
	bus := stage.NewBus(1000)
	session := record.NewSession(record.NewMicrophone(), "")
	keeper := record.NewKeeper(filepath.Dir(config.DefaultPath()))
	client := newClient(settings)

	flow := NewFlow(clientAdapter{client}, session, keeper, bus, notifier, inject.Paste)
	monitor := hotkey.NewMonitor(keytap.New(), bindingsFromSettings(settings))

	return &App{
		Settings:    settings,
		Store:       store,
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		bus:         bus,
		flow:        flow,
		monitor:     monitor,
		notifier:    notifier,
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Push to Type",
		Width:       460,
		Height:      680,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the runtime context, hooks push events, and installs the
// global keyboard hook.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	a.flow.SetEventCallback(func(event stage.Event) {
		a.emit("stage:event", event)
	})

	if err := a.monitor.Start(); err != nil {
		slog.Error("keyboard hook unavailable", "err", err)
		// Without the hook there is nothing to listen to; the HUD shows a
		// permission prompt until the user restarts with access granted.
		a.bus.Publish(stage.Event{
			Stage:   domain.StageAwaitingPermission,
			Message: err.Error(),
		})
		a.emit("stage:event", stage.Event{Stage: domain.StageAwaitingPermission, Message: err.Error()})
		return
	}

	go a.consumeHotkeys()
}

// Shutdown uninstalls the hook and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.monitor.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = nil
}

// consumeHotkeys routes monitor events into the flow until the hook stops.
func (a *App) consumeHotkeys() {
	for event := range a.monitor.Events() {
		switch event.Type {
		case hotkey.EventRoleDown:
			a.flow.HandleRoleDown(event.Role)
		case hotkey.EventRoleUp:
			a.flow.HandleRoleUp(event.Role)
		case hotkey.EventCaptureFinished:
			a.persistCapturedBinding(event.Role, event.Binding)
		}
	}
}

// persistCapturedBinding saves a rebind result and tells the UI.
func (a *App) persistCapturedBinding(role domain.Role, b hotkey.Binding) {
	a.mu.Lock()
	if a.Settings.Bindings == nil {
		a.Settings.Bindings = make(map[domain.Role]domain.BindingConfig)
	}
	a.Settings.Bindings[role] = b.Config()
	settings := a.Settings
	a.mu.Unlock()

	if err := a.Store.Save(settings); err != nil {
		a.emit("binding:error", err.Error())
		return
	}
	a.emit("binding:captured", map[string]string{
		"role":    string(role),
		"display": b.String(),
	})
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then rewires the client,
// monitor bindings, and notifier, and refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	a.Diagnostics = a.checker.Run(normalized)
	a.mu.Unlock()

	a.flow.SetClient(clientAdapter{newClient(normalized)})
	a.notifier.SetEnabled(normalized.Notifications)
	for role, cfg := range normalized.Bindings {
		a.monitor.SetBinding(role, hotkey.FromConfig(cfg))
	}

	return normalized, nil
}

// GetBindings returns the display form of each role's hotkey.
func (a *App) GetBindings() map[string]string {
	out := make(map[string]string, len(domain.Roles))
	for _, role := range domain.Roles {
		if b, ok := a.monitor.Binding(role); ok {
			out[string(role)] = b.String()
		}
	}
	return out
}

// BeginCapture puts the monitor into rebind mode for the role. The result
// arrives later as a binding:captured push event.
func (a *App) BeginCapture(role string) error {
	r := domain.Role(role)
	for _, known := range domain.Roles {
		if r == known {
			a.monitor.BeginCapture(r)
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", role)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns the startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	report := a.Diagnostics
	a.mu.Unlock()

	return report, nil
}

// StageEvents returns all stage events with sequence greater than sinceSeq.
func (a *App) StageEvents(sinceSeq int64) []stage.Event {
	return a.bus.Since(sinceSeq)
}

// CurrentStage returns the live stage and its HUD heading.
func (a *App) CurrentStage() map[string]string {
	s := a.bus.Current()
	return map[string]string{
		"stage": string(s),
		"title": s.Title(),
	}
}

// CancelFlow aborts the running recording or poll loop, if any.
func (a *App) CancelFlow() {
	a.flow.CancelCurrent()
}

// RetryLastRecording re-uploads the most recent finished take.
func (a *App) RetryLastRecording() error {
	return a.flow.RetryLast()
}

// PickAudioFile opens a native file dialog for audio selection.
func (a *App) PickAudioFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio file",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// TranscribeFile uploads an already-recorded audio file and shows the
// transcription in the HUD.
func (a *App) TranscribeFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("audio path is empty")
	}
	a.flow.TranscribeFile(path)
	return nil
}

// emit pushes an event to the frontend when the runtime is live.
func (a *App) emit(name string, payload interface{}) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// runtimeContext returns the current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// newClient builds a backend client from the current settings.
func newClient(settings domain.Settings) *backend.Client {
	return backend.NewClient(
		settings.BackendBaseURL,
		settings.Token,
		time.Duration(settings.PollTimeoutSec)*time.Second,
	)
}

// bindingsFromSettings converts persisted bindings to monitor form.
func bindingsFromSettings(settings domain.Settings) map[domain.Role]hotkey.Binding {
	out := make(map[domain.Role]hotkey.Binding, len(settings.Bindings))
	for role, cfg := range settings.Bindings {
		out[role] = hotkey.FromConfig(cfg)
	}
	return out
}

// normalizeSettings trims user inputs and applies defaults for empty fields.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.BackendBaseURL = strings.TrimRight(strings.TrimSpace(settings.BackendBaseURL), "/")
	if settings.BackendBaseURL == "" {
		settings.BackendBaseURL = defaults.BackendBaseURL
	}
	settings.Token = strings.TrimSpace(settings.Token)
	if settings.PollTimeoutSec <= 0 {
		settings.PollTimeoutSec = defaults.PollTimeoutSec
	}
	if len(settings.Bindings) == 0 {
		settings.Bindings = defaults.Bindings
	}
	return settings
}

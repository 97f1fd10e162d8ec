package config

import (
	"os"
	"path/filepath"
	"testing"

	"push-to-type/internal/domain"
	"push-to-type/internal/hotkey"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.BackendBaseURL != "http://127.0.0.1:5001" {
		t.Fatalf("base url = %q, want local default", cfg.BackendBaseURL)
	}
	if cfg.PollTimeoutSec != 60 {
		t.Fatalf("poll timeout = %d, want 60", cfg.PollTimeoutSec)
	}
	if !cfg.Notifications {
		t.Fatal("expected notifications enabled by default")
	}
	for _, role := range domain.Roles {
		if _, ok := cfg.Bindings[role]; !ok {
			t.Fatalf("no default binding for role %q", role)
		}
	}
}

// TestDefaultBindingShapes pins the stock hotkeys.
func TestDefaultBindingShapes(t *testing.T) {
	bindings := DefaultBindings()

	cases := map[domain.Role]string{
		domain.RoleRecordAndSubmit: "Ctrl+V",
		domain.RoleRecordOnly:      "Ctrl+Shift+V",
		domain.RoleAsk:             "Ctrl+B",
	}
	for role, want := range cases {
		got := hotkey.FromConfig(bindings[role]).String()
		if got != want {
			t.Errorf("binding for %q = %q, want %q", role, got, want)
		}
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BackendBaseURL == "" {
		t.Fatal("expected default base url")
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := DefaultSettings()
	want.BackendBaseURL = "https://stt.example.com"
	want.Token = "abc"
	want.PollTimeoutSec = 90
	want.Bindings[domain.RoleAsk] = hotkey.Binding{KeyCode: hotkey.KeyB, Modifiers: hotkey.ModControl | hotkey.ModOption}.Config()

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BackendBaseURL != want.BackendBaseURL || got.Token != want.Token || got.PollTimeoutSec != want.PollTimeoutSec {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
	if got.Bindings[domain.RoleAsk] != want.Bindings[domain.RoleAsk] {
		t.Fatalf("ask binding = %+v, want %+v", got.Bindings[domain.RoleAsk], want.Bindings[domain.RoleAsk])
	}
}

// TestJSONStoreLoadBackfillsMissingBindings checks settings written by an
// older version still produce a full binding set.
func TestJSONStoreLoadBackfillsMissingBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	payload := `{"backendBaseUrl":"http://10.0.0.2:5001","bindings":{"ask":{"keyCode":66,"modifiers":3}}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.BackendBaseURL != "http://10.0.0.2:5001" {
		t.Fatalf("base url = %q, want persisted value", got.BackendBaseURL)
	}
	if got.Bindings[domain.RoleAsk].Modifiers != 3 {
		t.Fatalf("ask binding = %+v, want persisted value", got.Bindings[domain.RoleAsk])
	}
	defaults := DefaultBindings()
	if got.Bindings[domain.RoleRecordOnly] != defaults[domain.RoleRecordOnly] {
		t.Fatalf("record-only binding = %+v, want default", got.Bindings[domain.RoleRecordOnly])
	}
	if got.PollTimeoutSec != 60 {
		t.Fatalf("poll timeout = %d, want backfilled 60", got.PollTimeoutSec)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

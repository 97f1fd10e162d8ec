package record

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeCapture records the calls a Session makes against the device layer.
type fakeCapture struct {
	startErr error

	started []string
	stops   int
	aborts  int
}

func (f *fakeCapture) Start(path string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, path)
	return nil
}

func (f *fakeCapture) Stop() error  { f.stops++; return nil }
func (f *fakeCapture) Abort() error { f.aborts++; return nil }

func TestSessionBeginEnd(t *testing.T) {
	capture := &fakeCapture{}
	session := NewSession(capture, t.TempDir())

	path, err := session.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("take path = %q, want .wav suffix", path)
	}
	if !session.Active() {
		t.Error("session not active after Begin")
	}

	got, err := session.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if got != path {
		t.Errorf("End path = %q, want %q", got, path)
	}
	if session.Active() {
		t.Error("session still active after End")
	}
	if capture.stops != 1 {
		t.Errorf("stops = %d, want 1", capture.stops)
	}
}

func TestSessionBeginIdempotent(t *testing.T) {
	capture := &fakeCapture{}
	session := NewSession(capture, t.TempDir())

	first, _ := session.Begin()
	second, err := session.Begin()
	if err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	if second != first {
		t.Errorf("second Begin path = %q, want the live take %q", second, first)
	}
	if len(capture.started) != 1 {
		t.Errorf("device starts = %d, want 1", len(capture.started))
	}
}

func TestSessionEndWithoutBegin(t *testing.T) {
	session := NewSession(&fakeCapture{}, t.TempDir())
	if _, err := session.End(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("End error = %v, want ErrNotRecording", err)
	}
	if err := session.Cancel(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Cancel error = %v, want ErrNotRecording", err)
	}
}

func TestSessionEndAfterFailedBegin(t *testing.T) {
	capture := &fakeCapture{startErr: errors.New("no input device")}
	session := NewSession(capture, t.TempDir())

	if _, err := session.Begin(); err == nil {
		t.Fatal("Begin succeeded with a failing device")
	}
	if session.Active() {
		t.Error("session active after failed Begin")
	}
	if _, err := session.End(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("End error = %v, want ErrNotRecording", err)
	}
}

func TestSessionCancelDiscards(t *testing.T) {
	capture := &fakeCapture{}
	session := NewSession(capture, t.TempDir())

	if _, err := session.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := session.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if capture.aborts != 1 || capture.stops != 0 {
		t.Errorf("aborts/stops = %d/%d, want 1/0", capture.aborts, capture.stops)
	}
	if session.Active() {
		t.Error("session still active after Cancel")
	}
}

func TestSessionDistinctTakePaths(t *testing.T) {
	capture := &fakeCapture{}
	session := NewSession(capture, t.TempDir())

	first, _ := session.Begin()
	session.End()
	second, _ := session.Begin()
	if first == second {
		t.Errorf("consecutive takes share the path %q", first)
	}
}

func TestKeeper(t *testing.T) {
	dir := t.TempDir()
	keeper := NewKeeper(dir)

	if _, err := keeper.Last(); !errors.Is(err, ErrNoLastTake) {
		t.Errorf("Last on empty keeper = %v, want ErrNoLastTake", err)
	}

	src := filepath.Join(dir, "take.wav")
	if err := os.WriteFile(src, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := keeper.Keep(src); err != nil {
		t.Fatalf("Keep: %v", err)
	}
	os.Remove(src) // temp take is gone, the copy must survive

	path, err := keeper.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read kept take: %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Errorf("kept take = %q, want original bytes", data)
	}
}

func TestKeeperKeepRetainedFile(t *testing.T) {
	dir := t.TempDir()
	keeper := NewKeeper(dir)

	src := filepath.Join(dir, "take.wav")
	if err := os.WriteFile(src, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := keeper.Keep(src); err != nil {
		t.Fatalf("Keep: %v", err)
	}

	// Retrying the last take hands the retained file back to Keep; it must
	// survive intact, not get truncated by copying onto itself.
	path, err := keeper.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if err := keeper.Keep(path); err != nil {
		t.Fatalf("Keep retained file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read kept take: %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Errorf("retained take after self-keep = %q, want original bytes", data)
	}
}

//go:build windows

package keytap

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"push-to-type/internal/hotkey"
)

const (
	whKeyboardLL = 13
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012

	llkhfInjected = 0x10

	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
)

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	kernel32                = syscall.NewLazyDLL("kernel32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// Tap streams low-level keyboard events via a WH_KEYBOARD_LL hook. The hook
// runs on a dedicated locked OS thread; the event channel is buffered and the
// hook callback never blocks on it.
type Tap struct {
	mu       sync.Mutex
	events   chan hotkey.RawEvent
	threadID uint32
	running  bool
}

// New creates an inactive tap.
func New() *Tap {
	return &Tap{}
}

// Start installs the hook and returns the event feed. The returned error
// wraps ErrHookUnavailable when installation fails.
func (t *Tap) Start() (<-chan hotkey.RawEvent, error) {
	t.mu.Lock()
	if t.running {
		events := t.events
		t.mu.Unlock()
		return events, nil
	}
	t.events = make(chan hotkey.RawEvent, 256)
	t.running = true
	events := t.events
	t.mu.Unlock()

	errCh := make(chan error, 1)
	go t.hookLoop(errCh)

	select {
	case err := <-errCh:
		if err != nil {
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
			return nil, err
		}
		return events, nil
	case <-time.After(2 * time.Second):
		t.mu.Lock()
		t.running = false
		tid := t.threadID
		t.mu.Unlock()
		// The hook loop may still install after our deadline; unreachable
		// via Stop once running is cleared, so evict it here. A loop that
		// has not reached its own running check cleans up by itself.
		if tid != 0 {
			procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
		}
		return nil, fmt.Errorf("%w: hook thread did not start", ErrHookUnavailable)
	}
}

// Stop uninstalls the hook and closes the event feed. Idempotent.
func (t *Tap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	if t.threadID != 0 {
		procPostThreadMessageW.Call(uintptr(t.threadID), wmQuit, 0, 0)
	}
}

// hookLoop installs the hook and pumps messages until WM_QUIT. It owns one
// OS thread for its whole lifetime; the hook will not fire otherwise.
func (t *Tap) hookLoop(errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid, _, _ := procGetCurrentThreadID.Call()
	t.mu.Lock()
	t.threadID = uint32(tid)
	events := t.events
	t.mu.Unlock()

	callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
		if int32(nCode) < 0 {
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		}

		k := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		if k.flags&llkhfInjected == 0 {
			if ev, ok := translate(uint32(wParam), k.vkCode); ok {
				select {
				case events <- ev:
				default:
					// The consumer stalled; dropping beats delaying the
					// system-wide input path.
				}
			}
		}

		ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
		return ret
	})

	hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, callback, 0, 0)
	if hook == 0 {
		errCh <- fmt.Errorf("%w: SetWindowsHookEx: %v", ErrHookUnavailable, callErr)
		return
	}
	errCh <- nil

	// Start may have timed out while the hook was installing; do not pump
	// for an owner that already gave up.
	t.mu.Lock()
	abandoned := !t.running
	t.mu.Unlock()
	if abandoned {
		procUnhookWindowsHookEx.Call(hook)
		close(events)
		return
	}

	var msg struct {
		Hwnd    uintptr
		Message uint32
		WParam  uintptr
		LParam  uintptr
		Time    uint32
		PtX     int32
		PtY     int32
	}
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(hook)
	close(events)
}

// translate converts one hook message into a RawEvent. Modifier keys are
// reported as flags-changed events carrying the post-change modifier set.
func translate(msg, vk uint32) (hotkey.RawEvent, bool) {
	down := msg == wmKeyDown || msg == wmSysKeyDown
	up := msg == wmKeyUp || msg == wmSysKeyUp
	if !down && !up {
		return hotkey.RawEvent{}, false
	}

	code := uint16(vk)
	mods := currentModifiers()

	if hotkey.IsModifierKey(code) {
		return hotkey.RawEvent{Kind: hotkey.RawFlagsChanged, KeyCode: code, Modifiers: mods}, true
	}
	kind := hotkey.RawKeyUp
	if down {
		kind = hotkey.RawKeyDown
	}
	return hotkey.RawEvent{Kind: kind, KeyCode: code, Modifiers: mods}, true
}

// currentModifiers samples the live modifier state.
func currentModifiers() hotkey.Modifier {
	var mods hotkey.Modifier
	if keyHeld(vkControl) {
		mods |= hotkey.ModControl
	}
	if keyHeld(vkMenu) {
		mods |= hotkey.ModOption
	}
	if keyHeld(vkShift) {
		mods |= hotkey.ModShift
	}
	if keyHeld(vkLWin) || keyHeld(vkRWin) {
		mods |= hotkey.ModCommand
	}
	return mods
}

func keyHeld(vk uint32) bool {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return state&0x8000 != 0
}

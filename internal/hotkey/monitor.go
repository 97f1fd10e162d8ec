package hotkey

import (
	"fmt"
	"sync"

	"push-to-type/internal/domain"
)

// RawEventKind classifies events delivered by the OS keyboard hook.
type RawEventKind int

const (
	RawKeyDown RawEventKind = iota
	RawKeyUp
	RawFlagsChanged
)

// RawEvent is one low-level keyboard event: key code plus the full modifier
// set held at the instant the event fired.
type RawEvent struct {
	Kind      RawEventKind
	KeyCode   uint16
	Modifiers Modifier
}

// Source abstracts the system-wide keyboard hook. Start installs the hook
// and returns the event feed; a hook that cannot be installed (typically a
// missing permission) must return a non-nil error rather than an empty feed.
type Source interface {
	Start() (<-chan RawEvent, error)
	Stop()
}

// EventType enumerates the closed set of monitor outputs.
type EventType int

const (
	// EventRoleDown fires when a configured binding is pressed while no
	// other role is active.
	EventRoleDown EventType = iota
	// EventRoleUp fires when the active role's key or a required modifier
	// is released.
	EventRoleUp
	// EventCaptureFinished fires when a rebind gesture completes.
	EventCaptureFinished
)

// Event is one monitor output. Binding is set only for EventCaptureFinished.
type Event struct {
	Type    EventType
	Role    domain.Role
	Binding Binding
}

// captureState is the transient rebind sub-machine. It exists only between
// BeginCapture and the finishing key release; it is never persisted.
type captureState struct {
	target             domain.Role
	observedKeyCode    uint16
	observedValid      bool
	modifiersAtKeyDown Modifier
	keyReleased        bool
}

// Monitor matches raw keyboard events against the named binding set and
// drives the single active-role state machine. All outputs are emitted on
// one event channel; consumers never install callbacks.
type Monitor struct {
	source Source

	mu       sync.Mutex
	bindings map[domain.Role]Binding
	active   domain.Role // "" means no role is active
	capture  *captureState
	started  bool

	events chan Event
	done   chan struct{}
}

// NewMonitor creates a monitor over the given hook source and binding set.
// Roles missing from bindings simply never match.
func NewMonitor(source Source, bindings map[domain.Role]Binding) *Monitor {
	owned := make(map[domain.Role]Binding, len(bindings))
	for role, b := range bindings {
		owned[role] = b
	}

	return &Monitor{
		source:   source,
		bindings: owned,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// Events returns the monitor output channel. It is closed after Stop once
// the hook feed drains.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Start installs the keyboard hook and begins matching. A hook installation
// failure is returned to the caller, which is responsible for prompting for
// the missing permission.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	feed, err := m.source.Start()
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return fmt.Errorf("install keyboard hook: %w", err)
	}

	go m.run(feed)
	return nil
}

// Stop uninstalls the hook. Safe to call repeatedly and before Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.mu.Unlock()

	m.source.Stop()
	<-m.done
}

// Binding returns the current binding for a role.
func (m *Monitor) Binding(role domain.Role) (Binding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[role]
	return b, ok
}

// SetBinding replaces a role's binding with a new value.
func (m *Monitor) SetBinding(role domain.Role, b Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[role] = b
}

// BeginCapture enters capture mode for the role: the next non-modifier key
// gesture becomes the role's new binding. Normal matching is suppressed
// until the capture finishes.
func (m *Monitor) BeginCapture(role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capture = &captureState{target: role}
}

// run consumes the hook feed until the source closes it.
func (m *Monitor) run(feed <-chan RawEvent) {
	for ev := range feed {
		m.handle(ev)
	}
	close(m.events)
	close(m.done)
}

// handle advances the state machine by one raw event.
func (m *Monitor) handle(ev RawEvent) {
	m.mu.Lock()

	if m.capture != nil {
		out, finished := m.handleCapture(ev)
		m.mu.Unlock()
		if finished {
			m.events <- out
		}
		return
	}

	switch ev.Kind {
	case RawKeyDown:
		if m.active != "" {
			// Mutual exclusion: ignore other roles until release.
			m.mu.Unlock()
			return
		}
		for _, role := range domain.Roles {
			b, ok := m.bindings[role]
			if !ok || !b.Matches(ev.KeyCode, ev.Modifiers) {
				continue
			}
			m.active = role
			m.mu.Unlock()
			m.events <- Event{Type: EventRoleDown, Role: role}
			return
		}

	case RawKeyUp:
		if m.active != "" && ev.KeyCode == m.bindings[m.active].KeyCode {
			role := m.active
			m.active = ""
			m.mu.Unlock()
			m.events <- Event{Type: EventRoleUp, Role: role}
			return
		}

	case RawFlagsChanged:
		// Releasing a required modifier ends the hold like releasing the
		// main key would.
		if m.active != "" && !ev.Modifiers.Contains(m.bindings[m.active].Modifiers) {
			role := m.active
			m.active = ""
			m.mu.Unlock()
			m.events <- Event{Type: EventRoleUp, Role: role}
			return
		}
	}

	m.mu.Unlock()
}

// handleCapture advances the rebind sub-machine. Caller holds m.mu. The
// capture finalizes only after a non-modifier anchor key has been pressed,
// released, and the live modifier set reads empty.
func (m *Monitor) handleCapture(ev RawEvent) (Event, bool) {
	c := m.capture

	switch ev.Kind {
	case RawKeyDown:
		if !IsModifierKey(ev.KeyCode) {
			c.observedKeyCode = ev.KeyCode
			c.observedValid = true
			c.modifiersAtKeyDown = ev.Modifiers
			c.keyReleased = false
		}
	case RawKeyUp:
		if c.observedValid && ev.KeyCode == c.observedKeyCode {
			c.keyReleased = true
		}
	}

	if c.keyReleased && ev.Modifiers.IsEmpty() && c.observedValid {
		captured := Binding{KeyCode: c.observedKeyCode, Modifiers: c.modifiersAtKeyDown}
		role := c.target
		m.bindings[role] = captured
		m.capture = nil
		return Event{Type: EventCaptureFinished, Role: role, Binding: captured}, true
	}

	return Event{}, false
}

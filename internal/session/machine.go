package session

import (
	"errors"
	"fmt"

	"github.com/coincentrate/focusd/internal/domain"
)

// State describes the lifecycle state of a focus run.
type State int

const (
	// StateIdle means the run has not started yet.
	StateIdle State = iota
	// StateRunning means the countdown is advancing.
	StateRunning
	// StatePaused means the countdown is suspended.
	StatePaused
	// StateCompleted means the countdown reached zero. Terminal.
	StateCompleted
	// StateAbandoned means the user confirmed quitting. Terminal.
	StateAbandoned
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted indicates Start was called on a machine past Idle.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotStarted indicates an operation that requires a started run.
	ErrNotStarted = errors.New("session not started")
	// ErrTerminal indicates an operation on a finished run.
	ErrTerminal = errors.New("session already terminal")
	// ErrNotConfirmingQuit indicates a quit confirmation operation without a
	// pending quit request.
	ErrNotConfirmingQuit = errors.New("no quit confirmation pending")
	// ErrDurationOutOfRange indicates a duration outside the allowed bounds.
	ErrDurationOutOfRange = fmt.Errorf("duration must be between %d and %d minutes", domain.MinDurationMinutes, domain.MaxDurationMinutes)
)

// TerminalEvent is the single success/failure signal emitted once per run.
type TerminalEvent struct {
	Success bool
}

// Machine owns the countdown state of one focus run. It has no goroutines
// and no clock; callers drive it with Tick.
type Machine struct {
	state            State
	confirmingQuit   bool
	totalSeconds     int
	remainingSeconds int
}

// NewMachine returns an idle machine.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// Start initializes the countdown and enters Running.
func (m *Machine) Start(durationMinutes int) error {
	if m.state != StateIdle {
		return ErrAlreadyStarted
	}
	if durationMinutes < domain.MinDurationMinutes || durationMinutes > domain.MaxDurationMinutes {
		return ErrDurationOutOfRange
	}
	m.totalSeconds = durationMinutes * 60
	m.remainingSeconds = m.totalSeconds
	m.state = StateRunning
	return nil
}

// Tick advances the countdown by one second. It reports the terminal event
// when this tick completed the run. Ticks are no-ops while paused, while a
// quit confirmation is pending, and after a terminal transition.
func (m *Machine) Tick() (TerminalEvent, bool) {
	if m.state != StateRunning || m.confirmingQuit {
		return TerminalEvent{}, false
	}
	m.remainingSeconds--
	if m.remainingSeconds > 0 {
		return TerminalEvent{}, false
	}
	m.remainingSeconds = 0
	m.state = StateCompleted
	return TerminalEvent{Success: true}, true
}

// TogglePause flips between Running and Paused. It is a no-op in terminal
// states and rejects machines that never started.
func (m *Machine) TogglePause() error {
	switch m.state {
	case StateRunning:
		m.state = StatePaused
		return nil
	case StatePaused:
		m.state = StateRunning
		return nil
	case StateIdle:
		return ErrNotStarted
	default:
		return nil
	}
}

// RequestQuit enters the quit-confirmation sub-state. The countdown does not
// advance until the request is confirmed or cancelled.
func (m *Machine) RequestQuit() error {
	if m.state.IsTerminal() {
		return ErrTerminal
	}
	if m.state == StateIdle {
		return ErrNotStarted
	}
	m.confirmingQuit = true
	return nil
}

// ConfirmQuit abandons the run and reports the terminal event.
func (m *Machine) ConfirmQuit() (TerminalEvent, error) {
	if !m.confirmingQuit {
		return TerminalEvent{}, ErrNotConfirmingQuit
	}
	m.confirmingQuit = false
	m.state = StateAbandoned
	return TerminalEvent{Success: false}, nil
}

// CancelQuit returns to the prior running or paused state without side effects.
func (m *Machine) CancelQuit() error {
	if !m.confirmingQuit {
		return ErrNotConfirmingQuit
	}
	m.confirmingQuit = false
	return nil
}

// IsTerminal reports whether the state admits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAbandoned
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// ConfirmingQuit reports whether a quit confirmation is pending.
func (m *Machine) ConfirmingQuit() bool {
	return m.confirmingQuit
}

// Remaining returns the remaining seconds on the countdown.
func (m *Machine) Remaining() int {
	return m.remainingSeconds
}

// Total returns the full countdown length in seconds.
func (m *Machine) Total() int {
	return m.totalSeconds
}

// Progress returns the elapsed fraction of the countdown in [0,1]. It is a
// display metric only, never a settlement input.
func (m *Machine) Progress() float64 {
	if m.totalSeconds == 0 {
		return 0
	}
	return float64(m.totalSeconds-m.remainingSeconds) / float64(m.totalSeconds)
}

package session

import (
	"errors"
	"testing"
)

func startedMachine(t *testing.T, minutes int) *Machine {
	t.Helper()
	m := NewMachine()
	if err := m.Start(minutes); err != nil {
		t.Fatalf("start machine: %v", err)
	}
	return m
}

func TestStartInitializesCountdown(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 45)
	if m.State() != StateRunning {
		t.Fatalf("expected running state, got %s", m.State())
	}
	if m.Remaining() != 2700 {
		t.Fatalf("expected 2700 remaining seconds, got %d", m.Remaining())
	}
	if m.Progress() != 0 {
		t.Fatalf("expected zero progress, got %f", m.Progress())
	}
}

func TestStartRejectsBadDurationAndRestart(t *testing.T) {
	t.Parallel()

	m := NewMachine()
	if err := m.Start(4); !errors.Is(err, ErrDurationOutOfRange) {
		t.Fatalf("expected ErrDurationOutOfRange for 4 minutes, got %v", err)
	}
	if err := m.Start(121); !errors.Is(err, ErrDurationOutOfRange) {
		t.Fatalf("expected ErrDurationOutOfRange for 121 minutes, got %v", err)
	}
	if err := m.Start(25); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(25); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestCountdownCompletesAfterExactTicks(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 45)

	var events int
	for i := 0; i < 2700; i++ {
		if event, terminal := m.Tick(); terminal {
			events++
			if !event.Success {
				t.Fatal("expected success on countdown completion")
			}
			if i != 2699 {
				t.Fatalf("expected completion on tick 2700, got tick %d", i+1)
			}
		}
	}
	if events != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", events)
	}
	if m.State() != StateCompleted {
		t.Fatalf("expected completed state, got %s", m.State())
	}
	if m.Progress() != 1 {
		t.Fatalf("expected full progress, got %f", m.Progress())
	}
}

func TestTicksAfterCompletionAreNoOps(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 5)
	for i := 0; i < 300; i++ {
		m.Tick()
	}
	if m.State() != StateCompleted {
		t.Fatalf("expected completed state, got %s", m.State())
	}

	for i := 0; i < 10; i++ {
		if _, terminal := m.Tick(); terminal {
			t.Fatal("terminal event fired twice")
		}
	}
	if m.Remaining() != 0 {
		t.Fatalf("expected zero remaining after completion, got %d", m.Remaining())
	}
}

func TestTogglePauseFreezesCountdown(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 30)
	m.Tick()
	before := m.Remaining()

	if err := m.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if m.State() != StatePaused {
		t.Fatalf("expected paused state, got %s", m.State())
	}
	for i := 0; i < 50; i++ {
		m.Tick()
	}
	if m.Remaining() != before {
		t.Fatalf("paused tick changed remaining: %d -> %d", before, m.Remaining())
	}

	if err := m.TogglePause(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	m.Tick()
	if m.Remaining() != before-1 {
		t.Fatalf("expected countdown to resume, remaining %d", m.Remaining())
	}
}

func TestTogglePauseIsNoOpInTerminalStates(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 5)
	for i := 0; i < 300; i++ {
		m.Tick()
	}
	if err := m.TogglePause(); err != nil {
		t.Fatalf("expected terminal toggle to be a no-op, got %v", err)
	}
	if m.State() != StateCompleted {
		t.Fatalf("expected completed state, got %s", m.State())
	}
}

func TestQuitConfirmationFlow(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 30)
	m.Tick()
	before := m.Remaining()

	if err := m.RequestQuit(); err != nil {
		t.Fatalf("request quit: %v", err)
	}
	if !m.ConfirmingQuit() {
		t.Fatal("expected confirmation sub-state")
	}
	m.Tick()
	if m.Remaining() != before {
		t.Fatal("countdown advanced during quit confirmation")
	}

	if err := m.CancelQuit(); err != nil {
		t.Fatalf("cancel quit: %v", err)
	}
	if m.ConfirmingQuit() {
		t.Fatal("expected confirmation cleared after cancel")
	}
	if m.State() != StateRunning {
		t.Fatalf("expected running after cancel, got %s", m.State())
	}

	if err := m.RequestQuit(); err != nil {
		t.Fatalf("second request quit: %v", err)
	}
	event, err := m.ConfirmQuit()
	if err != nil {
		t.Fatalf("confirm quit: %v", err)
	}
	if event.Success {
		t.Fatal("expected failed terminal event on abandon")
	}
	if m.State() != StateAbandoned {
		t.Fatalf("expected abandoned state, got %s", m.State())
	}
}

func TestConfirmQuitRequiresPendingRequest(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 30)
	if _, err := m.ConfirmQuit(); !errors.Is(err, ErrNotConfirmingQuit) {
		t.Fatalf("expected ErrNotConfirmingQuit, got %v", err)
	}
	if err := m.CancelQuit(); !errors.Is(err, ErrNotConfirmingQuit) {
		t.Fatalf("expected ErrNotConfirmingQuit, got %v", err)
	}
}

func TestRequestQuitRejectsTerminalAndIdle(t *testing.T) {
	t.Parallel()

	idle := NewMachine()
	if err := idle.RequestQuit(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}

	m := startedMachine(t, 5)
	for i := 0; i < 300; i++ {
		m.Tick()
	}
	if err := m.RequestQuit(); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
}

func TestProgressStaysInRange(t *testing.T) {
	t.Parallel()

	m := startedMachine(t, 5)
	for i := 0; i < 400; i++ {
		p := m.Progress()
		if p < 0 || p > 1 {
			t.Fatalf("progress %f out of range at tick %d", p, i)
		}
		m.Tick()
	}
}

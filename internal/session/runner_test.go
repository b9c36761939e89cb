package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunnerEmitsTicksAndTerminal(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var ticks int
	terminal := make(chan TerminalEvent, 1)

	runner := NewRunner(NewMachine(), Events{
		OnTick: func(remaining int, progress float64) {
			mu.Lock()
			ticks++
			mu.Unlock()
		},
		OnTerminal: func(event TerminalEvent) {
			terminal <- event
		},
	}, time.Millisecond)

	// Shortest allowed run is 5 minutes; drive it at millisecond ticks.
	if err := runner.Start(context.Background(), 5); err != nil {
		t.Fatalf("start runner: %v", err)
	}

	select {
	case event := <-terminal:
		if !event.Success {
			t.Fatal("expected success terminal event")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal event")
	}

	<-runner.Done()
	mu.Lock()
	got := ticks
	mu.Unlock()
	if got == 0 {
		t.Fatal("expected tick callbacks before completion")
	}
}

func TestRunnerConfirmQuitEmitsFailureOnce(t *testing.T) {
	t.Parallel()

	terminals := make(chan TerminalEvent, 2)
	quitRequested := make(chan struct{}, 1)
	runner := NewRunner(NewMachine(), Events{
		OnTerminal:      func(event TerminalEvent) { terminals <- event },
		OnQuitRequested: func() { quitRequested <- struct{}{} },
	}, time.Hour) // ticker effectively frozen; quit path drives the run

	if err := runner.Start(context.Background(), 30); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	if err := runner.RequestQuit(); err != nil {
		t.Fatalf("request quit: %v", err)
	}
	select {
	case <-quitRequested:
	case <-time.After(time.Second):
		t.Fatal("expected quit requested callback")
	}
	if err := runner.ConfirmQuit(); err != nil {
		t.Fatalf("confirm quit: %v", err)
	}

	select {
	case event := <-terminals:
		if event.Success {
			t.Fatal("expected failure terminal event on abandon")
		}
	case <-time.After(time.Second):
		t.Fatal("expected terminal event")
	}
	select {
	case <-terminals:
		t.Fatal("terminal event emitted twice")
	case <-time.After(50 * time.Millisecond):
	}

	<-runner.Done()
	snapshot := runner.Snapshot()
	if snapshot.State != StateAbandoned {
		t.Fatalf("expected abandoned state, got %s", snapshot.State)
	}
}

func TestRunnerCancelQuitResumes(t *testing.T) {
	t.Parallel()

	quitCancelled := make(chan struct{}, 1)
	runner := NewRunner(NewMachine(), Events{
		OnQuitCancelled: func() { quitCancelled <- struct{}{} },
	}, time.Hour)

	if err := runner.Start(context.Background(), 30); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	if err := runner.RequestQuit(); err != nil {
		t.Fatalf("request quit: %v", err)
	}
	if err := runner.CancelQuit(); err != nil {
		t.Fatalf("cancel quit: %v", err)
	}
	select {
	case <-quitCancelled:
	case <-time.After(time.Second):
		t.Fatal("expected quit cancelled callback")
	}

	snapshot := runner.Snapshot()
	if snapshot.ConfirmingQuit {
		t.Fatal("expected confirmation cleared")
	}
	if snapshot.State != StateRunning {
		t.Fatalf("expected running state, got %s", snapshot.State)
	}
}

func TestRunnerStopCancelsWithoutTerminalEvent(t *testing.T) {
	t.Parallel()

	terminals := make(chan TerminalEvent, 1)
	runner := NewRunner(NewMachine(), Events{
		OnTerminal: func(event TerminalEvent) { terminals <- event },
	}, time.Millisecond)

	if err := runner.Start(context.Background(), 120); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	runner.Stop()

	select {
	case <-runner.Done():
	case <-time.After(time.Second):
		t.Fatal("ticker goroutine did not exit after stop")
	}
	select {
	case <-terminals:
		t.Fatal("teardown must not emit a terminal event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRunnerPauseFreezesRemaining(t *testing.T) {
	t.Parallel()

	runner := NewRunner(NewMachine(), Events{}, time.Millisecond)
	if err := runner.Start(context.Background(), 30); err != nil {
		t.Fatalf("start runner: %v", err)
	}
	if err := runner.TogglePause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	before := runner.Snapshot().RemainingSeconds
	time.Sleep(20 * time.Millisecond)
	after := runner.Snapshot().RemainingSeconds
	if after != before {
		t.Fatalf("paused countdown advanced: %d -> %d", before, after)
	}
	runner.Stop()
	<-runner.Done()
}

package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is the wall-clock period between countdown ticks.
const DefaultTickInterval = time.Second

// Events carries the callbacks a Runner invokes as the run progresses. Nil
// callbacks are skipped. Callbacks run on the runner's goroutine for ticker
// ticks and on the caller's goroutine for quit operations; they must not call
// back into the Runner.
type Events struct {
	OnTick          func(remainingSeconds int, progress float64)
	OnTerminal      func(event TerminalEvent)
	OnQuitRequested func()
	OnQuitCancelled func()
}

// Runner drives one Machine in real time. All operations are safe for
// concurrent use.
type Runner struct {
	mu       sync.Mutex
	machine  *Machine
	events   Events
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	emitted  bool
}

// NewRunner wraps a machine with a ticker loop. A non-positive interval
// falls back to DefaultTickInterval.
func NewRunner(machine *Machine, events Events, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Runner{
		machine:  machine,
		events:   events,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the countdown and launches the ticker goroutine. The ticker
// stops when the run reaches a terminal state or ctx is cancelled.
func (r *Runner) Start(ctx context.Context, durationMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.machine.Start(durationMinutes); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.loop(runCtx)
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.tick() {
				return
			}
		}
	}
}

// tick advances the machine once and reports whether the run finished.
func (r *Runner) tick() bool {
	r.mu.Lock()
	event, terminal := r.machine.Tick()
	remaining := r.machine.Remaining()
	progress := r.machine.Progress()
	var fire func()
	if terminal && !r.emitted {
		r.emitted = true
		if r.events.OnTerminal != nil {
			fire = func() { r.events.OnTerminal(event) }
		}
	}
	skipTick := (r.machine.State() != StateRunning || r.machine.ConfirmingQuit()) && !terminal
	r.mu.Unlock()

	if terminal {
		if fire != nil {
			fire()
		}
		return true
	}
	if !skipTick && r.events.OnTick != nil {
		r.events.OnTick(remaining, progress)
	}
	return false
}

// TogglePause flips between running and paused without touching the countdown.
func (r *Runner) TogglePause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.TogglePause()
}

// RequestQuit freezes the countdown pending confirmation.
func (r *Runner) RequestQuit() error {
	r.mu.Lock()
	err := r.machine.RequestQuit()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if r.events.OnQuitRequested != nil {
		r.events.OnQuitRequested()
	}
	return nil
}

// ConfirmQuit abandons the run, stops the ticker, and emits the terminal
// event on the calling goroutine.
func (r *Runner) ConfirmQuit() error {
	r.mu.Lock()
	event, err := r.machine.ConfirmQuit()
	var fire func()
	if err == nil && !r.emitted {
		r.emitted = true
		if r.events.OnTerminal != nil {
			fire = func() { r.events.OnTerminal(event) }
		}
	}
	cancel := r.cancel
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if cancel != nil {
		cancel()
	}
	if fire != nil {
		fire()
	}
	return nil
}

// CancelQuit resumes from the confirmation sub-state without side effects.
func (r *Runner) CancelQuit() error {
	r.mu.Lock()
	err := r.machine.CancelQuit()
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if r.events.OnQuitCancelled != nil {
		r.events.OnQuitCancelled()
	}
	return nil
}

// Stop cancels the ticker without emitting a terminal event. It is used on
// component teardown, not as a quit path.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed once the ticker goroutine has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Snapshot is a point-in-time view of the run for display.
type Snapshot struct {
	State            State
	ConfirmingQuit   bool
	RemainingSeconds int
	TotalSeconds     int
	Progress         float64
}

// Snapshot returns the current run state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		State:            r.machine.State(),
		ConfirmingQuit:   r.machine.ConfirmingQuit(),
		RemainingSeconds: r.machine.Remaining(),
		TotalSeconds:     r.machine.Total(),
		Progress:         r.machine.Progress(),
	}
}

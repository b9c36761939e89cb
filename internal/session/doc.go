// Package session implements the lifecycle of one timed focus run.
//
// The Machine is a pure state machine driven by one-second ticks:
//
//	Idle -> Running <-> Paused -> Completed | Abandoned
//
// Requesting to quit enters a confirmation sub-state that freezes the
// countdown without terminating the run; confirming transitions to Abandoned,
// cancelling returns to the prior running or paused state.
//
// Completed and Abandoned are terminal: the machine emits exactly one
// terminal event per run and every later tick is a no-op.
//
// The Runner owns the ticker goroutine that drives a Machine in real time and
// fans state changes out to caller-supplied event callbacks.
package session

// Package engine orchestrates the focus economy: it owns the live session
// runners, routes task and profile operations to storage, and applies
// settlement when a run reaches a terminal state. At most one session runs
// per owner at a time.
package engine

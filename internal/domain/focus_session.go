package domain

import "time"

// FocusSession is an immutable audit record of one timer run. It is created
// exactly once per terminal session transition and never mutated afterwards.
type FocusSession struct {
	ID              string
	OwnerID         string
	TaskID          string
	DurationMinutes int
	CoinsEarned     int // 0 on failure
	XPEarned        int // 0 on failure
	Completed       bool
	StartedAt       time.Time
	CompletedAt     time.Time
}

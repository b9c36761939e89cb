package storage

import (
	"context"
	"errors"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with current record state.
	ErrConflict = errors.New("record conflict")
	// ErrInsufficientCoins indicates a bid reservation that exceeds the
	// owner's balance at write time.
	ErrInsufficientCoins = errors.New("insufficient daily coins for bid")
)

// SettlementWrite is the atomic three-record write produced by one terminal
// session event. A reader must never observe the task as terminal while the
// profile still reflects the pre-settlement balance.
type SettlementWrite struct {
	Profile     domain.Profile
	TaskID      string
	TaskStatus  domain.TaskStatus
	CompletedAt time.Time
	Session     domain.FocusSession
}

// ProfileStore persists user economic state.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile domain.Profile) error
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, profile domain.Profile) error
}

// TaskStore persists staked tasks. CreateTaskWithReservation inserts the
// task and deducts its bid from the owner's daily coins in one transaction,
// failing with ErrInsufficientCoins when the balance no longer covers the bid.
type TaskStore interface {
	CreateTaskWithReservation(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListTasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status domain.TaskStatus, completedAt *time.Time) error
	DeleteTask(ctx context.Context, id string) error
}

// SessionStore persists the append-only focus session log.
type SessionStore interface {
	InsertFocusSession(ctx context.Context, record domain.FocusSession) error
	ListSessionsByOwner(ctx context.Context, ownerID string) ([]domain.FocusSession, error)
}

// SettlementStore applies the three settlement writes atomically.
type SettlementStore interface {
	ApplySettlement(ctx context.Context, write SettlementWrite) error
}

// Store is the full persistence facade consumed by the engine.
type Store interface {
	ProfileStore
	TaskStore
	SessionStore
	SettlementStore
	Close() error
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coincentrate/focusd/internal/platform/id"
)

// Category classifies what kind of work a task represents.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategoryFitness  Category = "fitness"
	CategoryPersonal Category = "personal"
	CategoryCreative Category = "creative"
	CategoryOther    Category = "other"
)

// IsValid reports whether the category is one of the supported values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategoryStudy, CategoryFitness, CategoryPersonal, CategoryCreative, CategoryOther:
		return true
	default:
		return false
	}
}

// TaskStatus describes the lifecycle state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is waiting for a focus session.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusActive indicates a focus session is running against the task.
	TaskStatusActive TaskStatus = "active"
	// TaskStatusCompleted indicates the session finished successfully. Terminal.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the session was abandoned. Terminal.
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Bid and duration bounds offered at task creation.
const (
	MinCoinBid         = 5
	MaxCoinBid         = 50
	MinDurationMinutes = 5
	MaxDurationMinutes = 120
)

var (
	// ErrEmptyOwnerID indicates a missing owner profile ID.
	ErrEmptyOwnerID = errors.New("owner id is required")
	// ErrEmptyTitle indicates a missing task title.
	ErrEmptyTitle = errors.New("task title is required")
	// ErrInvalidCategory indicates an unsupported task category.
	ErrInvalidCategory = errors.New("task category is invalid")
	// ErrDurationOutOfRange indicates a duration outside the allowed bounds.
	ErrDurationOutOfRange = fmt.Errorf("duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes)
	// ErrBidOutOfRange indicates a coin bid outside the allowed bounds.
	ErrBidOutOfRange = fmt.Errorf("coin bid must be between %d and %d", MinCoinBid, MaxCoinBid)
	// ErrBidExceedsBalance indicates a bid larger than the owner's available coins.
	ErrBidExceedsBalance = errors.New("coin bid exceeds available daily coins")
)

// Task is a staked bid: a self-declared unit of work with focus coins riding
// on its completion.
type Task struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string // optional
	Category        Category
	DurationMinutes int
	CoinBid         int
	Status          TaskStatus
	CreatedAt       time.Time
	CompletedAt     *time.Time // nil until a terminal transition
}

// CreateTaskInput describes the metadata needed to create a task.
type CreateTaskInput struct {
	OwnerID         string
	Title           string
	Description     string
	Category        Category
	DurationMinutes int
	CoinBid         int
}

// CreateTask validates input against the owner's balance and builds a pending
// task with a generated ID. It does not persist anything; the caller reserves
// the bid and stores the task atomically.
func CreateTask(input CreateTaskInput, profile Profile, now func() time.Time, idGenerator func() (string, error)) (Task, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateTaskInput(input)
	if err != nil {
		return Task{}, err
	}
	if normalized.CoinBid > profile.DailyCoins {
		return Task{}, ErrBidExceedsBalance
	}

	taskID, err := idGenerator()
	if err != nil {
		return Task{}, fmt.Errorf("generate task id: %w", err)
	}

	return Task{
		ID:              taskID,
		OwnerID:         normalized.OwnerID,
		Title:           normalized.Title,
		Description:     normalized.Description,
		Category:        normalized.Category,
		DurationMinutes: normalized.DurationMinutes,
		CoinBid:         normalized.CoinBid,
		Status:          TaskStatusPending,
		CreatedAt:       now().UTC(),
	}, nil
}

// NormalizeCreateTaskInput trims and validates task input metadata.
func NormalizeCreateTaskInput(input CreateTaskInput) (CreateTaskInput, error) {
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	if input.OwnerID == "" {
		return CreateTaskInput{}, ErrEmptyOwnerID
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateTaskInput{}, ErrEmptyTitle
	}
	input.Description = strings.TrimSpace(input.Description)
	if input.Category == "" {
		input.Category = CategoryOther
	}
	if !input.Category.IsValid() {
		return CreateTaskInput{}, ErrInvalidCategory
	}
	if input.DurationMinutes < MinDurationMinutes || input.DurationMinutes > MaxDurationMinutes {
		return CreateTaskInput{}, ErrDurationOutOfRange
	}
	if input.CoinBid < MinCoinBid || input.CoinBid > MaxCoinBid {
		return CreateTaskInput{}, ErrBidOutOfRange
	}
	return input, nil
}

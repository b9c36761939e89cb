package http

import "time"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProfileResponse is a profile with its derived level title.
type ProfileResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username,omitempty"`
	DailyCoins    int       `json:"daily_coins"`
	TotalXP       int       `json:"total_xp"`
	Level         int       `json:"level"`
	LevelTitle    string    `json:"level_title"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateTaskRequest is the payload for POST /v1/tasks.
type CreateTaskRequest struct {
	OwnerID         string `json:"owner_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	CoinBid         int    `json:"coin_bid"`
}

// TaskResponse is one staked task.
type TaskResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category"`
	DurationMinutes int        `json:"duration_minutes"`
	CoinBid         int        `json:"coin_bid"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// ListTasksResponse wraps the owner's task list.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// StartSessionRequest is the payload for POST /v1/sessions.
type StartSessionRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// SessionResponse is a snapshot of one live run.
type SessionResponse struct {
	TaskID           string    `json:"task_id"`
	OwnerID          string    `json:"owner_id"`
	State            string    `json:"state"`
	ConfirmingQuit   bool      `json:"confirming_quit"`
	RemainingSeconds int       `json:"remaining_seconds"`
	TotalSeconds     int       `json:"total_seconds"`
	Progress         float64   `json:"progress"`
	StartedAt        time.Time `json:"started_at"`
}

// AnalyticsResponse is the aggregated session history summary.
type AnalyticsResponse struct {
	TotalSessions   int `json:"total_sessions"`
	TotalMinutes    int `json:"total_minutes"`
	SuccessRate     int `json:"success_rate"`
	ThisWeekMinutes int `json:"this_week_minutes"`
}

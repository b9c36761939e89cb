package domain

import "time"

// Profile is the durable economic state of one user.
type Profile struct {
	ID            string
	Username      string // optional
	DailyCoins    int
	TotalXP       int
	Level         int
	CurrentStreak int
	BestStreak    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Package progression maps stored levels to display titles and aggregates
// focus session history into analytics summaries.
//
// Aggregation is read-only and recomputed from the full session log on each
// request; no incremental state is kept. How XP maps to a level is not owned
// here: the level is read as stored on the profile.
package progression

import (
	"math"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
)

// WeekWindow is the lookback window for the weekly minutes aggregate.
const WeekWindow = 7 * 24 * time.Hour

// LevelTitle returns the display title for a profile level.
func LevelTitle(level int) string {
	switch {
	case level < 5:
		return "Focus Novice"
	case level < 10:
		return "Time Apprentice"
	case level < 20:
		return "Focus Warrior"
	case level < 30:
		return "Time Strategist"
	default:
		return "Focus Master"
	}
}

// Summary aggregates a user's full focus session history.
type Summary struct {
	TotalSessions   int
	TotalMinutes    int
	SuccessRate     int // rounded percentage, 0 when there is no data
	ThisWeekMinutes int
}

// Summarize computes analytics over the complete session log.
func Summarize(sessions []domain.FocusSession, now time.Time) Summary {
	summary := Summary{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return summary
	}

	weekStart := now.Add(-WeekWindow)
	completed := 0
	for _, s := range sessions {
		summary.TotalMinutes += s.DurationMinutes
		if s.Completed {
			completed++
		}
		if !s.StartedAt.Before(weekStart) {
			summary.ThisWeekMinutes += s.DurationMinutes
		}
	}
	summary.SuccessRate = int(math.Round(100 * float64(completed) / float64(len(sessions))))
	return summary
}

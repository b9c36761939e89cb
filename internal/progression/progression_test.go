package progression

import (
	"testing"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
)

func TestLevelTitleSteps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level int
		want  string
	}{
		{1, "Focus Novice"},
		{4, "Focus Novice"},
		{5, "Time Apprentice"},
		{9, "Time Apprentice"},
		{10, "Focus Warrior"},
		{19, "Focus Warrior"},
		{20, "Time Strategist"},
		{29, "Time Strategist"},
		{30, "Focus Master"},
		{99, "Focus Master"},
	}
	for _, tc := range cases {
		if got := LevelTitle(tc.level); got != tc.want {
			t.Fatalf("level %d: expected %q, got %q", tc.level, tc.want, got)
		}
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	t.Parallel()

	summary := Summarize(nil, time.Now())
	if summary.TotalSessions != 0 || summary.TotalMinutes != 0 || summary.SuccessRate != 0 || summary.ThisWeekMinutes != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
}

func TestSummarizeAggregates(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	sessions := []domain.FocusSession{
		{DurationMinutes: 30, Completed: true, StartedAt: now.Add(-2 * 24 * time.Hour)},
		{DurationMinutes: 20, Completed: false, StartedAt: now.Add(-10 * 24 * time.Hour)},
	}

	summary := Summarize(sessions, now)
	if summary.TotalSessions != 2 {
		t.Fatalf("expected 2 sessions, got %d", summary.TotalSessions)
	}
	if summary.TotalMinutes != 50 {
		t.Fatalf("expected 50 minutes, got %d", summary.TotalMinutes)
	}
	if summary.SuccessRate != 50 {
		t.Fatalf("expected 50%% success rate, got %d", summary.SuccessRate)
	}
	if summary.ThisWeekMinutes != 30 {
		t.Fatalf("expected 30 weekly minutes, got %d", summary.ThisWeekMinutes)
	}
}

func TestSummarizeRoundsSuccessRate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	sessions := []domain.FocusSession{
		{DurationMinutes: 10, Completed: true, StartedAt: now},
		{DurationMinutes: 10, Completed: true, StartedAt: now},
		{DurationMinutes: 10, Completed: false, StartedAt: now},
	}
	if got := Summarize(sessions, now).SuccessRate; got != 67 {
		t.Fatalf("expected rounded 67, got %d", got)
	}
}

func TestSummarizeWeekBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	sessions := []domain.FocusSession{
		{DurationMinutes: 25, Completed: true, StartedAt: now.Add(-WeekWindow)},
	}
	if got := Summarize(sessions, now).ThisWeekMinutes; got != 25 {
		t.Fatalf("expected boundary session counted, got %d", got)
	}
}

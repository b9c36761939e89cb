// Package economy computes the coin, XP, and streak consequences of a focus
// session outcome. Settlement is a pure function of the task's bid and
// duration, the outcome, and the profile's prior state; persistence of the
// resulting writes is the caller's concern.
package economy

import (
	"errors"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
)

// Reward and penalty multipliers. A won bid pays out double; a lost bid
// forfeits half, rounded down.
const (
	CoinRewardMultiplier = 2
	XPPerMinute          = 2
	CoinPenaltyDivisor   = 2
)

// ErrTaskNotSettleable indicates settlement was invoked for a task that is
// already terminal. This is a caller bug, not a user error.
var ErrTaskNotSettleable = errors.New("task is not in a settleable state")

// Settlement is the full consequence of one terminal session event: the
// profile's next state, the task's terminal status, and the immutable session
// record to append. CoinsDelta and XPDelta are the signed changes reported to
// the caller.
type Settlement struct {
	Profile    domain.Profile
	TaskStatus domain.TaskStatus
	Session    domain.FocusSession
	CoinsDelta int
	XPDelta    int
}

// Settle computes the economic consequence of a session outcome. The session
// record's ID is left empty for the caller to assign.
func Settle(task domain.Task, profile domain.Profile, success bool, startedAt, completedAt time.Time) (Settlement, error) {
	if task.Status.IsTerminal() {
		return Settlement{}, ErrTaskNotSettleable
	}

	next := profile
	var status domain.TaskStatus
	var coinsDelta, xpDelta int

	if success {
		coinsDelta = task.CoinBid * CoinRewardMultiplier
		xpDelta = task.DurationMinutes * XPPerMinute
		next.DailyCoins += coinsDelta
		next.TotalXP += xpDelta
		next.CurrentStreak++
		if next.CurrentStreak > next.BestStreak {
			next.BestStreak = next.CurrentStreak
		}
		status = domain.TaskStatusCompleted
	} else {
		lost := task.CoinBid / CoinPenaltyDivisor
		if lost > next.DailyCoins {
			lost = next.DailyCoins
		}
		coinsDelta = -lost
		next.DailyCoins -= lost
		next.CurrentStreak = 0
		status = domain.TaskStatusFailed
	}
	next.UpdatedAt = completedAt.UTC()

	record := domain.FocusSession{
		OwnerID:         task.OwnerID,
		TaskID:          task.ID,
		DurationMinutes: task.DurationMinutes,
		Completed:       success,
		StartedAt:       startedAt.UTC(),
		CompletedAt:     completedAt.UTC(),
	}
	if success {
		record.CoinsEarned = coinsDelta
		record.XPEarned = xpDelta
	}

	return Settlement{
		Profile:    next,
		TaskStatus: status,
		Session:    record,
		CoinsDelta: coinsDelta,
		XPDelta:    xpDelta,
	}, nil
}

package habit

import (
	"math"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

type Type string

const (
	TypePositive Type = "positive"
	TypeNegative Type = "negative"
)

func (t Type) IsValid() bool {
	return t == TypePositive || t == TypeNegative
}

type Intent string

const (
	IntentSuccess Intent = "success"
	IntentFailure Intent = "failure"
)

func (i Intent) IsValid() bool {
	return i == IntentSuccess || i == IntentFailure
}

// Milestone records a streak threshold the habit has crossed. Once unlocked
// a milestone is never removed, even when the streak later resets.
type Milestone struct {
	DayCount   int       `json:"day_count"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

type Habit struct {
	ID              model.TaskID     `json:"id"`
	UserID          model.UserID     `json:"user_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Type            Type             `json:"type"`
	Difficulty      model.Difficulty `json:"difficulty"`
	CurrentStreak   int              `json:"current_streak"`
	BestStreak      int              `json:"best_streak"`
	Milestones      []Milestone      `json:"milestones"`
	LastTriggeredAt *time.Time       `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (h Habit) HasMilestone(day int) bool {
	for _, m := range h.Milestones {
		if m.DayCount == day {
			return true
		}
	}
	return false
}

type TriggerResult struct {
	Effect        stats.Effect
	NewStreak     int
	NewBestStreak int
	StreakReset   bool
	Milestone     *MilestoneAward
}

// BuildTrigger resolves one trigger of the four-way type/intent table into a
// reward or penalty vector plus the streak update. It is pure: the caller
// applies the effect through the ledger and commits the habit update.
//
//	positive/success  performed the good habit   reward, streak +1
//	positive/failure  skipped the good habit     hp penalty, streak reset
//	negative/success  resisted the bad habit     reward, streak +1
//	negative/failure  indulged the bad habit     scaled hp penalty, streak reset
func BuildTrigger(bal config.Balance, h Habit, intent Intent) TriggerResult {
	if intent == IntentFailure {
		hp := bal.HabitFailureHP
		if h.Type == TypeNegative {
			hp *= bal.HabitIndulgeFactor
		}
		return TriggerResult{
			Effect:        stats.Effect{HP: -hp},
			NewStreak:     0,
			NewBestStreak: h.BestStreak,
			StreakReset:   true,
		}
	}

	newStreak := h.CurrentStreak + 1
	best := h.BestStreak
	if newStreak > best {
		best = newStreak
	}

	diffMult := bal.HabitDifficultyMult[h.Difficulty]
	if diffMult == 0 {
		diffMult = 1
	}
	mult := diffMult * streakMultiplier(bal, newStreak)

	effect := stats.Effect{
		XP:   roundToInt(float64(bal.HabitXPBase) * mult),
		Gold: roundToInt(float64(bal.HabitGoldBase) * mult),
	}

	award := CheckMilestone(bal, h, newStreak)
	if award != nil {
		effect = effect.Add(stats.Effect{XP: award.XP, Gold: award.Gold})
	}

	return TriggerResult{
		Effect:        effect,
		NewStreak:     newStreak,
		NewBestStreak: best,
		Milestone:     award,
	}
}

// streakMultiplier grows linearly with the streak and saturates at the cap.
func streakMultiplier(bal config.Balance, streak int) float64 {
	m := 1 + bal.StreakBonusPerDay*float64(streak)
	if m > bal.StreakBonusCap {
		return bal.StreakBonusCap
	}
	return m
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}

package habit

import "github.com/rohitkumar-vc/lifequest-backend/internal/config"

type MilestoneAward struct {
	DayCount int `json:"day_count"`
	XP       int `json:"xp"`
	Gold     int `json:"gold"`
}

// CheckMilestone decides whether the streak has just landed on a threshold
// the habit has not unlocked before. Equality, not crossing: a streak that
// jumps past a threshold (impossible with +1 increments) or re-reaches one
// after a reset grants nothing the second time.
func CheckMilestone(bal config.Balance, h Habit, streak int) *MilestoneAward {
	for _, th := range bal.MilestoneThresholds {
		if streak != th {
			continue
		}
		if h.HasMilestone(th) {
			return nil
		}
		mult := bal.HabitDifficultyMult[h.Difficulty]
		if mult == 0 {
			mult = 1
		}
		return &MilestoneAward{
			DayCount: th,
			XP:       roundToInt(float64(th*bal.MilestoneXPPerDay) * mult),
			Gold:     roundToInt(float64(th*bal.MilestoneGoldPerDay) * mult),
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

// Balance holds every tunable game constant. It is built once at startup and
// passed to the engine components explicitly; nothing reads these values from
// ambient state.
type Balance struct {
	// Leveling. Index 0 is the XP needed to go from level 1 to 2. Levels past
	// the end of the table reuse the last entry.
	LevelXPThresholds []int `yaml:"level_xp_thresholds"`

	HPMax int `yaml:"hp_max"`

	// Todos
	TodoRewardGold        int                      `yaml:"todo_reward_gold"`
	TodoRewardXP          int                      `yaml:"todo_reward_xp"`
	TodoDifficultyMult    map[model.Difficulty]int `yaml:"todo_difficulty_mult"`
	TodoRenewalFeePercent float64                  `yaml:"todo_renewal_fee_percent"`
	TodoOverdueFactor     int                      `yaml:"todo_overdue_factor"`

	// Dailies
	DailyRewardGold int `yaml:"daily_reward_gold"`
	DailyRewardXP   int `yaml:"daily_reward_xp"`

	// Habit triggers
	HabitXPBase         int                          `yaml:"habit_xp_base"`
	HabitGoldBase       int                          `yaml:"habit_gold_base"`
	HabitDifficultyMult map[model.Difficulty]float64 `yaml:"habit_difficulty_mult"`
	HabitFailureHP      int                          `yaml:"habit_failure_hp"`
	HabitIndulgeFactor  int                          `yaml:"habit_indulge_factor"`

	// Streak reward scaling: 1 + StreakBonusPerDay*streak, capped at StreakBonusCap.
	StreakBonusPerDay float64 `yaml:"streak_bonus_per_day"`
	StreakBonusCap    float64 `yaml:"streak_bonus_cap"`

	// Milestones
	MilestoneThresholds []int `yaml:"milestone_thresholds"`
	MilestoneXPPerDay   int   `yaml:"milestone_xp_per_day"`
	MilestoneGoldPerDay int   `yaml:"milestone_gold_per_day"`

	// Day-rollover HP penalty for habits missed the previous day.
	MissedHabitHP map[model.Difficulty]int `yaml:"missed_habit_hp"`
}

// Default returns the stock balance configuration.
func Default() Balance {
	return Balance{
		LevelXPThresholds: []int{100, 300, 600, 1000, 1500, 2100, 2800, 3600, 4500, 5500},
		HPMax:             100,

		TodoRewardGold: 10,
		TodoRewardXP:   20,
		TodoDifficultyMult: map[model.Difficulty]int{
			model.DifficultyEasy:   1,
			model.DifficultyMedium: 2,
			model.DifficultyHard:   4,
		},
		TodoRenewalFeePercent: 0.10,
		TodoOverdueFactor:     2,

		DailyRewardGold: 10,
		DailyRewardXP:   20,

		HabitXPBase:   10,
		HabitGoldBase: 5,
		HabitDifficultyMult: map[model.Difficulty]float64{
			model.DifficultyEasy:   1.0,
			model.DifficultyMedium: 1.5,
			model.DifficultyHard:   2.0,
		},
		HabitFailureHP:     10,
		HabitIndulgeFactor: 2,

		StreakBonusPerDay: 0.05,
		StreakBonusCap:    2.0,

		MilestoneThresholds: []int{7, 21, 30, 66},
		MilestoneXPPerDay:   5,
		MilestoneGoldPerDay: 2,

		MissedHabitHP: map[model.Difficulty]int{
			model.DifficultyEasy:   5,
			model.DifficultyMedium: 10,
			model.DifficultyHard:   20,
		},
	}
}

// LoadBalance reads a YAML override file on top of the defaults.
func LoadBalance(path string) (Balance, error) {
	bal := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, err
	}
	if err := yaml.Unmarshal(b, &bal); err != nil {
		return Balance{}, fmt.Errorf("parse balance file: %w", err)
	}
	if err := bal.Validate(); err != nil {
		return Balance{}, err
	}
	return bal, nil
}

func (b Balance) Validate() error {
	if len(b.LevelXPThresholds) == 0 {
		return fmt.Errorf("balance: level_xp_thresholds must not be empty")
	}
	for i, v := range b.LevelXPThresholds {
		if v <= 0 {
			return fmt.Errorf("balance: level_xp_thresholds[%d] must be positive", i)
		}
	}
	if b.HPMax <= 0 {
		return fmt.Errorf("balance: hp_max must be positive")
	}
	if b.TodoRenewalFeePercent < 0 || b.TodoRenewalFeePercent > 1 {
		return fmt.Errorf("balance: todo_renewal_fee_percent must be in [0,1]")
	}
	if b.StreakBonusCap < 1 {
		return fmt.Errorf("balance: streak_bonus_cap must be >= 1")
	}
	prev := 0
	for i, th := range b.MilestoneThresholds {
		if th <= prev {
			return fmt.Errorf("balance: milestone_thresholds[%d] must be increasing", i)
		}
		prev = th
	}
	return nil
}

package habit

import (
	"testing"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

func TestBuildTriggerSuccess(t *testing.T) {
	bal := config.Default()
	h := Habit{Type: TypePositive, Difficulty: model.DifficultyEasy, CurrentStreak: 0, BestStreak: 0}

	res := BuildTrigger(bal, h, IntentSuccess)

	if res.NewStreak != 1 {
		t.Fatalf("NewStreak = %d, want 1", res.NewStreak)
	}
	if res.NewBestStreak != 1 {
		t.Fatalf("NewBestStreak = %d, want 1", res.NewBestStreak)
	}
	if res.StreakReset {
		t.Fatalf("StreakReset = true, want false")
	}
	// streak multiplier for streak 1 is 1.05
	want := stats.Effect{XP: 11, Gold: 5}
	if res.Effect != want {
		t.Fatalf("Effect = %+v, want %+v", res.Effect, want)
	}
}

func TestBuildTriggerFailure(t *testing.T) {
	bal := config.Default()
	cases := []struct {
		name   string
		typ    Type
		wantHP int
	}{
		{"positive skip", TypePositive, -10},
		{"negative indulge", TypeNegative, -20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Habit{Type: tc.typ, Difficulty: model.DifficultyMedium, CurrentStreak: 5, BestStreak: 9}
			res := BuildTrigger(bal, h, IntentFailure)
			if res.Effect.HP != tc.wantHP {
				t.Fatalf("HP = %d, want %d", res.Effect.HP, tc.wantHP)
			}
			if res.Effect.XP != 0 || res.Effect.Gold != 0 {
				t.Fatalf("failure must not touch xp/gold, got %+v", res.Effect)
			}
			if res.NewStreak != 0 {
				t.Fatalf("NewStreak = %d, want 0", res.NewStreak)
			}
			if !res.StreakReset {
				t.Fatalf("StreakReset = false, want true")
			}
			if res.NewBestStreak != 9 {
				t.Fatalf("best streak must survive a reset, got %d", res.NewBestStreak)
			}
		})
	}
}

func TestBuildTriggerBestStreakNeverTrailsCurrent(t *testing.T) {
	bal := config.Default()
	h := Habit{Type: TypePositive, Difficulty: model.DifficultyEasy}
	for i := 0; i < 10; i++ {
		res := BuildTrigger(bal, h, IntentSuccess)
		if res.NewBestStreak < res.NewStreak {
			t.Fatalf("best %d < current %d after trigger %d", res.NewBestStreak, res.NewStreak, i+1)
		}
		h.CurrentStreak = res.NewStreak
		h.BestStreak = res.NewBestStreak
	}
}

func TestStreakMultiplierSaturates(t *testing.T) {
	bal := config.Default()
	if got := streakMultiplier(bal, 10); got != 1.5 {
		t.Fatalf("multiplier(10) = %v, want 1.5", got)
	}
	if got := streakMultiplier(bal, 20); got != 2.0 {
		t.Fatalf("multiplier(20) = %v, want 2.0", got)
	}
	if got := streakMultiplier(bal, 100); got != 2.0 {
		t.Fatalf("multiplier must saturate at cap, got %v", got)
	}
}

func TestCheckMilestone(t *testing.T) {
	bal := config.Default()

	h := Habit{Difficulty: model.DifficultyEasy}
	award := CheckMilestone(bal, h, 7)
	if award == nil {
		t.Fatalf("expected milestone at streak 7")
	}
	if award.DayCount != 7 || award.XP != 35 || award.Gold != 14 {
		t.Fatalf("award = %+v, want {7 35 14}", award)
	}

	if CheckMilestone(bal, h, 8) != nil {
		t.Fatalf("streak 8 is not a threshold")
	}

	// Already unlocked: re-reaching the threshold grants nothing.
	h.Milestones = []Milestone{{DayCount: 7}}
	if CheckMilestone(bal, h, 7) != nil {
		t.Fatalf("milestone 7 must not be granted twice")
	}
}

func TestCheckMilestoneDifficultyScaling(t *testing.T) {
	bal := config.Default()
	cases := []struct {
		diff     model.Difficulty
		wantXP   int
		wantGold int
	}{
		{model.DifficultyEasy, 105, 42},
		{model.DifficultyMedium, 158, 63},
		{model.DifficultyHard, 210, 84},
	}
	for _, tc := range cases {
		award := CheckMilestone(bal, Habit{Difficulty: tc.diff}, 21)
		if award == nil {
			t.Fatalf("%s: expected milestone at 21", tc.diff)
		}
		if award.XP != tc.wantXP || award.Gold != tc.wantGold {
			t.Fatalf("%s: award = %+v, want xp=%d gold=%d", tc.diff, award, tc.wantXP, tc.wantGold)
		}
	}
}

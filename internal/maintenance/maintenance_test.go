package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/daily"
	"github.com/rohitkumar-vc/lifequest-backend/internal/habit"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type fixture struct {
	svc     *Service
	users   *user.Service
	habits  habit.Repo
	dailies daily.Repo
	log     activity.Repo
	user    user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bal := config.Default()
	users := user.NewService(user.NewMemoryRepo(), bal, "test-secret", 0, nil)
	u, err := users.Register(context.Background(), "erin", "erin@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	habits := habit.NewMemoryRepo()
	dailies := daily.NewMemoryRepo()
	logRepo := activity.NewMemoryRepo()
	svc := NewService(users, habits, dailies, logRepo, bal, time.UTC, nil)
	return &fixture{svc: svc, users: users, habits: habits, dailies: dailies, log: logRepo, user: u}
}

func TestRolloverPenalizesMissedHabits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	threeDaysAgo := now.AddDate(0, 0, -3)
	missed, err := f.habits.Create(ctx, habit.Habit{
		UserID: f.user.ID, Title: "run", Type: habit.TypePositive,
		Difficulty: model.DifficultyHard, CurrentStreak: 5, BestStreak: 8,
		LastTriggeredAt: &threeDaysAgo,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	yesterday := now.AddDate(0, 0, -1)
	kept, err := f.habits.Create(ctx, habit.Habit{
		UserID: f.user.ID, Title: "read", Type: habit.TypePositive,
		Difficulty: model.DifficultyEasy, CurrentStreak: 3, BestStreak: 3,
		LastTriggeredAt: &yesterday,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	if err := f.svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	gotMissed, err := f.habits.Get(ctx, f.user.ID, missed.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotMissed.CurrentStreak != 0 {
		t.Fatalf("missed streak = %d, want 0", gotMissed.CurrentStreak)
	}
	if gotMissed.BestStreak != 8 {
		t.Fatalf("best streak = %d, want untouched 8", gotMissed.BestStreak)
	}
	gotKept, err := f.habits.Get(ctx, f.user.ID, kept.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotKept.CurrentStreak != 3 {
		t.Fatalf("kept streak = %d, want 3", gotKept.CurrentStreak)
	}

	u, err := f.users.Get(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Stats.HP != 80 {
		t.Fatalf("hp = %d, want 80 after hard-habit penalty", u.Stats.HP)
	}
}

func TestRolloverPenaltyEntriesMatchActualDamage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	// 7 HP left, two missed hard habits worth 20 damage each.
	if _, _, err := f.users.ApplyEffect(ctx, f.user.ID, stats.Effect{HP: -93}); err != nil {
		t.Fatalf("drain hp: %v", err)
	}
	threeDaysAgo := now.AddDate(0, 0, -3)
	for _, title := range []string{"run", "lift"} {
		if _, err := f.habits.Create(ctx, habit.Habit{
			UserID: f.user.ID, Title: title, Type: habit.TypePositive,
			Difficulty: model.DifficultyHard, CurrentStreak: 5, BestStreak: 5,
			LastTriggeredAt: &threeDaysAgo,
		}); err != nil {
			t.Fatalf("create habit: %v", err)
		}
	}

	if err := f.svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	u, err := f.users.Get(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Stats.HP != 0 {
		t.Fatalf("hp = %d, want floored at 0", u.Stats.HP)
	}

	// The log must account for exactly the 7 HP that were actually taken.
	entries, err := f.log.ListRecent(ctx, f.user.ID, 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	logged := 0
	penalties := 0
	for _, e := range entries {
		if e.Kind != activity.KindPenalty {
			continue
		}
		penalties++
		logged += e.Effect.HP
	}
	if penalties != 2 {
		t.Fatalf("penalty entries = %d, want 2", penalties)
	}
	if logged != -7 {
		t.Fatalf("logged hp = %d, want -7", logged)
	}
}

func TestRolloverResetsDailiesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	d, err := f.dailies.Create(ctx, daily.Daily{UserID: f.user.ID, Title: "make bed", Done: true, Streak: 4})
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}
	twoDaysAgo := now.AddDate(0, 0, -2)
	h, err := f.habits.Create(ctx, habit.Habit{
		UserID: f.user.ID, Title: "run", Type: habit.TypePositive,
		Difficulty: model.DifficultyEasy, CurrentStreak: 2, BestStreak: 2,
		LastTriggeredAt: &twoDaysAgo,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	if err := f.svc.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	hpAfterFirst := func() int {
		u, err := f.users.Get(ctx, f.user.ID)
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		return u.Stats.HP
	}()
	if hpAfterFirst != 95 {
		t.Fatalf("hp = %d, want 95", hpAfterFirst)
	}

	gotDaily, err := f.dailies.Get(ctx, f.user.ID, d.ID)
	if err != nil {
		t.Fatalf("get daily: %v", err)
	}
	if gotDaily.Done {
		t.Fatalf("daily still done after rollover")
	}
	if gotDaily.Streak != 4 {
		t.Fatalf("daily streak = %d, want kept 4", gotDaily.Streak)
	}

	// Same day again: nothing changes.
	if err := f.svc.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	u, err := f.users.Get(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Stats.HP != hpAfterFirst {
		t.Fatalf("hp changed on same-day rerun: %d", u.Stats.HP)
	}
	gotHabit, err := f.habits.Get(ctx, f.user.ID, h.ID)
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if gotHabit.CurrentStreak != 0 {
		t.Fatalf("habit streak = %d, want 0", gotHabit.CurrentStreak)
	}
}

func TestHabitTriggeredTodayIsSafe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	earlier := now.Add(-2 * time.Hour)
	h, err := f.habits.Create(ctx, habit.Habit{
		UserID: f.user.ID, Title: "run", Type: habit.TypePositive,
		Difficulty: model.DifficultyEasy, CurrentStreak: 1, BestStreak: 1,
		LastTriggeredAt: &earlier,
	})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if err := f.svc.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := f.habits.Get(ctx, f.user.ID, h.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want untouched 1", got.CurrentStreak)
	}
}

// Package maintenance runs the day rollover: once per local calendar day it
// resets dailies, zeroes the streak of habits that went untouched the
// previous day, and applies the missed-habit HP penalty. The rollover is
// guarded by each user's last check date, so running it any number of times
// within the same day changes nothing after the first.
package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/daily"
	"github.com/rohitkumar-vc/lifequest-backend/internal/habit"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Service struct {
	users   *user.Service
	habits  habit.Repo
	dailies daily.Repo
	log     activity.Repo
	bal     config.Balance
	loc     *time.Location
	logger  *log.Logger
	now     func() time.Time
}

func NewService(users *user.Service, habits habit.Repo, dailies daily.Repo, logRepo activity.Repo, bal config.Balance, loc *time.Location, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		users:   users,
		habits:  habits,
		dailies: dailies,
		log:     logRepo,
		bal:     bal,
		loc:     loc,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce sweeps every user, rolling over those whose last check date is
// before today. Errors on one user do not stop the sweep.
func (s *Service) RunOnce(ctx context.Context) error {
	users, err := s.users.Repo().List(ctx)
	if err != nil {
		return fmt.Errorf("maintenance list users: %w", err)
	}
	now := s.now()
	for _, u := range users {
		if u.LastCronCheck != nil && !dateBefore(u.LastCronCheck.In(s.loc), now.In(s.loc)) {
			continue
		}
		if err := s.rollover(ctx, u, now); err != nil {
			s.logger.Printf(`{"msg":"rollover failed","user":%q,"err":%q}`, u.ID, err.Error())
		}
	}
	return nil
}

func (s *Service) rollover(ctx context.Context, u user.User, now time.Time) error {
	habits, err := s.habits.ListByUser(ctx, u.ID)
	if err != nil {
		return err
	}

	for _, h := range habits {
		if h.CurrentStreak == 0 || !missedYesterday(h, now, s.loc) {
			continue
		}
		dmg := s.bal.MissedHabitHP[h.Difficulty]
		if dmg == 0 {
			dmg = s.bal.MissedHabitHP[model.DifficultyMedium]
		}

		h.CurrentStreak = 0
		if err := s.habits.Update(ctx, h); err != nil {
			return err
		}
		// Apply per habit and log the applied delta, so once HP hits zero the
		// remaining entries record zero rather than damage that never landed.
		_, applied, err := s.users.ApplyEffect(ctx, u.ID, stats.Effect{HP: -dmg})
		if err != nil {
			return err
		}
		entry := activity.New(u.ID, h.ID, applied, activity.DirectionApply,
			activity.KindPenalty, fmt.Sprintf("missed habit: %s", h.Title), now)
		if err := s.log.Append(ctx, entry); err != nil {
			s.logger.Printf(`{"msg":"activity append failed","habit":%q,"err":%q}`, h.ID, err.Error())
		}
	}

	dailies, err := s.dailies.ListByUser(ctx, u.ID)
	if err != nil {
		return err
	}
	for _, d := range dailies {
		if !d.Done {
			continue
		}
		d.Done = false
		if err := s.dailies.Update(ctx, d); err != nil {
			return err
		}
	}

	return s.users.Repo().SetLastCronCheck(ctx, u.ID, now)
}

// missedYesterday reports whether the habit went untriggered on the previous
// local day. A trigger today means the user is active again and the trigger
// logic already settled the streak, so no penalty applies.
func missedYesterday(h habit.Habit, now time.Time, loc *time.Location) bool {
	if h.LastTriggeredAt == nil {
		return true
	}
	last := h.LastTriggeredAt.In(loc)
	today := now.In(loc)
	yesterday := today.AddDate(0, 0, -1)
	return !sameDate(last, yesterday) && !sameDate(last, today)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func dateBefore(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return a.Year() < b.Year()
	}
	return a.YearDay() < b.YearDay()
}

// Runner invokes RunOnce on an interval until ctx is done. An hourly cadence
// catches the local-midnight rollover without a dedicated cron.
func (s *Service) Runner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Printf(`{"msg":"maintenance run failed","err":%q}`, err.Error())
			}
		}
	}
}

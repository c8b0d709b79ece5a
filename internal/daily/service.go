package daily

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Service struct {
	dailies Repo
	log     activity.Repo
	users   *user.Service
	bal     config.Balance
	loc     *time.Location
	logger  *log.Logger
	now     func() time.Time
}

func NewService(dailies Repo, logRepo activity.Repo, users *user.Service, bal config.Balance, loc *time.Location, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		dailies: dailies,
		log:     logRepo,
		users:   users,
		bal:     bal,
		loc:     loc,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, userID model.UserID, title string, diff model.Difficulty) (Daily, error) {
	if title == "" {
		return Daily{}, fmt.Errorf("title is required")
	}
	return s.dailies.Create(ctx, Daily{UserID: userID, Title: title, Difficulty: diff})
}

func (s *Service) List(ctx context.Context, userID model.UserID) ([]Daily, error) {
	return s.dailies.ListByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID model.UserID, id model.TaskID) error {
	return s.dailies.Delete(ctx, userID, id)
}

type ToggleOutcome struct {
	Daily Daily     `json:"daily"`
	User  user.User `json:"user"`
}

// Toggle moves a daily to the requested done state. Completing applies the
// reward and logs it; un-completing negates the most recent apply entry so
// the two are exact inverses. Asking for the state the daily is already in
// succeeds without touching stats or the log.
func (s *Service) Toggle(ctx context.Context, userID model.UserID, id model.TaskID, done bool) (ToggleOutcome, error) {
	d, err := s.dailies.Get(ctx, userID, id)
	if err != nil {
		return ToggleOutcome{}, err
	}

	if d.Done == done {
		u, err := s.users.Get(ctx, userID)
		if err != nil {
			return ToggleOutcome{}, err
		}
		return ToggleOutcome{Daily: d, User: u}, nil
	}

	now := s.now()
	if done {
		effect := stats.Effect{XP: s.bal.DailyRewardXP, Gold: s.bal.DailyRewardGold}
		u, applied, err := s.users.ApplyEffect(ctx, userID, effect)
		if err != nil {
			return ToggleOutcome{}, err
		}
		d.Done = true
		d.Streak++
		d.LastCompletedDate = now.In(s.loc).Format("2006-01-02")
		if err := s.dailies.Update(ctx, d); err != nil {
			return ToggleOutcome{}, err
		}
		s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
			activity.KindDailyToggle, fmt.Sprintf("daily done: %s", d.Title), now))
		return ToggleOutcome{Daily: d, User: u}, nil
	}

	last, err := s.log.LastForTask(ctx, userID, id)
	if err != nil {
		return ToggleOutcome{}, err
	}
	if last == nil || last.Direction != activity.DirectionApply || last.Kind != activity.KindDailyToggle {
		return ToggleOutcome{}, activity.ErrNothingToUndo
	}

	u, applied, err := s.users.ApplyEffect(ctx, userID, last.Effect.Negate())
	if err != nil {
		return ToggleOutcome{}, err
	}
	d.Done = false
	if d.Streak > 0 {
		d.Streak--
	}
	d.LastCompletedDate = ""
	if err := s.dailies.Update(ctx, d); err != nil {
		return ToggleOutcome{}, err
	}
	s.append(ctx, activity.New(userID, id, applied, activity.DirectionRevert,
		activity.KindDailyToggle, fmt.Sprintf("daily undone: %s", d.Title), now))
	return ToggleOutcome{Daily: d, User: u}, nil
}

func (s *Service) append(ctx context.Context, e activity.Entry) {
	if err := s.log.Append(ctx, e); err != nil {
		s.logger.Printf(`{"msg":"activity append failed","task":%q,"err":%q}`, e.TaskID, err.Error())
	}
}

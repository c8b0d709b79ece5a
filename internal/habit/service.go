package habit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Service struct {
	habits Repo
	log    activity.Repo
	users  *user.Service
	bal    config.Balance
	logger *log.Logger
	now    func() time.Time
}

func NewService(habits Repo, logRepo activity.Repo, users *user.Service, bal config.Balance, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		habits: habits,
		log:    logRepo,
		users:  users,
		bal:    bal,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, userID model.UserID, title, description string, typ Type, diff model.Difficulty) (Habit, error) {
	if title == "" {
		return Habit{}, fmt.Errorf("title is required")
	}
	if !typ.IsValid() {
		return Habit{}, fmt.Errorf("habit type must be positive or negative")
	}
	return s.habits.Create(ctx, Habit{
		UserID:      userID,
		Title:       title,
		Description: description,
		Type:        typ,
		Difficulty:  diff,
		Milestones:  []Milestone{},
	})
}

func (s *Service) List(ctx context.Context, userID model.UserID) ([]Habit, error) {
	return s.habits.ListByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID model.UserID, id model.TaskID) error {
	return s.habits.Delete(ctx, userID, id)
}

type TriggerOutcome struct {
	Habit     Habit           `json:"habit"`
	User      user.User       `json:"user"`
	Milestone *MilestoneAward `json:"milestone,omitempty"`
}

// Trigger resolves one success/failure action, applies its effect through the
// ledger and records the applied delta plus the pre-trigger streak values so
// the action can be undone exactly.
func (s *Service) Trigger(ctx context.Context, userID model.UserID, id model.TaskID, intent Intent) (TriggerOutcome, error) {
	if !intent.IsValid() {
		return TriggerOutcome{}, fmt.Errorf("intent must be success or failure")
	}
	h, err := s.habits.Get(ctx, userID, id)
	if err != nil {
		return TriggerOutcome{}, err
	}

	res := BuildTrigger(s.bal, h, intent)

	u, applied, err := s.users.ApplyEffect(ctx, userID, res.Effect)
	if err != nil {
		return TriggerOutcome{}, err
	}

	prevStreak := h.CurrentStreak
	prevBest := h.BestStreak
	now := s.now()
	h.CurrentStreak = res.NewStreak
	h.BestStreak = res.NewBestStreak
	h.LastTriggeredAt = &now
	if res.Milestone != nil {
		h.Milestones = append(h.Milestones, Milestone{DayCount: res.Milestone.DayCount, UnlockedAt: now})
	}
	if err := s.habits.Update(ctx, h); err != nil {
		return TriggerOutcome{}, err
	}

	entry := activity.New(userID, id, applied, activity.DirectionApply, activity.KindHabitTrigger,
		fmt.Sprintf("habit %q %s", h.Title, intent), now)
	entry.PrevStreak = &prevStreak
	entry.PrevBestStreak = &prevBest
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Printf(`{"msg":"activity append failed","habit":%q,"err":%q}`, h.ID, err.Error())
	}

	return TriggerOutcome{Habit: h, User: u, Milestone: res.Milestone}, nil
}

// Undo reverts the most recent trigger for a habit. Only a trailing apply
// entry is eligible: two undos in a row, or an undo with no history, fail
// with ErrNothingToUndo. Unlocked milestones stay unlocked so a re-trigger
// cannot grant the same bonus twice.
func (s *Service) Undo(ctx context.Context, userID model.UserID, id model.TaskID) (TriggerOutcome, error) {
	h, err := s.habits.Get(ctx, userID, id)
	if err != nil {
		return TriggerOutcome{}, err
	}

	last, err := s.log.LastForTask(ctx, userID, id)
	if err != nil {
		return TriggerOutcome{}, err
	}
	if last == nil || last.Direction != activity.DirectionApply || last.Kind != activity.KindHabitTrigger {
		return TriggerOutcome{}, activity.ErrNothingToUndo
	}

	u, applied, err := s.users.ApplyEffect(ctx, userID, last.Effect.Negate())
	if err != nil {
		return TriggerOutcome{}, err
	}

	// Restore the streak values recorded at trigger time rather than working
	// them back from the current counters: after a reset-and-rebuild the
	// counters alone cannot tell whether the best changed.
	if last.PrevStreak != nil {
		h.CurrentStreak = *last.PrevStreak
	}
	if last.PrevBestStreak != nil {
		h.BestStreak = *last.PrevBestStreak
	}
	if err := s.habits.Update(ctx, h); err != nil {
		return TriggerOutcome{}, err
	}

	entry := activity.New(userID, id, applied, activity.DirectionRevert, activity.KindHabitUndo,
		fmt.Sprintf("habit %q undo", h.Title), s.now())
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Printf(`{"msg":"activity append failed","habit":%q,"err":%q}`, h.ID, err.Error())
	}

	return TriggerOutcome{Habit: h, User: u}, nil
}

package todo

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/sched"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Service struct {
	todos  Repo
	log    activity.Repo
	users  *user.Service
	sch    sched.Scheduler
	bal    config.Balance
	logger *log.Logger
	now    func() time.Time
}

func NewService(todos Repo, logRepo activity.Repo, users *user.Service, sch sched.Scheduler, bal config.Balance, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		todos:  todos,
		log:    logRepo,
		users:  users,
		sch:    sch,
		bal:    bal,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	Title       string
	Description string
	Difficulty  model.Difficulty
	Deadline    *time.Time
}

type Outcome struct {
	Todo Todo      `json:"todo"`
	User user.User `json:"user"`
}

// Create opens a todo. With a deadline the reward gold is advanced
// immediately as a loan and an expiry callback is scheduled; without one the
// todo just sits in pending.
func (s *Service) Create(ctx context.Context, userID model.UserID, in CreateInput) (Outcome, error) {
	if in.Title == "" {
		return Outcome{}, fmt.Errorf("title is required")
	}
	now := s.now()
	if in.Deadline != nil && !in.Deadline.After(now) {
		return Outcome{}, fmt.Errorf("deadline must be in the future")
	}

	mult := s.bal.TodoDifficultyMult[in.Difficulty]
	if mult == 0 {
		mult = 1
	}
	t := Todo{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Difficulty:  in.Difficulty,
		State:       StatePending,
		RewardGold:  s.bal.TodoRewardGold * mult,
		RewardXP:    s.bal.TodoRewardXP * mult,
	}

	if in.Deadline == nil {
		created, err := s.todos.Create(ctx, t)
		if err != nil {
			return Outcome{}, err
		}
		u, err := s.users.Get(ctx, userID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Todo: created, User: u}, nil
	}

	deadline := in.Deadline.UTC()
	t.State = StateActiveLoaned
	t.Deadline = &deadline
	t.LoanAmount = t.RewardGold

	created, err := s.todos.Create(ctx, t)
	if err != nil {
		return Outcome{}, err
	}

	token, err := s.sch.Schedule(ctx, string(created.ID), deadline)
	if err != nil {
		// No callback means no bet; remove the record rather than leave an
		// unenforceable loan behind.
		_ = s.todos.Delete(ctx, userID, created.ID)
		return Outcome{}, fmt.Errorf("schedule deadline: %w", err)
	}
	created.ScheduleToken = token
	if err := s.todos.Update(ctx, created); err != nil {
		return Outcome{}, err
	}

	u, applied, err := s.users.ApplyEffect(ctx, userID, stats.Effect{Gold: created.LoanAmount})
	if err != nil {
		if _, cErr := s.sch.Cancel(ctx, token); cErr != nil {
			s.logger.Printf(`{"msg":"cancel schedule failed","todo":%q,"err":%q}`, created.ID, cErr.Error())
		}
		_ = s.todos.Delete(ctx, userID, created.ID)
		return Outcome{}, err
	}
	s.append(ctx, activity.New(userID, created.ID, applied, activity.DirectionApply,
		activity.KindTodoCreate, fmt.Sprintf("todo bet started: %s", created.Title), now), StateActiveLoaned)

	return Outcome{Todo: created, User: u}, nil
}

func (s *Service) Get(ctx context.Context, userID model.UserID, id model.TaskID) (Todo, error) {
	return s.todos.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID model.UserID) ([]Todo, error) {
	return s.todos.ListByUser(ctx, userID)
}

// Complete settles the bet in the user's favor. The loan is kept and the full
// reward is granted on top. The state claim runs before any economic effect
// so a completion racing the overdue callback settles exactly one way.
func (s *Service) Complete(ctx context.Context, userID model.UserID, id model.TaskID) (Outcome, error) {
	t, err := s.todos.Get(ctx, userID, id)
	if err != nil {
		return Outcome{}, err
	}

	from := t.State
	if from != StatePending && from != StateActiveLoaned {
		return Outcome{}, ErrInvalidStateTransition
	}
	claimed, err := s.todos.TransitionState(ctx, id, from, StateCompleted)
	if err != nil {
		return Outcome{}, err
	}
	if !claimed {
		return Outcome{}, ErrInvalidStateTransition
	}

	if from == StateActiveLoaned && t.ScheduleToken != "" {
		if _, err := s.sch.Cancel(ctx, t.ScheduleToken); err != nil {
			// The record already left active_loaned, so a late fire is a no-op.
			s.logger.Printf(`{"msg":"cancel schedule failed","todo":%q,"err":%q}`, t.ID, err.Error())
		}
	}

	u, applied, err := s.users.ApplyEffect(ctx, userID, stats.Effect{XP: t.RewardXP, Gold: t.RewardGold})
	if err != nil {
		return Outcome{}, err
	}
	now := s.now()
	s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
		activity.KindTodoComplete, fmt.Sprintf("todo completed: %s", t.Title), now), StateCompleted)

	t.State = StateCompleted
	t.ScheduleToken = ""
	t.CompletedAt = &now
	return Outcome{Todo: t, User: u}, nil
}

type DeadlineResult string

const (
	DeadlineProcessed        DeadlineResult = "processed"
	DeadlineAlreadyProcessed DeadlineResult = "already_processed"
)

// HandleDeadline is the scheduler callback. Delivery is at-least-once, so the
// whole operation keys off one conditional state claim: only the delivery
// that moves the todo out of active_loaned applies the penalty. Duplicates
// and late deliveries report already_processed and change nothing.
func (s *Service) HandleDeadline(ctx context.Context, id model.TaskID) (DeadlineResult, error) {
	t, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	claimed, err := s.todos.TransitionState(ctx, id, StateActiveLoaned, StateOverdue)
	if err != nil {
		return "", err
	}
	if !claimed {
		return DeadlineAlreadyProcessed, nil
	}

	// Losing the bet costs a multiple of the advance. Gold floors at zero
	// rather than failing; there is no debt ledger to carry the remainder.
	penalty := s.bal.TodoOverdueFactor * t.LoanAmount
	_, applied, err := s.users.ApplyEffectClampGold(ctx, t.UserID, stats.Effect{Gold: -penalty})
	if err != nil {
		return "", err
	}
	s.append(ctx, activity.New(t.UserID, id, applied, activity.DirectionApply,
		activity.KindTodoOverdue, fmt.Sprintf("todo overdue: %s", t.Title), s.now()), StateOverdue)

	return DeadlineProcessed, nil
}

// Renew reopens an overdue bet for a fee, with a fresh deadline and callback.
func (s *Service) Renew(ctx context.Context, userID model.UserID, id model.TaskID, newDeadline time.Time) (Outcome, error) {
	t, err := s.todos.Get(ctx, userID, id)
	if err != nil {
		return Outcome{}, err
	}
	if t.State != StateOverdue {
		return Outcome{}, ErrInvalidStateTransition
	}
	now := s.now()
	if !newDeadline.After(now) {
		return Outcome{}, fmt.Errorf("deadline must be in the future")
	}

	fee := int(math.Round(s.bal.TodoRenewalFeePercent * float64(t.RewardGold)))
	_, applied, err := s.users.ApplyEffect(ctx, userID, stats.Effect{Gold: -fee})
	if err != nil {
		return Outcome{}, err
	}

	claimed, err := s.todos.TransitionState(ctx, id, StateOverdue, StateActiveLoaned)
	if err != nil {
		return Outcome{}, err
	}
	if !claimed {
		// Lost a race with another renew or a delete; give the fee back.
		if _, _, rErr := s.users.ApplyEffect(ctx, userID, applied.Negate()); rErr != nil {
			s.logger.Printf(`{"msg":"renew fee refund failed","todo":%q,"err":%q}`, t.ID, rErr.Error())
		}
		return Outcome{}, ErrInvalidStateTransition
	}

	token, err := s.sch.Schedule(ctx, string(id), newDeadline.UTC())
	if err != nil {
		// No callback means no bet; put the todo back in overdue and give the
		// fee back rather than leave an unenforceable loan behind.
		if _, tErr := s.todos.TransitionState(ctx, id, StateActiveLoaned, StateOverdue); tErr != nil {
			s.logger.Printf(`{"msg":"renew rollback failed","todo":%q,"err":%q}`, t.ID, tErr.Error())
		}
		if _, _, rErr := s.users.ApplyEffect(ctx, userID, applied.Negate()); rErr != nil {
			s.logger.Printf(`{"msg":"renew fee refund failed","todo":%q,"err":%q}`, t.ID, rErr.Error())
		}
		return Outcome{}, fmt.Errorf("schedule deadline: %w", err)
	}

	deadline := newDeadline.UTC()
	t.State = StateActiveLoaned
	t.Deadline = &deadline
	t.ScheduleToken = token
	t.RenewCount++
	if err := s.todos.Update(ctx, t); err != nil {
		return Outcome{}, err
	}

	s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
		activity.KindTodoRenew, fmt.Sprintf("todo renewed: %s", t.Title), now), StateActiveLoaned)

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Todo: t, User: u}, nil
}

// Delete removes a todo and reconciles its economics: an open loan is repaid
// (floored at zero gold), an overdue bet was already penalized and owes
// nothing more, a completed or pending todo is free to remove.
func (s *Service) Delete(ctx context.Context, userID model.UserID, id model.TaskID) (user.User, error) {
	t, err := s.todos.Get(ctx, userID, id)
	if err != nil {
		return user.User{}, err
	}

	if t.State == StateActiveLoaned {
		claimed, err := s.todos.TransitionState(ctx, id, StateActiveLoaned, StateDeleted)
		if err != nil {
			return user.User{}, err
		}
		if !claimed {
			// The overdue callback got there first; retry against the settled state.
			return s.Delete(ctx, userID, id)
		}
		if t.ScheduleToken != "" {
			if _, err := s.sch.Cancel(ctx, t.ScheduleToken); err != nil {
				s.logger.Printf(`{"msg":"cancel schedule failed","todo":%q,"err":%q}`, t.ID, err.Error())
			}
		}
		u, applied, err := s.users.ApplyEffectClampGold(ctx, userID, stats.Effect{Gold: -t.LoanAmount})
		if err != nil {
			return user.User{}, err
		}
		s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
			activity.KindTodoDelete, fmt.Sprintf("todo deleted, loan repaid: %s", t.Title), s.now()), StateDeleted)
		if err := s.todos.Delete(ctx, userID, id); err != nil {
			return user.User{}, err
		}
		return u, nil
	}

	if err := s.todos.Delete(ctx, userID, id); err != nil {
		return user.User{}, err
	}
	return s.users.Get(ctx, userID)
}

type UpdateInput struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
}

// Update edits an open todo. Deadline changes move the loan with them:
// adding a deadline advances the loan, removing one calls it back, shifting
// one just reschedules the callback.
func (s *Service) Update(ctx context.Context, userID model.UserID, id model.TaskID, in UpdateInput) (Outcome, error) {
	t, err := s.todos.Get(ctx, userID, id)
	if err != nil {
		return Outcome{}, err
	}
	if t.State != StatePending && t.State != StateActiveLoaned {
		return Outcome{}, ErrInvalidStateTransition
	}
	now := s.now()

	if in.Title != nil {
		if *in.Title == "" {
			return Outcome{}, fmt.Errorf("title is required")
		}
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}

	switch {
	case in.ClearDeadline && t.State == StateActiveLoaned:
		if t.ScheduleToken != "" {
			if _, err := s.sch.Cancel(ctx, t.ScheduleToken); err != nil {
				s.logger.Printf(`{"msg":"cancel schedule failed","todo":%q,"err":%q}`, t.ID, err.Error())
			}
		}
		_, applied, err := s.users.ApplyEffectClampGold(ctx, userID, stats.Effect{Gold: -t.LoanAmount})
		if err != nil {
			return Outcome{}, err
		}
		s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
			activity.KindTodoDelete, fmt.Sprintf("todo loan recalled: %s", t.Title), now), StatePending)
		t.State = StatePending
		t.Deadline = nil
		t.LoanAmount = 0
		t.ScheduleToken = ""

	case in.Deadline != nil && t.State == StatePending:
		if !in.Deadline.After(now) {
			return Outcome{}, fmt.Errorf("deadline must be in the future")
		}
		deadline := in.Deadline.UTC()
		token, err := s.sch.Schedule(ctx, string(id), deadline)
		if err != nil {
			return Outcome{}, fmt.Errorf("schedule deadline: %w", err)
		}
		_, applied, err := s.users.ApplyEffect(ctx, userID, stats.Effect{Gold: t.RewardGold})
		if err != nil {
			return Outcome{}, err
		}
		s.append(ctx, activity.New(userID, id, applied, activity.DirectionApply,
			activity.KindTodoCreate, fmt.Sprintf("todo bet started: %s", t.Title), now), StateActiveLoaned)
		t.State = StateActiveLoaned
		t.Deadline = &deadline
		t.LoanAmount = t.RewardGold
		t.ScheduleToken = token

	case in.Deadline != nil && t.State == StateActiveLoaned:
		if !in.Deadline.After(now) {
			return Outcome{}, fmt.Errorf("deadline must be in the future")
		}
		if t.ScheduleToken != "" {
			if _, err := s.sch.Cancel(ctx, t.ScheduleToken); err != nil {
				s.logger.Printf(`{"msg":"cancel schedule failed","todo":%q,"err":%q}`, t.ID, err.Error())
			}
		}
		deadline := in.Deadline.UTC()
		token, err := s.sch.Schedule(ctx, string(id), deadline)
		if err != nil {
			return Outcome{}, fmt.Errorf("schedule deadline: %w", err)
		}
		t.Deadline = &deadline
		t.ScheduleToken = token
	}

	if err := s.todos.Update(ctx, t); err != nil {
		return Outcome{}, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Todo: t, User: u}, nil
}

func (s *Service) append(ctx context.Context, e activity.Entry, state State) {
	e.State = string(state)
	if err := s.log.Append(ctx, e); err != nil {
		s.logger.Printf(`{"msg":"activity append failed","task":%q,"err":%q}`, e.TaskID, err.Error())
	}
}

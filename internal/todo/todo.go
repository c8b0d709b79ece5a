// Package todo implements the deadline-bet lifecycle. A todo with a deadline
// advances its gold reward up front as a loan; missing the deadline costs a
// multiple of the loan, renewing costs a fee, completing keeps the loan and
// adds the reward on top.
package todo

import (
	"errors"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

type State string

const (
	// StatePending is a todo with no deadline: no loan, no scheduled callback.
	StatePending State = "pending"
	// StateActiveLoaned is a todo whose reward gold was advanced as a loan
	// against a deadline. ScheduleToken is set while the callback is pending.
	StateActiveLoaned State = "active_loaned"
	StateCompleted    State = "completed"
	StateOverdue      State = "overdue"
	StateDeleted      State = "deleted"
)

var (
	ErrNotFound               = errors.New("todo not found")
	ErrInvalidStateTransition = errors.New("invalid todo state transition")
)

type Todo struct {
	ID          model.TaskID     `json:"id"`
	UserID      model.UserID     `json:"user_id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Difficulty  model.Difficulty `json:"difficulty"`

	State    State      `json:"state"`
	Deadline *time.Time `json:"deadline,omitempty"`

	// RewardGold and RewardXP are frozen at creation so later balance changes
	// never reprice an open bet.
	RewardGold    int    `json:"reward_gold"`
	RewardXP      int    `json:"reward_xp"`
	LoanAmount    int    `json:"loan_amount"`
	ScheduleToken string `json:"-"`
	RenewCount    int    `json:"renew_count"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Package activity is the append-only record of every economic effect. The
// most recent entry per task is the anchor for undo: it stores the effect
// that was actually applied (post-clamping) so a revert is an exact inverse.
package activity

import (
	"time"

	"github.com/google/uuid"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

type Direction string

const (
	DirectionApply  Direction = "apply"
	DirectionRevert Direction = "revert"
)

type Kind string

const (
	KindHabitTrigger Kind = "habit_trigger"
	KindHabitUndo    Kind = "habit_undo"
	KindTodoCreate   Kind = "todo_create"
	KindTodoComplete Kind = "todo_complete"
	KindTodoOverdue  Kind = "todo_overdue"
	KindTodoRenew    Kind = "todo_renew"
	KindTodoDelete   Kind = "todo_delete"
	KindDailyToggle  Kind = "daily_toggle"
	KindPurchase     Kind = "purchase"
	KindPenalty      Kind = "penalty"
)

// Entry is immutable once appended. PrevStreak and PrevBestStreak are only
// set for habit triggers and carry the streak values before the trigger, so
// an undo restores both verbatim instead of inferring them.
type Entry struct {
	ID             string       `json:"id"`
	UserID         model.UserID `json:"user_id"`
	TaskID         model.TaskID `json:"task_id"`
	Effect         stats.Effect `json:"effect"`
	Direction      Direction    `json:"direction"`
	Kind           Kind         `json:"kind"`
	Message        string       `json:"message"`
	State          string       `json:"state,omitempty"`
	PrevStreak     *int         `json:"prev_streak,omitempty"`
	PrevBestStreak *int         `json:"prev_best_streak,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// New stamps an entry with a fresh ID and timestamp.
func New(userID model.UserID, taskID model.TaskID, effect stats.Effect, dir Direction, kind Kind, msg string, now time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		TaskID:    taskID,
		Effect:    effect,
		Direction: dir,
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
	}
}

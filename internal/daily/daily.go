// Package daily implements the recurring-task toggle: a symmetric
// apply/revert pair keyed by the done flag, with the revert taken from the
// most recent log entry so it is an exact inverse.
package daily

import (
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

type Daily struct {
	ID         model.TaskID     `json:"id"`
	UserID     model.UserID     `json:"user_id"`
	Title      string           `json:"title"`
	Difficulty model.Difficulty `json:"difficulty,omitempty"`

	Done   bool `json:"done"`
	Streak int  `json:"streak"`
	// LastCompletedDate is a local calendar date (YYYY-MM-DD) used by the
	// day rollover to tell today's completion from a stale one.
	LastCompletedDate string `json:"last_completed_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

package user

import (
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

type User struct {
	ID           model.UserID `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`

	Stats stats.Stats `json:"stats"`
	// StatsVersion guards the stats row: every committed ledger application
	// bumps it, and writers compare-and-swap against the value they read.
	StatsVersion int64 `json:"-"`

	LastCronCheck *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

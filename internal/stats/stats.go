// Package stats owns the user economy snapshot and the only code path allowed
// to mutate it: the reward ledger. Every reward or penalty in the system is an
// Effect applied through Apply.
package stats

import (
	"errors"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
)

var ErrInsufficientFunds = errors.New("insufficient gold")

// Stats is a user's economy snapshot.
type Stats struct {
	HP    int `json:"hp"`
	XP    int `json:"xp"`
	XPCap int `json:"xp_cap"`
	Gold  int `json:"gold"`
	Level int `json:"level"`
}

// NewStats returns the starting snapshot for a fresh account.
func NewStats(bal config.Balance) Stats {
	return Stats{
		HP:    bal.HPMax,
		XP:    0,
		XPCap: XPCapForLevel(bal, 1),
		Gold:  0,
		Level: 1,
	}
}

// Effect is a signed (xp, gold, hp) delta. Zero value means "no change".
type Effect struct {
	XP   int `json:"xp"`
	Gold int `json:"gold"`
	HP   int `json:"hp"`
}

func (e Effect) Negate() Effect {
	return Effect{XP: -e.XP, Gold: -e.Gold, HP: -e.HP}
}

func (e Effect) Add(other Effect) Effect {
	return Effect{XP: e.XP + other.XP, Gold: e.Gold + other.Gold, HP: e.HP + other.HP}
}

func (e Effect) IsZero() bool {
	return e == Effect{}
}

// Apply applies an effect to a snapshot. It returns the new snapshot and the
// effect that was actually applied: HP is clamped to [0, HPMax] and the
// clamped delta is what gets logged, so a later revert restores exactly what
// was taken. If the gold delta would drive gold negative the whole operation
// fails with ErrInsufficientFunds and nothing is applied.
func Apply(bal config.Balance, s Stats, e Effect) (Stats, Effect, error) {
	if s.Gold+e.Gold < 0 {
		return s, Effect{}, ErrInsufficientFunds
	}

	applied := e

	hp := s.HP + e.HP
	if hp < 0 {
		hp = 0
	}
	if hp > bal.HPMax {
		hp = bal.HPMax
	}
	applied.HP = hp - s.HP

	level, xp, cap := Advance(bal, s.Level, s.XP, e.XP)

	out := Stats{
		HP:    hp,
		XP:    xp,
		XPCap: cap,
		Gold:  s.Gold + e.Gold,
		Level: level,
	}
	return out, applied, nil
}

// ApplyClampGold is Apply with the overdue-penalty policy: instead of
// rejecting a gold debit that exceeds the balance, the debit is clamped so
// gold lands on exactly 0. The returned effect carries the clamped delta.
func ApplyClampGold(bal config.Balance, s Stats, e Effect) (Stats, Effect) {
	if s.Gold+e.Gold < 0 {
		e.Gold = -s.Gold
	}
	out, applied, err := Apply(bal, s, e)
	if err != nil {
		// Unreachable after the clamp above; keep the snapshot unchanged.
		return s, Effect{}
	}
	return out, applied
}

// Repair normalizes a loaded snapshot: recomputes the xp cap from the level,
// folds any xp overflow into level-ups, and clamps hp and gold into bounds.
// It is pure and idempotent and is applied to every snapshot on read, so a
// stale xp_cap written by an older build heals itself.
func Repair(bal config.Balance, s Stats) Stats {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.Gold < 0 {
		s.Gold = 0
	}
	level, xp, cap := Advance(bal, s.Level, s.XP, 0)
	s.Level, s.XP, s.XPCap = level, xp, cap
	if s.HP < 0 {
		s.HP = 0
	}
	if s.HP > bal.HPMax {
		s.HP = bal.HPMax
	}
	return s
}

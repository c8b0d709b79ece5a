package stats

import "github.com/rohitkumar-vc/lifequest-backend/internal/config"

// XPCapForLevel is the single source of truth for "xp needed to finish this
// level". Levels beyond the configured table reuse the last threshold.
func XPCapForLevel(bal config.Balance, level int) int {
	if level < 1 {
		level = 1
	}
	idx := level - 1
	if idx >= len(bal.LevelXPThresholds) {
		idx = len(bal.LevelXPThresholds) - 1
	}
	return bal.LevelXPThresholds[idx]
}

// Advance adds delta to xp and carries overflow into level-ups, recomputing
// the cap at each step. Negative deltas never de-level: xp bottoms out at 0.
// That choice keeps undo non-destructive of level history; the trade-off is
// that apply followed by revert of an effect that crossed a level boundary
// restores gold and hp exactly but leaves the level at the higher value.
func Advance(bal config.Balance, level, xp, delta int) (newLevel, newXP, newCap int) {
	if level < 1 {
		level = 1
	}
	xp += delta
	if xp < 0 {
		xp = 0
	}
	for xp >= XPCapForLevel(bal, level) {
		xp -= XPCapForLevel(bal, level)
		level++
	}
	return level, xp, XPCapForLevel(bal, level)
}

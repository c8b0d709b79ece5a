package stats

import (
	"testing"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
)

func TestApply_RejectsNegativeGoldAtomically(t *testing.T) {
	bal := config.Default()
	s := Stats{HP: 80, XP: 50, XPCap: 100, Gold: 10, Level: 1}

	out, applied, err := Apply(bal, s, Effect{XP: 20, Gold: -30, HP: -5})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if out != s {
		t.Fatalf("snapshot mutated on rejected apply: %+v", out)
	}
	if !applied.IsZero() {
		t.Fatalf("expected zero applied effect, got %+v", applied)
	}
}

func TestApply_ClampsHPAndReportsActualDelta(t *testing.T) {
	bal := config.Default()
	s := Stats{HP: 95, XP: 0, XPCap: 100, Gold: 0, Level: 1}

	out, applied, err := Apply(bal, s, Effect{HP: 20})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.HP != 100 {
		t.Fatalf("hp = %d, want clamp at 100", out.HP)
	}
	if applied.HP != 5 {
		t.Fatalf("applied hp delta = %d, want 5 (the clamped amount)", applied.HP)
	}

	// Reverting the applied delta restores the original snapshot exactly.
	back, _, err := Apply(bal, out, applied.Negate())
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if back != s {
		t.Fatalf("revert mismatch: got %+v want %+v", back, s)
	}
}

func TestApply_RoutesXPThroughLeveling(t *testing.T) {
	bal := config.Default()
	s := NewStats(bal)

	out, _, err := Apply(bal, s, Effect{XP: 150})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Level != 2 || out.XP != 50 || out.XPCap != 300 {
		t.Fatalf("got level=%d xp=%d cap=%d, want 2/50/300", out.Level, out.XP, out.XPCap)
	}
}

func TestApplyClampGold_FloorsAtZero(t *testing.T) {
	bal := config.Default()
	s := Stats{HP: 100, XP: 0, XPCap: 100, Gold: 15, Level: 1}

	out, applied := ApplyClampGold(bal, s, Effect{Gold: -40})
	if out.Gold != 0 {
		t.Fatalf("gold = %d, want 0", out.Gold)
	}
	if applied.Gold != -15 {
		t.Fatalf("applied gold = %d, want -15", applied.Gold)
	}
}

func TestRepair_IsIdempotentAndHealsStaleCap(t *testing.T) {
	bal := config.Default()

	stale := Stats{HP: 120, XP: 350, XPCap: 100, Gold: -3, Level: 2}
	once := Repair(bal, stale)
	twice := Repair(bal, once)

	if once != twice {
		t.Fatalf("repair not idempotent: %+v vs %+v", once, twice)
	}
	if once.Level != 3 || once.XP != 50 || once.XPCap != 600 {
		t.Fatalf("repair leveling: got %+v", once)
	}
	if once.HP != bal.HPMax || once.Gold != 0 {
		t.Fatalf("repair bounds: got %+v", once)
	}
}

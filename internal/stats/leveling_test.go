package stats

import (
	"testing"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
)

func TestAdvance_CarriesOverflowAcrossLevels(t *testing.T) {
	bal := config.Default()

	cases := []struct {
		name      string
		level, xp int
		delta     int
		wantLevel int
		wantXP    int
		wantCap   int
	}{
		{"no change", 1, 40, 0, 1, 40, 100},
		{"simple gain", 1, 40, 30, 1, 70, 100},
		{"single level up", 1, 0, 150, 2, 50, 300},
		{"exact cap levels", 1, 0, 100, 2, 0, 300},
		{"double level up", 1, 0, 450, 3, 50, 600},
		{"past table reuses last threshold", 11, 0, 5500, 12, 0, 5500},
		{"negative clamps at zero", 1, 20, -50, 1, 0, 100},
		{"no de-level above one", 3, 10, -500, 3, 0, 600},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, xp, cap := Advance(bal, tc.level, tc.xp, tc.delta)
			if level != tc.wantLevel || xp != tc.wantXP || cap != tc.wantCap {
				t.Fatalf("Advance(%d,%d,%+d) = (%d,%d,%d), want (%d,%d,%d)",
					tc.level, tc.xp, tc.delta, level, xp, cap, tc.wantLevel, tc.wantXP, tc.wantCap)
			}
		})
	}
}

func TestXPCapForLevel_MatchesThresholdTable(t *testing.T) {
	bal := config.Default()
	if got := XPCapForLevel(bal, 1); got != 100 {
		t.Fatalf("level 1 cap = %d, want 100", got)
	}
	if got := XPCapForLevel(bal, 10); got != 5500 {
		t.Fatalf("level 10 cap = %d, want 5500", got)
	}
	if got := XPCapForLevel(bal, 40); got != 5500 {
		t.Fatalf("level 40 cap = %d, want last threshold 5500", got)
	}
}

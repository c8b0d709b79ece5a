package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadBalance_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"todo_reward_gold: 100\n"+
			"habit_failure_hp: 25\n",
	), 0o644))

	bal, err := LoadBalance(path)
	require.NoError(t, err)

	assert.Equal(t, 100, bal.TodoRewardGold)
	assert.Equal(t, 25, bal.HabitFailureHP)

	// Everything not named in the file keeps its default.
	assert.Equal(t, 100, bal.HPMax)
	assert.Equal(t, 2, bal.TodoOverdueFactor)
	assert.Equal(t, map[model.Difficulty]int{
		model.DifficultyEasy:   5,
		model.DifficultyMedium: 10,
		model.DifficultyHard:   20,
	}, bal.MissedHabitHP)
}

func TestLoadBalance_RejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yml")
	require.NoError(t, os.WriteFile(path, []byte("hp_max: -10\n"), 0o644))

	_, err := LoadBalance(path)
	assert.Error(t, err)
}

func TestLoadBalance_MissingFile(t *testing.T) {
	_, err := LoadBalance(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

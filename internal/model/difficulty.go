package model

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ParseDifficulty normalizes user input; empty input defaults to medium.
func ParseDifficulty(input string) (Difficulty, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid difficulty: %q", input)
	}
	return d, nil
}

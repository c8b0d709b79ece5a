package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// casAttempts bounds the ledger retry loop under concurrent writers.
const casAttempts = 5

type Service struct {
	repo   Repo
	bal    config.Balance
	logger *log.Logger

	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(repo Repo, bal config.Balance, jwtSecret string, tokenTTL time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		bal:       bal,
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *Service) Repo() Repo { return s.repo }

func (s *Service) Register(ctx context.Context, username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return User{}, fmt.Errorf("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		Stats:        stats.NewStats(s.bal),
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Login(ctx context.Context, username, password string) (User, string, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := generateToken(s.jwtSecret, u, s.tokenTTL, time.Now())
	if err != nil {
		return User{}, "", fmt.Errorf("sign token: %w", err)
	}
	u.Stats = stats.Repair(s.bal, u.Stats)
	return u, token, nil
}

// Get loads a user and repairs the stats snapshot before anyone acts on it.
func (s *Service) Get(ctx context.Context, id model.UserID) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Stats = stats.Repair(s.bal, u.Stats)
	return u, nil
}

// ApplyEffect routes an effect through the reward ledger and commits it with
// a compare-and-swap retry loop. It returns the updated user and the effect
// that was actually applied (hp clamping included).
func (s *Service) ApplyEffect(ctx context.Context, id model.UserID, e stats.Effect) (User, stats.Effect, error) {
	return s.applyEffect(ctx, id, e, false)
}

// ApplyEffectClampGold is ApplyEffect under the overdue-penalty policy: a
// gold debit larger than the balance floors gold at 0 instead of failing.
func (s *Service) ApplyEffectClampGold(ctx context.Context, id model.UserID, e stats.Effect) (User, stats.Effect, error) {
	return s.applyEffect(ctx, id, e, true)
}

func (s *Service) applyEffect(ctx context.Context, id model.UserID, e stats.Effect, clampGold bool) (User, stats.Effect, error) {
	var lastErr error
	for i := 0; i < casAttempts; i++ {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return User{}, stats.Effect{}, err
		}
		current := stats.Repair(s.bal, u.Stats)

		var next stats.Stats
		var applied stats.Effect
		if clampGold {
			next, applied = stats.ApplyClampGold(s.bal, current, e)
		} else {
			next, applied, err = stats.Apply(s.bal, current, e)
			if err != nil {
				return User{}, stats.Effect{}, err
			}
		}

		if err := s.repo.UpdateStatsCAS(ctx, id, u.StatsVersion, next); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return User{}, stats.Effect{}, err
		}
		u.Stats = next
		u.StatsVersion++
		return u, applied, nil
	}
	return User{}, stats.Effect{}, fmt.Errorf("apply effect: %w", lastErr)
}

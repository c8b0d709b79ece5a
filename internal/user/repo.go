package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrDuplicate       = errors.New("username or email already taken")
	ErrVersionConflict = errors.New("stats version conflict")
)

type Repo interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id model.UserID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	// UpdateStatsCAS commits a new stats snapshot iff the stored version still
	// matches expected. A mismatch returns ErrVersionConflict and writes nothing.
	UpdateStatsCAS(ctx context.Context, id model.UserID, expected int64, s stats.Stats) error
	SetLastCronCheck(ctx context.Context, id model.UserID, t time.Time) error
}

func newID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[model.UserID]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: map[model.UserID]User{}}
}

func (r *MemoryRepo) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrDuplicate
		}
	}
	u.ID = model.UserID(newID("user"))
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id model.UserID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatsCAS(_ context.Context, id model.UserID, expected int64, s stats.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if u.StatsVersion != expected {
		return ErrVersionConflict
	}
	u.Stats = s
	u.StatsVersion = expected + 1
	r.users[id] = u
	return nil
}

func (r *MemoryRepo) SetLastCronCheck(_ context.Context, id model.UserID, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastCronCheck = &t
	r.users[id] = u
	return nil
}

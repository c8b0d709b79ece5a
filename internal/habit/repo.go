package habit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

var ErrNotFound = errors.New("habit not found")

type Repo interface {
	Create(ctx context.Context, h Habit) (Habit, error)
	Get(ctx context.Context, userID model.UserID, id model.TaskID) (Habit, error)
	ListByUser(ctx context.Context, userID model.UserID) ([]Habit, error)
	Update(ctx context.Context, h Habit) error
	Delete(ctx context.Context, userID model.UserID, id model.TaskID) error
}

func newID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

type MemoryRepo struct {
	mu     sync.RWMutex
	habits map[model.TaskID]Habit
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{habits: map[model.TaskID]Habit{}}
}

func (r *MemoryRepo) Create(_ context.Context, h Habit) (Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.ID = model.TaskID(newID("habit"))
	h.CreatedAt = time.Now().UTC()
	r.habits[h.ID] = h
	return h, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID model.UserID, id model.TaskID) (Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.habits[id]
	if !ok || h.UserID != userID {
		return Habit{}, ErrNotFound
	}
	return h, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID model.UserID) ([]Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Habit
	for _, h := range r.habits {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, h Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.habits[h.ID]
	if !ok || cur.UserID != h.UserID {
		return ErrNotFound
	}
	r.habits[h.ID] = h
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID model.UserID, id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.habits[id]
	if !ok || h.UserID != userID {
		return ErrNotFound
	}
	delete(r.habits, id)
	return nil
}

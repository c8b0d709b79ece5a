package daily

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

var ErrNotFound = errors.New("daily not found")

type Repo interface {
	Create(ctx context.Context, d Daily) (Daily, error)
	Get(ctx context.Context, userID model.UserID, id model.TaskID) (Daily, error)
	ListByUser(ctx context.Context, userID model.UserID) ([]Daily, error)
	Update(ctx context.Context, d Daily) error
	Delete(ctx context.Context, userID model.UserID, id model.TaskID) error
}

func newID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

type MemoryRepo struct {
	mu      sync.RWMutex
	dailies map[model.TaskID]Daily
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{dailies: map[model.TaskID]Daily{}}
}

func (r *MemoryRepo) Create(_ context.Context, d Daily) (Daily, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = model.TaskID(newID("daily"))
	d.CreatedAt = time.Now().UTC()
	r.dailies[d.ID] = d
	return d, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID model.UserID, id model.TaskID) (Daily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dailies[id]
	if !ok || d.UserID != userID {
		return Daily{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID model.UserID) ([]Daily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Daily
	for _, d := range r.dailies {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, d Daily) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.dailies[d.ID]
	if !ok || cur.UserID != d.UserID {
		return ErrNotFound
	}
	r.dailies[d.ID] = d
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID model.UserID, id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dailies[id]
	if !ok || d.UserID != userID {
		return ErrNotFound
	}
	delete(r.dailies, id)
	return nil
}

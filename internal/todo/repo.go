package todo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

type Repo interface {
	Create(ctx context.Context, t Todo) (Todo, error)
	Get(ctx context.Context, userID model.UserID, id model.TaskID) (Todo, error)
	// GetByID is the webhook lookup path: scheduler callbacks carry only the
	// todo identifier.
	GetByID(ctx context.Context, id model.TaskID) (Todo, error)
	ListByUser(ctx context.Context, userID model.UserID) ([]Todo, error)
	Update(ctx context.Context, t Todo) error
	// TransitionState moves a todo from one state to another only if it is
	// still in the from state, reporting whether the claim succeeded. The
	// schedule token is cleared on a successful claim; completed_at is
	// stamped when the target state is completed. This conditional update is
	// the idempotency guard for duplicate scheduler deliveries and for a
	// completion racing an overdue callback.
	TransitionState(ctx context.Context, id model.TaskID, from, to State) (bool, error)
	Delete(ctx context.Context, userID model.UserID, id model.TaskID) error
}

func newID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

type MemoryRepo struct {
	mu    sync.RWMutex
	todos map[model.TaskID]Todo
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{todos: map[model.TaskID]Todo{}}
}

func (r *MemoryRepo) Create(_ context.Context, t Todo) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = model.TaskID(newID("todo"))
	t.CreatedAt = time.Now().UTC()
	r.todos[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(_ context.Context, userID model.UserID, id model.TaskID) (Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id model.TaskID) (Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.todos[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID model.UserID) ([]Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, t Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.todos[t.ID]
	if !ok || cur.UserID != t.UserID {
		return ErrNotFound
	}
	r.todos[t.ID] = t
	return nil
}

func (r *MemoryRepo) TransitionState(_ context.Context, id model.TaskID, from, to State) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return false, ErrNotFound
	}
	if t.State != from {
		return false, nil
	}
	t.State = to
	t.ScheduleToken = ""
	if to == StateCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	r.todos[id] = t
	return true, nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID model.UserID, id model.TaskID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(r.todos, id)
	return nil
}

package activity

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

// ErrNothingToUndo is returned when an undo is requested for a task whose
// most recent log entry is not a revertible apply.
var ErrNothingToUndo = errors.New("nothing to undo")

type Repo interface {
	Append(ctx context.Context, e Entry) error
	// LastForTask returns the most recent entry for a task, or nil when the
	// task has no history yet.
	LastForTask(ctx context.Context, userID model.UserID, taskID model.TaskID) (*Entry, error)
	ListRecent(ctx context.Context, userID model.UserID, limit int) ([]Entry, error)
	ListSince(ctx context.Context, userID model.UserID, since time.Time) ([]Entry, error)
}

type MemoryRepo struct {
	mu      sync.RWMutex
	entries []Entry
	// lastByTask keeps an explicit pointer to the newest entry per task so
	// undo never scans the full log.
	lastByTask map[string]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{lastByTask: map[string]int{}}
}

func taskKey(userID model.UserID, taskID model.TaskID) string {
	return string(userID) + "/" + string(taskID)
}

func (r *MemoryRepo) Append(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	r.lastByTask[taskKey(e.UserID, e.TaskID)] = len(r.entries) - 1
	return nil
}

func (r *MemoryRepo) LastForTask(_ context.Context, userID model.UserID, taskID model.TaskID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.lastByTask[taskKey(userID, taskID)]
	if !ok {
		return nil, nil
	}
	e := r.entries[idx]
	return &e, nil
}

func (r *MemoryRepo) ListRecent(_ context.Context, userID model.UserID, limit int) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListSince(_ context.Context, userID model.UserID, since time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

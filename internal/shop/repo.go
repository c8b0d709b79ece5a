package shop

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

var ErrNotFound = errors.New("shop item not found")

type Repo interface {
	CreateItem(ctx context.Context, it Item) (Item, error)
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	DeleteItem(ctx context.Context, id string) error
	RecordPurchase(ctx context.Context, p Purchase) (Purchase, error)
	ListPurchases(ctx context.Context, userID model.UserID, limit int) ([]Purchase, error)
}

func newID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

type MemoryRepo struct {
	mu        sync.RWMutex
	items     map[string]Item
	purchases []Purchase
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: map[string]Item{}}
}

func (r *MemoryRepo) CreateItem(_ context.Context, it Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it.ID = newID("item")
	r.items[it.ID] = it
	return it, nil
}

func (r *MemoryRepo) GetItem(_ context.Context, id string) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (r *MemoryRepo) ListItems(_ context.Context) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) DeleteItem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepo) RecordPurchase(_ context.Context, p Purchase) (Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = newID("purchase")
	p.PurchasedAt = time.Now().UTC()
	r.purchases = append(r.purchases, p)
	return p, nil
}

func (r *MemoryRepo) ListPurchases(_ context.Context, userID model.UserID, limit int) ([]Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Purchase, 0, limit)
	for i := len(r.purchases) - 1; i >= 0 && len(out) < limit; i-- {
		if r.purchases[i].UserID == userID {
			out = append(out, r.purchases[i])
		}
	}
	return out, nil
}

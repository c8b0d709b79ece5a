package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

func newTestService(t *testing.T) (*Service, *user.Service, user.User) {
	t.Helper()
	bal := config.Default()
	users := user.NewService(user.NewMemoryRepo(), bal, "test-secret", 0, nil)
	u, err := users.Register(context.Background(), "dave", "dave@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewService(NewMemoryRepo(), activity.NewMemoryRepo(), users, nil), users, u
}

func TestBuyDebitsGoldAndRecordsPurchase(t *testing.T) {
	ctx := context.Background()
	svc, users, u := newTestService(t)

	it, err := svc.CreateItem(ctx, Item{Name: "small sword", Cost: 30, EffectType: EffectCosmetic})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, _, err := users.ApplyEffect(ctx, u.ID, stats.Effect{Gold: 50}); err != nil {
		t.Fatalf("grant gold: %v", err)
	}

	out, err := svc.Buy(ctx, u.ID, it.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if out.User.Stats.Gold != 20 {
		t.Fatalf("gold = %d, want 20", out.User.Stats.Gold)
	}
	if out.Purchase.ItemName != "small sword" || out.Purchase.Cost != 30 {
		t.Fatalf("purchase = %+v", out.Purchase)
	}

	history, err := svc.History(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
}

func TestBuyRejectedWhenBroke(t *testing.T) {
	ctx := context.Background()
	svc, _, u := newTestService(t)

	it, err := svc.CreateItem(ctx, Item{Name: "potion", Cost: 25, EffectType: EffectHPRestore})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := svc.Buy(ctx, u.ID, it.ID); !errors.Is(err, stats.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	history, err := svc.History(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rejected purchase must not be recorded")
	}
}

func TestHPRestoreClampsAtMax(t *testing.T) {
	ctx := context.Background()
	svc, users, u := newTestService(t)

	it, err := svc.CreateItem(ctx, Item{Name: "potion", Cost: 25, EffectType: EffectHPRestore})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	// Wound the user by 5, then heal 20; hp caps at max.
	if _, _, err := users.ApplyEffect(ctx, u.ID, stats.Effect{Gold: 100, HP: -5}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	out, err := svc.Buy(ctx, u.ID, it.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if out.User.Stats.HP != 100 {
		t.Fatalf("hp = %d, want clamped at 100", out.User.Stats.HP)
	}
}

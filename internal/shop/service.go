package shop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Service struct {
	shop   Repo
	log    activity.Repo
	users  *user.Service
	logger *log.Logger
}

func NewService(shop Repo, logRepo activity.Repo, users *user.Service, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{shop: shop, log: logRepo, users: users, logger: logger}
}

func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.shop.ListItems(ctx)
}

func (s *Service) CreateItem(ctx context.Context, it Item) (Item, error) {
	if it.Name == "" || it.Cost <= 0 {
		return Item{}, fmt.Errorf("item needs a name and a positive cost")
	}
	return s.shop.CreateItem(ctx, it)
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.shop.DeleteItem(ctx, id)
}

type BuyOutcome struct {
	Purchase Purchase  `json:"purchase"`
	User     user.User `json:"user"`
}

// Buy debits the item cost and applies its effect as a single ledger call,
// so there is no window where gold is spent but the effect missing.
// Insufficient gold rejects the whole purchase.
func (s *Service) Buy(ctx context.Context, userID model.UserID, itemID string) (BuyOutcome, error) {
	it, err := s.shop.GetItem(ctx, itemID)
	if err != nil {
		return BuyOutcome{}, err
	}

	effect := stats.Effect{Gold: -it.Cost}
	if it.EffectType == EffectHPRestore {
		effect.HP = hpRestoreAmount
	}

	u, applied, err := s.users.ApplyEffect(ctx, userID, effect)
	if err != nil {
		return BuyOutcome{}, err
	}

	p, err := s.shop.RecordPurchase(ctx, Purchase{
		UserID:   userID,
		ItemID:   it.ID,
		ItemName: it.Name,
		Cost:     it.Cost,
	})
	if err != nil {
		return BuyOutcome{}, err
	}

	entry := activity.New(userID, model.TaskID(it.ID), applied, activity.DirectionApply,
		activity.KindPurchase, fmt.Sprintf("bought %s", it.Name), time.Now().UTC())
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Printf(`{"msg":"activity append failed","item":%q,"err":%q}`, it.ID, err.Error())
	}

	return BuyOutcome{Purchase: p, User: u}, nil
}

func (s *Service) History(ctx context.Context, userID model.UserID, limit int) ([]Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.shop.ListPurchases(ctx, userID, limit)
}

package shop

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func (r *SQLiteRepo) CreateItem(ctx context.Context, it Item) (Item, error) {
	it.ID = newID("item")
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shop_items (id, name, cost, description, effect_type)
		VALUES (?, ?, ?, ?, ?)
	`, it.ID, it.Name, it.Cost, it.Description, it.EffectType)
	if err != nil {
		return Item{}, fmt.Errorf("item create: %w", err)
	}
	return it, nil
}

func (r *SQLiteRepo) GetItem(ctx context.Context, id string) (Item, error) {
	var it Item
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, cost, description, effect_type FROM shop_items WHERE id = ?
	`, id).Scan(&it.ID, &it.Name, &it.Cost, &description, &it.EffectType)
	if err == sql.ErrNoRows {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("item get: %w", err)
	}
	it.Description = description.String
	return it, nil
}

func (r *SQLiteRepo) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, cost, description, effect_type FROM shop_items ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("item list: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var description sql.NullString
		if err := rows.Scan(&it.ID, &it.Name, &it.Cost, &description, &it.EffectType); err != nil {
			return nil, fmt.Errorf("item scan: %w", err)
		}
		it.Description = description.String
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shop_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("item delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("item delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) RecordPurchase(ctx context.Context, p Purchase) (Purchase, error) {
	p.ID = newID("purchase")
	p.PurchasedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, item_id, item_name, cost, purchased_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.ItemID, p.ItemName, p.Cost, p.PurchasedAt)
	if err != nil {
		return Purchase{}, fmt.Errorf("purchase record: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepo) ListPurchases(ctx context.Context, userID model.UserID, limit int) ([]Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, item_name, cost, purchased_at
		FROM purchases WHERE user_id = ?
		ORDER BY purchased_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("purchase list: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &p.ItemName, &p.Cost, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("purchase scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

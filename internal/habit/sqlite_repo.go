package habit

import (
	"context"
	"database/sql"
	"encoding/json"
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

const habitColumns = `id, user_id, title, type, difficulty, description, current_streak, best_streak, last_triggered_at, milestones, created_at`

func (r *SQLiteRepo) Create(ctx context.Context, h Habit) (Habit, error) {
	h.ID = model.TaskID(newID("habit"))
	h.CreatedAt = time.Now().UTC()
	if h.Milestones == nil {
		h.Milestones = []Milestone{}
	}
	milestones, err := json.Marshal(h.Milestones)
	if err != nil {
		return Habit{}, fmt.Errorf("habit create: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.UserID, h.Title, h.Type, h.Difficulty, h.Description,
		h.CurrentStreak, h.BestStreak, h.LastTriggeredAt, string(milestones), h.CreatedAt)
	if err != nil {
		return Habit{}, fmt.Errorf("habit create: %w", err)
	}
	return h, nil
}

func scanHabit(row interface{ Scan(...any) error }) (Habit, error) {
	var h Habit
	var description sql.NullString
	var lastTriggered sql.NullTime
	var milestones string
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Type, &h.Difficulty, &description,
		&h.CurrentStreak, &h.BestStreak, &lastTriggered, &milestones, &h.CreatedAt)
	if err != nil {
		return Habit{}, err
	}
	h.Description = description.String
	if lastTriggered.Valid {
		t := lastTriggered.Time
		h.LastTriggeredAt = &t
	}
	if err := json.Unmarshal([]byte(milestones), &h.Milestones); err != nil {
		return Habit{}, fmt.Errorf("habit milestones: %w", err)
	}
	return h, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, userID model.UserID, id model.TaskID) (Habit, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+` FROM habits WHERE id = ? AND user_id = ?
	`, id, userID)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return Habit{}, ErrNotFound
	}
	if err != nil {
		return Habit{}, fmt.Errorf("habit get: %w", err)
	}
	return h, nil
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID model.UserID) ([]Habit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("habit list: %w", err)
	}
	defer rows.Close()

	var out []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("habit scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Update(ctx context.Context, h Habit) error {
	milestones, err := json.Marshal(h.Milestones)
	if err != nil {
		return fmt.Errorf("habit update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE habits
		SET title = ?, type = ?, difficulty = ?, description = ?,
		    current_streak = ?, best_streak = ?, last_triggered_at = ?, milestones = ?
		WHERE id = ? AND user_id = ?
	`, h.Title, h.Type, h.Difficulty, h.Description,
		h.CurrentStreak, h.BestStreak, h.LastTriggeredAt, string(milestones), h.ID, h.UserID)
	if err != nil {
		return fmt.Errorf("habit update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("habit update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, userID model.UserID, id model.TaskID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("habit delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("habit delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

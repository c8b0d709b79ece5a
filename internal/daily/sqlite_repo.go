package daily

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

const dailyColumns = `id, user_id, title, difficulty, done, streak, last_completed_date, created_at`

func (r *SQLiteRepo) Create(ctx context.Context, d Daily) (Daily, error) {
	d.ID = model.TaskID(newID("daily"))
	d.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dailies (`+dailyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.UserID, d.Title, d.Difficulty, d.Done, d.Streak, d.LastCompletedDate, d.CreatedAt)
	if err != nil {
		return Daily{}, fmt.Errorf("daily create: %w", err)
	}
	return d, nil
}

func scanDaily(row interface{ Scan(...any) error }) (Daily, error) {
	var d Daily
	var difficulty, lastDate sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &difficulty, &d.Done, &d.Streak, &lastDate, &d.CreatedAt)
	if err != nil {
		return Daily{}, err
	}
	d.Difficulty = model.Difficulty(difficulty.String)
	d.LastCompletedDate = lastDate.String
	return d, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, userID model.UserID, id model.TaskID) (Daily, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+dailyColumns+` FROM dailies WHERE id = ? AND user_id = ?
	`, id, userID)
	d, err := scanDaily(row)
	if err == sql.ErrNoRows {
		return Daily{}, ErrNotFound
	}
	if err != nil {
		return Daily{}, fmt.Errorf("daily get: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID model.UserID) ([]Daily, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dailyColumns+` FROM dailies WHERE user_id = ? ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("daily list: %w", err)
	}
	defer rows.Close()
	return collectDailies(rows)
}

func collectDailies(rows *sql.Rows) ([]Daily, error) {
	var out []Daily
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("daily scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Update(ctx context.Context, d Daily) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dailies
		SET title = ?, difficulty = ?, done = ?, streak = ?, last_completed_date = ?
		WHERE id = ? AND user_id = ?
	`, d.Title, d.Difficulty, d.Done, d.Streak, d.LastCompletedDate, d.ID, d.UserID)
	if err != nil {
		return fmt.Errorf("daily update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("daily update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, userID model.UserID, id model.TaskID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dailies WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("daily delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("daily delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

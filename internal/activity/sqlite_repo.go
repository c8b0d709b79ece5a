package activity

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

func (r *SQLiteRepo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, user_id, task_id, xp_delta, gold_delta, hp_delta, direction, kind, message, state, prev_streak, prev_best_streak, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.TaskID, e.Effect.XP, e.Effect.Gold, e.Effect.HP, e.Direction, e.Kind, e.Message, e.State, e.PrevStreak, e.PrevBestStreak, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("activity append: %w", err)
	}
	return nil
}

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	var prevStreak, prevBest sql.NullInt64
	var state sql.NullString
	var message sql.NullString
	err := row.Scan(&e.ID, &e.UserID, &e.TaskID, &e.Effect.XP, &e.Effect.Gold, &e.Effect.HP,
		&e.Direction, &e.Kind, &message, &state, &prevStreak, &prevBest, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Message = message.String
	e.State = state.String
	if prevStreak.Valid {
		v := int(prevStreak.Int64)
		e.PrevStreak = &v
	}
	if prevBest.Valid {
		v := int(prevBest.Int64)
		e.PrevBestStreak = &v
	}
	return e, nil
}

const entryColumns = `id, user_id, task_id, xp_delta, gold_delta, hp_delta, direction, kind, message, state, prev_streak, prev_best_streak, created_at`

func (r *SQLiteRepo) LastForTask(ctx context.Context, userID model.UserID, taskID model.TaskID) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM activity_log
		WHERE user_id = ? AND task_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID, taskID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("activity last: %w", err)
	}
	return &e, nil
}

func (r *SQLiteRepo) ListRecent(ctx context.Context, userID model.UserID, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("activity recent: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *SQLiteRepo) ListSince(ctx context.Context, userID model.UserID, since time.Time) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM activity_log
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, rowid ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("activity since: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("activity scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

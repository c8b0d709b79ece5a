package todo

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

const todoColumns = `id, user_id, title, description, difficulty, state, deadline, reward_gold, reward_xp, loan_amount, schedule_token, renew_count, created_at, completed_at`

func (r *SQLiteRepo) Create(ctx context.Context, t Todo) (Todo, error) {
	t.ID = model.TaskID(newID("todo"))
	t.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Title, t.Description, t.Difficulty, t.State, t.Deadline,
		t.RewardGold, t.RewardXP, t.LoanAmount, nullString(t.ScheduleToken), t.RenewCount,
		t.CreatedAt, t.CompletedAt)
	if err != nil {
		return Todo{}, fmt.Errorf("todo create: %w", err)
	}
	return t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanTodo(row interface{ Scan(...any) error }) (Todo, error) {
	var t Todo
	var description, token sql.NullString
	var deadline, completedAt sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Difficulty, &t.State,
		&deadline, &t.RewardGold, &t.RewardXP, &t.LoanAmount, &token, &t.RenewCount,
		&t.CreatedAt, &completedAt)
	if err != nil {
		return Todo{}, err
	}
	t.Description = description.String
	t.ScheduleToken = token.String
	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	if completedAt.Valid {
		c := completedAt.Time
		t.CompletedAt = &c
	}
	return t, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, userID model.UserID, id model.TaskID) (Todo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?
	`, id, userID)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("todo get: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id model.TaskID) (Todo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+` FROM todos WHERE id = ?
	`, id)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("todo get: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID model.UserID) ([]Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+todoColumns+` FROM todos WHERE user_id = ? ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("todo list: %w", err)
	}
	defer rows.Close()

	var out []Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("todo scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Update(ctx context.Context, t Todo) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, difficulty = ?, state = ?, deadline = ?,
		    loan_amount = ?, schedule_token = ?, renew_count = ?, completed_at = ?
		WHERE id = ? AND user_id = ?
	`, t.Title, t.Description, t.Difficulty, t.State, t.Deadline,
		t.LoanAmount, nullString(t.ScheduleToken), t.RenewCount, t.CompletedAt,
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("todo update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) TransitionState(ctx context.Context, id model.TaskID, from, to State) (bool, error) {
	var completedAt any
	if to == StateCompleted {
		completedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET state = ?, schedule_token = NULL, completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND state = ?
	`, to, completedAt, id, from)
	if err != nil {
		return false, fmt.Errorf("todo transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("todo transition: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	// Distinguish a lost claim from a missing row.
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM todos WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
		return false, ErrNotFound
	} else if err != nil {
		return false, fmt.Errorf("todo transition: %w", err)
	}
	return false, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, userID model.UserID, id model.TaskID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("todo delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
)

type SQLiteRepo struct {
	db *sql.DB
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

const userColumns = `id, username, email, password_hash, role, hp, xp, xp_cap, gold, level, stats_version, last_cron_check, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var lastCron sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.Stats.HP, &u.Stats.XP, &u.Stats.XPCap, &u.Stats.Gold, &u.Stats.Level,
		&u.StatsVersion, &lastCron, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	if lastCron.Valid {
		t := lastCron.Time
		u.LastCronCheck = &t
	}
	return u, nil
}

func (r *SQLiteRepo) Create(ctx context.Context, u User) (User, error) {
	u.ID = model.UserID(newID("user"))
	u.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, hp, xp, xp_cap, gold, level, stats_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
		u.Stats.HP, u.Stats.XP, u.Stats.XPCap, u.Stats.Gold, u.Stats.Level, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("user insert: %w", err)
	}
	u.StatsVersion = 0
	return u, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id model.UserID) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user get: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("user get by username: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("user list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateStatsCAS(ctx context.Context, id model.UserID, expected int64, s stats.Stats) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET hp = ?, xp = ?, xp_cap = ?, gold = ?, level = ?, stats_version = stats_version + 1
		WHERE id = ? AND stats_version = ?
	`, s.HP, s.XP, s.XPCap, s.Gold, s.Level, id, expected)
	if err != nil {
		return fmt.Errorf("user stats update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user stats update: %w", err)
	}
	if n == 0 {
		// Distinguish missing vs stale.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *SQLiteRepo) SetLastCronCheck(ctx context.Context, id model.UserID, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_cron_check = ? WHERE id = ?`, t, id)
	if err != nil {
		return fmt.Errorf("user last cron update: %w", err)
	}
	return nil
}

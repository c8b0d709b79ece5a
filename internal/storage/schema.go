package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',

			hp INTEGER NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			xp_cap INTEGER NOT NULL,
			gold INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			stats_version INTEGER NOT NULL DEFAULT 0,

			last_cron_check DATETIME,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS habits (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			type TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			description TEXT,

			current_streak INTEGER NOT NULL DEFAULT 0,
			best_streak INTEGER NOT NULL DEFAULT 0,
			last_triggered_at DATETIME,
			milestones TEXT NOT NULL DEFAULT '[]',

			created_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			difficulty TEXT NOT NULL,

			state TEXT NOT NULL,
			deadline DATETIME,
			reward_gold INTEGER NOT NULL,
			reward_xp INTEGER NOT NULL,
			loan_amount INTEGER NOT NULL DEFAULT 0,
			schedule_token TEXT,
			renew_count INTEGER NOT NULL DEFAULT 0,

			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS dailies (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			difficulty TEXT,

			done INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_completed_date TEXT,

			created_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			xp_delta INTEGER NOT NULL,
			gold_delta INTEGER NOT NULL,
			hp_delta INTEGER NOT NULL,
			direction TEXT NOT NULL,
			kind TEXT NOT NULL,
			message TEXT,
			state TEXT,
			prev_streak INTEGER,
			prev_best_streak INTEGER,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shop_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cost INTEGER NOT NULL,
			description TEXT,
			effect_type TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			cost INTEGER NOT NULL,
			purchased_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_dailies_user_id ON dailies(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_task ON activity_log(user_id, task_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_user_time ON activity_log(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id, purchased_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

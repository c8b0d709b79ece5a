package model

type UserID string

// TaskID identifies any economy-bearing task record (habit, todo, daily).
// Activity log entries are keyed by (UserID, TaskID).
type TaskID string

package models

import "time"

// UserStats is the cached per-user aggregate row. It is recomputed
// wholesale from the expense ledger after every mutation and is never
// authoritative; concurrent writers for the same user may lose an
// update, which is acceptable for a cache.
type UserStats struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	TotalExpenses int       `json:"total_expenses"`
	TotalAmount   float64   `json:"total_amount"`
	StreakDays    int       `json:"streak_days"`
	LastActivity  time.Time `json:"last_activity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StatsReport is the read-path aggregation returned by GET /api/stats,
// computed fresh from the ledger on every request. StreakDays is the
// only field read from the cached UserStats row.
type StatsReport struct {
	TotalExpenses  int                `json:"total_expenses"`
	TotalAmount    float64            `json:"total_amount"`
	Categories     map[string]float64 `json:"categories"`
	RecentExpenses []Expense          `json:"recent_expenses"`
	StreakDays     int                `json:"streak_days"`
	DailyAverage   float64            `json:"daily_average"`
}

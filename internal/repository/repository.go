package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/config"
	"github.com/finmate/finmate-api/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to the configured database. Without a postgres DSN it
// falls back to a local SQLite file, mirroring development setups.
func Open(cfg *config.Config, log *logrus.Logger) (*sql.DB, string, error) {
	driver, dsn := "postgres", cfg.DBConn
	if dsn == "" {
		driver, dsn = "sqlite", cfg.SQLitePath
		log.Warn("DB_CONN not set: using local SQLite database, set DB_CONN for production")
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, "", fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}
	return db, driver, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	query := `
		INSERT INTO users (id, external_uid, email, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.ExternalUID, user.Email, user.DisplayName, user.CreatedAt, user.UpdatedAt); err != nil {
		return apperrors.Storage("create user", err)
	}
	return nil
}

// FindUserByExternalUID retrieves a user by external identity id,
// returning apperrors.ErrNotFound when no such user exists.
func (r *Repository) FindUserByExternalUID(ctx context.Context, externalUID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, external_uid, email, display_name, created_at, updated_at
		FROM users
		WHERE external_uid = $1`
	err := r.db.QueryRowContext(ctx, query, externalUID).
		Scan(&user.ID, &user.ExternalUID, &user.Email, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("find user", err)
	}
	return user, nil
}

// CreateExpense inserts an expense and fills in its generated id.
func (r *Repository) CreateExpense(ctx context.Context, expense *models.Expense) error {
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	query := `
		INSERT INTO expenses (user_id, amount, category, note, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		expense.UserID, expense.Amount, expense.Category, expense.Note,
		expense.Date, expense.CreatedAt, expense.UpdatedAt).Scan(&expense.ID); err != nil {
		return apperrors.Storage("create expense", err)
	}
	return nil
}

// ListExpenses returns all expenses for a user, newest event date
// first. Date ties keep insertion order.
func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	query := `
		SELECT id, user_id, amount, category, note, date, created_at, updated_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Storage("list expenses", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Note,
			&e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, apperrors.Storage("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list expenses", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense scoped by id AND owner, so one
// user can never delete another user's rows.
func (r *Repository) DeleteExpense(ctx context.Context, userID string, expenseID int64) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, expenseID, userID)
	if err != nil {
		return apperrors.Storage("delete expense", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete expense", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountAndSumExpenses returns the total count and amount for a user,
// zero values when the user has no expenses.
func (r *Repository) CountAndSumExpenses(ctx context.Context, userID string) (int, float64, error) {
	var count int
	var sum float64
	query := `SELECT COUNT(id), COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count, &sum); err != nil {
		return 0, 0, apperrors.Storage("count expenses", err)
	}
	return count, sum, nil
}

// GetStats retrieves the cached stats row for a user, returning
// apperrors.ErrNotFound when none exists yet.
func (r *Repository) GetStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}
	query := `
		SELECT id, user_id, total_expenses, total_amount, streak_days, last_activity, created_at, updated_at
		FROM user_stats
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.ID, &stats.UserID, &stats.TotalExpenses, &stats.TotalAmount,
			&stats.StreakDays, &stats.LastActivity, &stats.CreatedAt, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("get stats", err)
	}
	return stats, nil
}

// UpsertStats creates or replaces the single stats row for a user.
func (r *Repository) UpsertStats(ctx context.Context, stats *models.UserStats) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO user_stats (user_id, total_expenses, total_amount, streak_days, last_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			total_expenses = excluded.total_expenses,
			total_amount = excluded.total_amount,
			streak_days = excluded.streak_days,
			last_activity = excluded.last_activity,
			updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		stats.UserID, stats.TotalExpenses, stats.TotalAmount, stats.StreakDays,
		stats.LastActivity, now, now); err != nil {
		return apperrors.Storage("upsert stats", err)
	}
	return nil
}

// ListUserIDsWithExpenses returns every user id owning at least one
// expense, for the reconciliation job.
func (r *Repository) ListUserIDsWithExpenses(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM expenses`)
	if err != nil {
		return nil, apperrors.Storage("list user ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Storage("scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list user ids", err)
	}
	return ids, nil
}

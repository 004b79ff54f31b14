package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(db, "sqlite"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewRepository(db)
}

func mustCreateUser(t *testing.T, repo *Repository, externalUID string) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.NewString(),
		ExternalUID: externalUID,
		Email:       externalUID + "@example.com",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateExpense(t *testing.T, repo *Repository, userID string, amount float64, category string, date time.Time) *models.Expense {
	t.Helper()
	expense := &models.Expense{
		UserID:   userID,
		Amount:   amount,
		Category: category,
		Date:     date,
	}
	if err := repo.CreateExpense(context.Background(), expense); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return expense
}

func TestCreateAndFindUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	name := "Test User"
	user := &models.User{
		ID:          uuid.NewString(),
		ExternalUID: "uid-1",
		Email:       "user@example.com",
		DisplayName: &name,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("timestamps not populated on create")
	}

	found, err := repo.FindUserByExternalUID(ctx, "uid-1")
	if err != nil {
		t.Fatalf("FindUserByExternalUID: %v", err)
	}
	if found.ID != user.ID || found.Email != user.Email {
		t.Errorf("found = %+v, want %+v", found, user)
	}
	if found.DisplayName == nil || *found.DisplayName != name {
		t.Errorf("DisplayName = %v, want %q", found.DisplayName, name)
	}

	if _, err := repo.FindUserByExternalUID(ctx, "uid-unknown"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("unknown uid: err = %v, want ErrNotFound", err)
	}
}

func TestListExpensesOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "uid-1")

	older := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	first := mustCreateExpense(t, repo, user.ID, 10, "Food", older)
	second := mustCreateExpense(t, repo, user.ID, 20, "Transport", newer)
	// Same event date as second: insertion order must break the tie.
	third := mustCreateExpense(t, repo, user.ID, 30, "Food", newer)

	expenses, err := repo.ListExpenses(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("len = %d, want 3", len(expenses))
	}
	wantOrder := []int64{second.ID, third.ID, first.ID}
	for i, want := range wantOrder {
		if expenses[i].ID != want {
			t.Errorf("expenses[%d].ID = %d, want %d", i, expenses[i].ID, want)
		}
	}
}

func TestDeleteExpenseScopedToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := mustCreateUser(t, repo, "uid-alice")
	bob := mustCreateUser(t, repo, "uid-bob")

	expense := mustCreateExpense(t, repo, alice.ID, 25.50, "Food", time.Now().UTC())

	// Another user must not be able to delete it.
	if err := repo.DeleteExpense(ctx, bob.ID, expense.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("cross-user delete: err = %v, want ErrNotFound", err)
	}
	remaining, err := repo.ListExpenses(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expense disappeared after cross-user delete attempt")
	}

	if err := repo.DeleteExpense(ctx, alice.ID, expense.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := repo.DeleteExpense(ctx, alice.ID, expense.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestCountAndSumExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "uid-1")

	count, sum, err := repo.CountAndSumExpenses(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountAndSumExpenses: %v", err)
	}
	if count != 0 || sum != 0 {
		t.Errorf("empty ledger: count=%d sum=%f, want zeros", count, sum)
	}

	mustCreateExpense(t, repo, user.ID, 10.25, "Food", time.Now().UTC())
	mustCreateExpense(t, repo, user.ID, 20.50, "Transport", time.Now().UTC())

	count, sum, err = repo.CountAndSumExpenses(ctx, user.ID)
	if err != nil {
		t.Fatalf("CountAndSumExpenses: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if sum != 30.75 {
		t.Errorf("sum = %f, want 30.75", sum)
	}
}

func TestUpsertStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "uid-1")

	if _, err := repo.GetStats(ctx, user.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("GetStats before upsert: err = %v, want ErrNotFound", err)
	}

	if err := repo.UpsertStats(ctx, &models.UserStats{
		UserID: user.ID, TotalExpenses: 1, TotalAmount: 10, StreakDays: 3,
		LastActivity: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpsertStats: %v", err)
	}
	first, err := repo.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if first.TotalExpenses != 1 || first.TotalAmount != 10 || first.StreakDays != 3 {
		t.Errorf("stats = %+v", first)
	}

	if err := repo.UpsertStats(ctx, &models.UserStats{
		UserID: user.ID, TotalExpenses: 2, TotalAmount: 30, StreakDays: 3,
		LastActivity: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("second UpsertStats: %v", err)
	}
	second, err := repo.GetStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a second row: id %d -> %d", first.ID, second.ID)
	}
	if second.TotalExpenses != 2 || second.TotalAmount != 30 {
		t.Errorf("stats after update = %+v", second)
	}
}

func TestListUserIDsWithExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := mustCreateUser(t, repo, "uid-alice")
	bob := mustCreateUser(t, repo, "uid-bob")
	mustCreateUser(t, repo, "uid-idle")

	mustCreateExpense(t, repo, alice.ID, 10, "Food", time.Now().UTC())
	mustCreateExpense(t, repo, alice.ID, 20, "Food", time.Now().UTC())
	mustCreateExpense(t, repo, bob.ID, 30, "Transport", time.Now().UTC())

	ids, err := repo.ListUserIDsWithExpenses(ctx)
	if err != nil {
		t.Fatalf("ListUserIDsWithExpenses: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want two users", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[alice.ID] || !seen[bob.ID] {
		t.Errorf("ids = %v, want %s and %s", ids, alice.ID, bob.ID)
	}
}

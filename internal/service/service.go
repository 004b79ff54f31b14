package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/auth"
	"github.com/finmate/finmate-api/internal/models"
	"github.com/finmate/finmate-api/internal/repository"
	"github.com/finmate/finmate-api/internal/utils/email"
)

const maxCategoryLen = 100

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	mailer *email.Sender // nil when SMTP is not configured
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, mailer *email.Sender) *Service {
	return &Service{repo: repo, log: log, mailer: mailer}
}

// ResolveUser maps a verified external identity to the internal user,
// creating one on first sight. Repeated calls are idempotent; email and
// display name are first-write-wins and not updated afterwards.
func (s *Service) ResolveUser(ctx context.Context, ident *auth.Identity) (*models.User, error) {
	user, err := s.repo.FindUserByExternalUID(ctx, ident.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:          uuid.NewString(),
		ExternalUID: ident.UID,
		Email:       ident.Email,
	}
	if ident.Name != "" {
		name := ident.Name
		user.DisplayName = &name
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// A concurrent first request for the same identity may have won
		// the insert.
		if existing, findErr := s.repo.FindUserByExternalUID(ctx, ident.UID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	s.log.Infof("User created: %s", user.Email)

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(user.Email, ident.Name); err != nil {
			s.log.Errorf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// ListExpenses returns the user's expenses, newest event date first.
func (s *Service) ListExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.repo.ListExpenses(ctx, userID)
}

// CreateExpense validates and persists a new expense, then refreshes
// the cached stats row. A stats failure is logged and swallowed: the
// cache catches up on the next successful mutation.
func (s *Service) CreateExpense(ctx context.Context, userID string, req models.CreateExpenseRequest) (*models.Expense, error) {
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, apperrors.NewValidation("amount", "Amount must be a positive number")
	}
	if strings.TrimSpace(req.Category) == "" || utf8.RuneCountInString(req.Category) > maxCategoryLen {
		return nil, apperrors.NewValidation("category", "Category must be between 1 and 100 characters")
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			return nil, apperrors.NewValidation("date", "Date must be an RFC 3339 timestamp or YYYY-MM-DD")
		}
		date = parsed
	}

	expense := &models.Expense{
		UserID:   userID,
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
		Date:     date,
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	s.log.Infof("Expense created for user %s: %.2f (%s)", userID, expense.Amount, expense.Category)

	if err := s.RecomputeStats(ctx, userID); err != nil {
		s.log.Errorf("Failed to update stats for user %s: %v", userID, err)
	}
	return expense, nil
}

// DeleteExpense hard-deletes an expense owned by the user and refreshes
// the cached stats row.
func (s *Service) DeleteExpense(ctx context.Context, userID string, expenseID int64) error {
	if err := s.repo.DeleteExpense(ctx, userID, expenseID); err != nil {
		return err
	}
	s.log.Infof("Expense %d deleted for user %s", expenseID, userID)

	if err := s.RecomputeStats(ctx, userID); err != nil {
		s.log.Errorf("Failed to update stats for user %s: %v", userID, err)
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

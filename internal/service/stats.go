package service

import (
	"context"
	"errors"
	"time"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/models"
)

// The daily average always divides by 30, even when the user has
// fewer than 30 days of data.
const dailyAverageDays = 30

// RecomputeStats rebuilds the cached UserStats row wholesale from the
// expense ledger. streak_days is carried over unmodified; nothing in
// the system ever derives it from expense dates.
func (s *Service) RecomputeStats(ctx context.Context, userID string) error {
	count, sum, err := s.repo.CountAndSumExpenses(ctx, userID)
	if err != nil {
		return err
	}

	streak := 0
	if prev, err := s.repo.GetStats(ctx, userID); err == nil {
		streak = prev.StreakDays
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	return s.repo.UpsertStats(ctx, &models.UserStats{
		UserID:        userID,
		TotalExpenses: count,
		TotalAmount:   sum,
		StreakDays:    streak,
		LastActivity:  time.Now().UTC(),
	})
}

// GetStats computes the read-path aggregation fresh from the ledger.
// Only streak_days comes from the cached row.
func (s *Service) GetStats(ctx context.Context, userID string) (*models.StatsReport, error) {
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &models.StatsReport{
		Categories:     map[string]float64{},
		RecentExpenses: []models.Expense{},
	}
	if len(expenses) == 0 {
		return report, nil
	}

	var total float64
	for _, e := range expenses {
		total += e.Amount
		report.Categories[e.Category] += e.Amount
	}
	report.TotalExpenses = len(expenses)
	report.TotalAmount = total

	// First 10 of the date-descending list, not re-sorted.
	recent := expenses
	if len(recent) > 10 {
		recent = recent[:10]
	}
	report.RecentExpenses = recent

	cutoff := time.Now().UTC().AddDate(0, 0, -dailyAverageDays)
	var windowSum float64
	for _, e := range expenses {
		if !e.Date.Before(cutoff) {
			windowSum += e.Amount
		}
	}
	report.DailyAverage = windowSum / dailyAverageDays

	if stats, err := s.repo.GetStats(ctx, userID); err == nil {
		report.StreakDays = stats.StreakDays
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return report, nil
}

// ReconcileStats recomputes the cached stats row for every user owning
// expenses. Run from the optional cron job; the cache is not
// authoritative, so recomputing is always safe.
func (s *Service) ReconcileStats(ctx context.Context) error {
	userIDs, err := s.repo.ListUserIDsWithExpenses(ctx)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.RecomputeStats(ctx, userID); err != nil {
			s.log.Errorf("Failed to reconcile stats for user %s: %v", userID, err)
		}
	}
	s.log.Infof("Stats reconciled for %d users", len(userIDs))
	return nil
}

package service

import (
	"context"

	"github.com/finmate/finmate-api/internal/models"
)

// Spending thresholds for the learning-path level.
const (
	intermediateThreshold = 1000
	advancedThreshold     = 5000
)

var learningModules = map[string][]models.LearningModule{
	"beginner": {
		{Title: "Budgeting Basics", Description: "Learn the fundamentals of creating and sticking to a budget", Duration: "15 min", Icon: "📊"},
		{Title: "Emergency Fund", Description: "Why you need an emergency fund and how to build one", Duration: "10 min", Icon: "🛡️"},
		{Title: "Smart Spending", Description: "Tips for making better spending decisions", Duration: "12 min", Icon: "💡"},
	},
	"intermediate": {
		{Title: "Investment Fundamentals", Description: "Introduction to investing and compound interest", Duration: "20 min", Icon: "📈"},
		{Title: "Debt Management", Description: "Strategies for managing and eliminating debt", Duration: "18 min", Icon: "💳"},
		{Title: "Tax Optimization", Description: "Understanding taxes and finding deductions", Duration: "25 min", Icon: "📋"},
	},
	"advanced": {
		{Title: "Portfolio Diversification", Description: "Advanced investment strategies and risk management", Duration: "30 min", Icon: "🎯"},
		{Title: "Passive Income", Description: "Building multiple income streams", Duration: "35 min", Icon: "💰"},
		{Title: "Estate Planning", Description: "Planning for the future and wealth transfer", Duration: "40 min", Icon: "🏛️"},
	},
}

// LearningPath picks a fixed module catalog based on how much the user
// has spent overall.
func (s *Service) LearningPath(ctx context.Context, userID string) (*models.LearningPathResponse, error) {
	count, total, err := s.repo.CountAndSumExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}

	level := "beginner"
	switch {
	case total >= advancedThreshold:
		level = "advanced"
	case total >= intermediateThreshold:
		level = "intermediate"
	}

	return &models.LearningPathResponse{
		Level:        level,
		Modules:      learningModules[level],
		TotalSpent:   total,
		ExpenseCount: count,
	}, nil
}

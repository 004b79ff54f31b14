package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/finmate/finmate-api/internal/auth"
	"github.com/finmate/finmate-api/internal/config"
	"github.com/finmate/finmate-api/internal/handler"
	"github.com/finmate/finmate-api/internal/integrations/advisor"
	"github.com/finmate/finmate-api/internal/repository"
	"github.com/finmate/finmate-api/internal/service"
	"github.com/finmate/finmate-api/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not found")
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET not set: generated an ephemeral secret, signed artifacts will not survive a restart")
	}

	// Initialize database
	db, driver, err := repository.Open(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := repository.RunMigrations(db, driver); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	var mailer *email.Sender
	if cfg.SMTPConfigured() {
		mailer = email.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, logger, mailer)
	verifier := auth.NewVerifier(cfg, logger)
	adv := advisor.NewClient(cfg, logger)
	h := handler.NewHandler(svc, verifier, adv, db, logger)

	// Optional stats reconciliation job
	if cfg.ReconcileSpec != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.ReconcileSpec, func() {
			if err := svc.ReconcileStats(context.Background()); err != nil {
				logger.Errorf("Stats reconciliation failed: %v", err)
			}
		}); err != nil {
			logger.Fatalf("Invalid STATS_RECONCILE_SPEC: %v", err)
		}
		c.Start()
		defer c.Stop()
		logger.Infof("Stats reconciliation scheduled: %s", cfg.ReconcileSpec)
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, verifier, svc, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

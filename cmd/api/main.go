package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/config"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/db"
	httphandler "github.com/CTNMjm/dsgvo-llm-sub000/internal/http"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/http/handlers"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/mailer"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/repo"
	"github.com/CTNMjm/dsgvo-llm-sub000/internal/spam"
)

func main() {
	_ = godotenv.Load(".env")

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}

	ctx := context.Background()

	logger.Info("connecting to database", zap.String("dsn", db.RedactedDSN(cfg.DatabaseURL)))
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	memberRepo := repo.NewMemberRepo(database)
	codeRepo := repo.NewLoginCodeRepo(database)
	sessionRepo := repo.NewSessionRepo(database)
	moderationRepo := repo.NewModerationRepo(database)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		logger.Warn("SMTP not configured, mail goes to the log")
		mail = mailer.NewLogMailer(logger)
	}

	authService := auth.NewService(codeRepo, memberRepo, sessionRepo, mail, logger).
		WithTTLs(cfg.CodeTTL, cfg.SessionTTL)
	adminTokens := auth.NewAdminTokenService(cfg.AdminJWTSecret)
	checker := spam.NewDefaultChecker()

	authHandler := handlers.NewAuthHandler(authService, logger, cfg.SessionTTL, !cfg.DevMode)
	commentHandler := handlers.NewCommentHandler(moderationRepo, checker, mail, cfg.AdminEmail, logger)
	adminHandler := handlers.NewAdminHandler(moderationRepo, checker, logger)

	router := httphandler.NewRouter(authHandler, commentHandler, adminHandler, authService, adminTokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/config"
	"github.com/pavelkurin/portfolio_backend/internal/contacts"
	"github.com/pavelkurin/portfolio_backend/internal/hash"
	"github.com/pavelkurin/portfolio_backend/internal/httpserver"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/mail"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
	"github.com/pavelkurin/portfolio_backend/internal/store"
	"github.com/pavelkurin/portfolio_backend/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	var db *gorm.DB
	var err error
	if cfg.IsDevelopment() && cfg.DatabaseURL == "" {
		db, err = store.OpenSQLiteMemory()
	} else {
		db, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	credStore := store.NewGormStore(db)
	signer := tokens.NewSigner(cfg.JWTSecret)
	hasher := hash.Bcrypt{}
	policy := authz.Policy{DefaultSuperUserEmail: cfg.SuperUserEmail}

	var mailer mail.Mailer = mail.LogMailer{}
	var kafkaMailer *mail.KafkaMailer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaMailer = mail.NewKafkaMailer(cfg.KafkaBrokers, cfg.MailTopic)
		mailer = kafkaMailer
	}

	esClient, err := contacts.NewESClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		log.Fatalf("elasticsearch init: %v", err)
	}

	sessions := &service.SessionService{
		Store:      credStore,
		Signer:     signer,
		Hasher:     hasher,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTTL,
	}
	accounts := &service.AccountService{
		Store:  credStore,
		Policy: policy,
		Hasher: hasher,
		Mailer: mailer,
	}
	recovery := &service.RecoveryService{
		Store:      credStore,
		Signer:     signer,
		Hasher:     hasher,
		Mailer:     mailer,
		BaseURL:    cfg.BaseURL,
		ResetTTL:   cfg.ResetTokenTTL,
		ConfirmTTL: 10 * time.Minute,
	}
	mailbox := &contacts.Service{
		DB:     db,
		ES:     esClient,
		Index:  cfg.ESIndex,
		Policy: policy,
	}

	if err := seedSuperUser(ctx, credStore, hasher, cfg); err != nil {
		log.Fatalf("superuser seed: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &httpserver.AuthHandler{Accounts: accounts, Sessions: sessions, Recovery: recovery},
		Contact: &httpserver.ContactHandler{Svc: mailbox},
		MW:      &httpserver.AuthMiddleware{Sessions: sessions},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if kafkaMailer != nil {
		if err := kafkaMailer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}

// seedSuperUser makes sure the configuration-pinned SuperUser account exists.
func seedSuperUser(ctx context.Context, s store.CredentialStore, hasher hash.Bcrypt, cfg config.Config) error {
	if cfg.SuperUserEmail == "" {
		return nil
	}
	if _, err := s.FindByEmail(ctx, cfg.SuperUserEmail); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	password := cfg.SuperUserPassword
	if password == "" {
		return fmt.Errorf("SUPERUSER_PASSWORD is required to seed %s", cfg.SuperUserEmail)
	}
	digest, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.CreateAccount(ctx, &models.Account{
		Username:     "superuser",
		Email:        cfg.SuperUserEmail,
		PasswordHash: digest,
		Role:         authz.RoleSuperUser,
	})
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askly/accounts-api/internal/api"
	"github.com/askly/accounts-api/internal/api/handler"
	"github.com/askly/accounts-api/internal/core/ports"
	"github.com/askly/accounts-api/internal/core/service"
	mongodb "github.com/askly/accounts-api/internal/infrastructure/db/mongo"
	redisdb "github.com/askly/accounts-api/internal/infrastructure/db/redis"
	"github.com/askly/accounts-api/internal/infrastructure/mail"
	"github.com/askly/accounts-api/internal/infrastructure/queue"
	"github.com/askly/accounts-api/internal/infrastructure/security"
	"github.com/askly/accounts-api/internal/pkg/config"
	"github.com/askly/accounts-api/pkg/logger"

	_ "github.com/askly/accounts-api/docs"
)

// @title Accounts API
// @version 1.0
// @description Admin and user accounts with token authentication and email verification.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	adminRepo := mongodb.NewAdminRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	if err := adminRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin indexes")
	}

	tokens, err := security.NewJWTService(security.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.TokenIssuer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}
	hasher := security.NewBcryptHasher(0)

	var mailer ports.VerificationMailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.Mail.VerifyURL)
	} else {
		log.Warn().Msg("SMTP_HOST not set, verification links will only be logged")
		mailer = mail.NewLogMailer(cfg.Mail.VerifyURL, log)
	}

	// Workers are stopped only after the HTTP server has finished shutting down.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(queue.Config{Workers: cfg.Mail.Workers}, mailer, log)
	dispatcher.Start(workerCtx)

	userService := service.NewUserService(
		userRepo,
		hasher,
		security.NewVerificationTokens(),
		redisdb.NewVerificationWindow(rdb),
		dispatcher,
		service.UserServiceConfig{VerificationTTL: cfg.Auth.EmailVerifyTTL},
		log,
	)
	authService := service.NewAuthService(adminRepo, userRepo, hasher, tokens, log)

	if cfg.Bootstrap.Enabled() {
		_, err := service.BootstrapAdmin(ctx, adminRepo, hasher, service.BootstrapAdminInput{
			Username: cfg.Bootstrap.Username,
			Password: cfg.Bootstrap.Password,
			Email:    cfg.Bootstrap.Email,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
	}

	e := api.NewRouter(api.Dependencies{
		Auth:   authService,
		Users:  userService,
		Tokens: tokens,
		HealthChecks: map[string]handler.DependencyCheck{
			"mongo": handler.MongoCheck(db),
			"redis": handler.RedisCheck(rdb),
		},
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
}

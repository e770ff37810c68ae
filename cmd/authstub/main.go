// Command authstub runs a development auth service implementing the
// endpoints the OpsDesk client consumes: login, identity, and password reset.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/opsdesk/opsdesk/internal/api"
	"github.com/opsdesk/opsdesk/internal/core/domain"
	"github.com/opsdesk/opsdesk/internal/core/ports"
	"github.com/opsdesk/opsdesk/internal/core/service"
	"github.com/opsdesk/opsdesk/internal/infrastructure/config"
	mongodb "github.com/opsdesk/opsdesk/internal/infrastructure/db/mongo"
	"github.com/opsdesk/opsdesk/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Stub.Mongo.URI,
		Database: cfg.Stub.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}

	accounts := service.NewAccountService(userRepo, cfg.Stub.JWTSecret, cfg.Stub.TokenTTL)
	seedSuperadmin(ctx, accounts, log)

	e := api.NewRouter(db, cfg.Stub.JWTSecret, cfg.Stub.TokenTTL, log)

	go func() {
		log.Info().Str("port", cfg.Stub.Port).Msg("auth stub listening")
		if err := e.Start(":" + cfg.Stub.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("auth stub stopped")
}

// seedSuperadmin creates the bootstrap account on an empty database so the
// admin onboarding endpoint is reachable on first run. The temporary
// password forces a reset on first login.
func seedSuperadmin(ctx context.Context, accounts ports.AccountService, log zerolog.Logger) {
	email := os.Getenv("STUB_SEED_EMAIL")
	password := os.Getenv("STUB_SEED_PASSWORD")
	if email == "" || password == "" {
		return
	}

	user, err := accounts.CreateUser(ctx, ports.CreateUserInput{
		DisplayName:  "Bootstrap Admin",
		Email:        email,
		TempPassword: password,
		Role:         domain.RoleSuperadmin,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return
	case err != nil:
		log.Error().Err(err).Msg("seed superadmin failed")
	default:
		log.Info().Str("email", user.Email).Msg("seeded bootstrap superadmin")
	}
}

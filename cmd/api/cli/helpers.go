package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"backoffice/api/internal/config"
	"backoffice/api/internal/database"
	"backoffice/api/internal/handlers"
	"backoffice/api/internal/log"
	"backoffice/api/internal/repository"
	"backoffice/api/internal/security"
	"backoffice/api/internal/service"
)

func loadRuntime() (*config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log.New(cfg.Environment), nil
}

func openPostgres(ctx context.Context, cfg *config.AppConfig) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// buildServices wires the Postgres-backed services. revocations may be nil.
func buildServices(cfg *config.AppConfig, logger zerolog.Logger, pool *pgxpool.Pool, revocations service.TokenRevocations) handlers.Services {
	admins := repository.NewAdminRepository(pool)
	hasher := security.NewHasher(cfg.Security.BcryptCost)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTAccessTTL, cfg.Security.JWTRefreshTTL)

	return handlers.Services{
		Auth:       service.NewAuthService(admins, hasher, tokens, revocations, logger.With().Str("component", "auth").Logger()),
		Admins:     service.NewAdminService(admins, hasher, logger.With().Str("component", "admins").Logger()),
		Categories: service.NewCategoryService(repository.NewCategoryRepository(pool)),
	}
}

package app

import (
	"context"
	"errors"

	"sso-connect/internal/authsession"
	"sso-connect/internal/config"
	"sso-connect/internal/db"
	"sso-connect/internal/logger"
	"sso-connect/internal/redis"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("redis ready", map[string]any{"addr": cfg.Redis.Addr, "db": cfg.Redis.DB})

	return &Infra{
		DB:    database,
		Redis: redisClient,
	}, nil
}

// authSessionStore picks the configured backend for in-progress links.
func (i *Infra) authSessionStore(kind string) authsession.Store {
	if kind == "memory" {
		logger.Warn("auth sessions kept in memory; run a single instance", nil)
		return authsession.NewMemoryStore()
	}
	return authsession.NewRedisStore(i.Redis.Client)
}

func (i *Infra) Close() error {
	return errors.Join(i.DB.Close(), i.Redis.Close())
}

// Migrate applies the schema and exits, for the migrate command.
func Migrate(ctx context.Context, cfg *config.Config) error {
	database, err := db.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database.DB); err != nil {
		return err
	}
	logger.Info("migration applied", nil)
	return nil
}

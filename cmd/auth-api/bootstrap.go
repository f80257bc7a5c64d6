package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/NordCoder/Gatekeeper/internal/config/auth-api"
	"github.com/NordCoder/Gatekeeper/internal/domain/token"
	"github.com/NordCoder/Gatekeeper/internal/obs"
	pg "github.com/NordCoder/Gatekeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Gatekeeper/internal/repository/redis"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig(cfg.App))
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB)
}

// initRevocations picks the blacklist backend. The redis client is nil for
// the postgres backend.
func initRevocations(ctx context.Context, cfg *config.Config, db *pg.DB, logger *zap.Logger) (token.RevocationStore, *goredis.Client, error) {
	switch cfg.Revocation.Backend {
	case config.RevocationRedis:
		rdb, err := redisx.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("revocations in redis", zap.String("addr", cfg.Redis.Addr))
		return redisx.NewRevocationStore(rdb, cfg.Redis.KeyPrefix), rdb, nil
	case config.RevocationPostgres:
		logger.Info("revocations in postgres")
		return pg.NewRevocationRepo(db), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown revocation backend %q", cfg.Revocation.Backend)
}

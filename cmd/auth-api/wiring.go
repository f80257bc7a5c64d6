package main

import (
	"go.uber.org/zap"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
	config "github.com/NordCoder/Gatekeeper/internal/config/auth-api"
	"github.com/NordCoder/Gatekeeper/internal/domain/token"
	"github.com/NordCoder/Gatekeeper/internal/obs/retry"
	"github.com/NordCoder/Gatekeeper/internal/outbox"
	"github.com/NordCoder/Gatekeeper/internal/repository/kafka"
	pg "github.com/NordCoder/Gatekeeper/internal/repository/postgres"
	"github.com/NordCoder/Gatekeeper/internal/services/auth-api/auth"
)

type app struct {
	uc     *auth.Usecase
	outbox *outbox.Runner
}

func wiring(cfg *config.Config, db *pg.DB, revocations token.RevocationStore, producer *kafka.Producer, l *zap.Logger) (*app, error) {
	codecCfg := cfg.Auth.AsCodecConfig()
	codecCfg.Logger = l
	codec, err := authx.NewCodec(codecCfg)
	if err != nil {
		return nil, err
	}
	hasher, err := authx.NewHasher(cfg.Auth.AsHasherConfig())
	if err != nil {
		return nil, err
	}

	outboxRepo := pg.NewOutboxRepo(db)
	uc := auth.NewUseCase(
		pg.NewAccountRepo(db),
		revocations,
		codec,
		hasher,
		outbox.NewMailDispatcher(outboxRepo),
		pg.NewTransactor(db, l),
		auth.Config{RefreshChecksRevocation: cfg.Auth.RefreshChecksRevocation},
		l,
	)

	runner := outbox.NewOutboxRunner(
		l,
		outboxRepo,
		outbox.MakeGlobalOutboxHandler(kafka.NewMailEvents(producer), retry.DefaultPublishPolicy(l)),
		cfg.Outbox.Workers,
		cfg.Outbox.BatchSize,
		cfg.Outbox.WaitTime,
		cfg.Outbox.InProgressTTL,
	)
	return &app{uc: uc, outbox: runner}, nil
}

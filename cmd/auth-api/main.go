package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Gatekeeper/internal/config/auth-api"
	"github.com/NordCoder/Gatekeeper/internal/obs"
	"github.com/NordCoder/Gatekeeper/internal/repository/kafka"
	"github.com/NordCoder/Gatekeeper/internal/services/sweeper"
)

func main() {
	configPath := flag.String("config", "config/auth-api.yaml", "path to the YAML config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = obs.Flush(logger) }()
	logger.Info("starting auth-api",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("revocation_backend", cfg.Revocation.Backend),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	logger.Info("db connected")

	revocations, rdb, err := initRevocations(rootCtx, cfg, db, logger)
	if err != nil {
		logger.Fatal("revocation store", zap.Error(err))
	}
	health := []obs.HealthCheck{db.Ping}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		health = append(health, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
	defer func() { _ = producer.Close() }()

	a, err := wiring(cfg, db, revocations, producer, logger)
	if err != nil {
		logger.Fatal("wiring", zap.Error(err))
	}

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, obs.JoinHealth(health...), logger)
	httpSrv := buildHTTPServer(cfg, a.uc, obs.JoinHealth(health...), logger)

	bgCtx, bgCancel := context.WithCancel(rootCtx)
	var bg sync.WaitGroup
	bg.Add(2)
	go func() {
		defer bg.Done()
		a.outbox.Run(bgCtx)
	}()
	go func() {
		defer bg.Done()
		sw := sweeper.New(logger, sweeper.NewUC(revocations), cfg.Revocation.SweepInterval)
		if err := sw.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sweeper", zap.Error(err))
		}
	}()

	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)

	bgCancel()
	done := make(chan struct{})
	go func() { bg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(cfg.Server.GracefulTimeout):
		logger.Warn("background workers did not stop in time")
	}
	logger.Info("bye")
}

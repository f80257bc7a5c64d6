package main

import (
	"context"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/NordCoder/Gatekeeper/internal/obs"
	"github.com/NordCoder/Gatekeeper/migrations"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration instead of migrating up")
	flag.Parse()

	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "gatekeeper/migrator"})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = obs.Flush(logger) }()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Fatal("DB_DSN is empty")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if *down {
		err = goose.DownContext(ctx, db, ".")
	} else {
		err = goose.UpContext(ctx, db, ".")
	}
	if err != nil {
		logger.Fatal("migrate", zap.Bool("down", *down), zap.Error(err))
	}
	version, _ := goose.GetDBVersionContext(ctx, db)
	logger.Info("migrations applied", zap.Int64("version", version))
}

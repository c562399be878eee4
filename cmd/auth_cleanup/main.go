// Command auth_cleanup deletes expired and used login codes. Run it from cron.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"labbook/internal/config"
	"labbook/internal/database"
	"labbook/internal/domain/auth"
	"labbook/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := auth.PurgeLoginCodes(ctx, db, time.Now())
	if err != nil {
		zl.Fatal("cleanup login_codes failed", zap.Error(err))
	}
	zl.Info("auth cleanup completed", zap.Int64("login_codes", n))
}

// Command seed adds addresses to the sign-up allow-list:
//
//	seed alice@lab.org=Alice bob@lab.org
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"labbook/internal/config"
	"labbook/internal/database"
	"labbook/internal/domain/auth"
	"labbook/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: seed email[=display name] ...")
	}

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
	if err := auth.AutoMigrate(db); err != nil {
		zl.Fatal("auth migration failed", zap.Error(err))
	}

	users := auth.NewUserRepository(db)
	ctx := context.Background()
	for _, arg := range os.Args[1:] {
		email, note, _ := strings.Cut(arg, "=")
		if err := users.UpsertAllowed(ctx, email, note); err != nil {
			zl.Fatal("allow-list upsert failed", zap.String("email", email), zap.Error(err))
		}
		zl.Info("allowed", zap.String("email", email), zap.String("note", note))
	}
}

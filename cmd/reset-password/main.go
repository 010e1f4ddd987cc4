package main

import (
	"context"
	"flag"
	"log"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "account to reset (defaults to ADMIN_EMAIL)")
	password := flag.String("password", "", "new password (defaults to ADMIN_PASSWORD)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load("reset-password")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.Init(cfg.LogLevel, cfg.Server.Env, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if *email == "" {
		*email = cfg.Admin.Email
	}
	if *password == "" {
		*password = cfg.Admin.Password
	}
	if len(*password) < 6 {
		zl.Fatal("Password must be at least 6 characters")
	}

	// 2. Setup Database
	db, err := database.Connect(&cfg.DB, false, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 3. Find user
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		zl.Fatal("User not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash and store the new password
	if err := user.SetPassword(*password); err != nil {
		zl.Fatal("Failed to hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		zl.Fatal("Failed to update password", zap.Error(err))
	}

	zl.Info("Password reset", zap.String("email", *email))
}

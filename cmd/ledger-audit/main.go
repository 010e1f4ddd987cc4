// Command ledger-audit checks the inventory log against product stock and exits
// non-zero when they disagree.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/config"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the audit after this long")
	flag.Parse()

	cfg, err := config.Load("ledger-audit")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.Init(cfg.LogLevel, cfg.Server.Env, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(&cfg.DB, false, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	audit := service.NewInventoryLogService(repository.NewInventoryLogRepo(db), repository.NewProductRepo(db))
	report, err := audit.Verify(ctx)
	if err != nil {
		zl.Fatal("Audit failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		zl.Fatal("Failed to write report", zap.Error(err))
	}

	if !report.OK {
		zl.Error("Ledger is inconsistent",
			zap.Int("inconsistent_entries", len(report.InconsistentEntries)),
			zap.Int("stock_mismatches", len(report.StockMismatches)),
		)
		_ = zl.Sync()
		os.Exit(1)
	}
	zl.Info("Ledger is consistent", zap.Int("products", report.CheckedProducts))
}

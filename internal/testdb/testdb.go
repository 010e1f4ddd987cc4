// Package testdb opens throwaway databases for package tests.
package testdb

import (
	"path/filepath"
	"testing"

	"go-inventory-ledger/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated SQLite database living in the test's temp dir. A single
// connection keeps transactions serialised the way row locks would on Postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// Seed helpers

func Supplier(t testing.TB, db *gorm.DB, name string) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: name}
	require.NoError(t, db.Create(s).Error)
	return s
}

func Product(t testing.TB, db *gorm.DB, sku string) *model.Product {
	t.Helper()
	p := &model.Product{SKU: sku, Name: "Product " + sku, Unit: "pcs"}
	require.NoError(t, db.Omit("Supplier").Create(p).Error)
	return p
}

// Reload reads a product back including soft-deleted rows
func Reload(t testing.TB, db *gorm.DB, p *model.Product) *model.Product {
	t.Helper()
	var fresh model.Product
	require.NoError(t, db.Unscoped().First(&fresh, "id = ?", p.ID).Error)
	return &fresh
}

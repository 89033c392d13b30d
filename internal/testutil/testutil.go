// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/ariss/internal/database"
	"github.com/example/ariss/internal/models"
)

// NewDB returns a migrated in-memory SQLite database private to t, with
// foreign keys enforced and driver errors translated like production.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedDealer inserts a dealer with the given email.
func SeedDealer(t *testing.T, db *gorm.DB, email string, approved bool) models.Dealer {
	t.Helper()
	dealer := models.Dealer{
		BusinessName: "Acme Networks",
		GSTIN:        "27" + uuid.NewString()[:13],
		Email:        email,
		Phone:        "+919800000000",
	}
	require.NoError(t, db.Create(&dealer).Error)
	if approved {
		require.NoError(t, db.Model(&dealer).Update("is_approved", true).Error)
		dealer.IsApproved = true
	}
	return dealer
}

// SeedProduct inserts an active product priced at price.
func SeedProduct(t *testing.T, db *gorm.DB, sku string, price int64) models.Product {
	t.Helper()
	product := models.Product{
		Name:     "Router " + sku,
		SKU:      sku,
		Price:    decimal.NewFromInt(price),
		Stock:    10,
		IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

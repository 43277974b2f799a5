// Package storetest provides a migrated, seeded in-memory database for tests.
package storetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sonarshop/storefront/config"
	"github.com/sonarshop/storefront/internal/app"
	"github.com/sonarshop/storefront/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns an in-memory sqlite database with the schema migrated and the
// seed catalog loaded. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := app.OpenSqlite(app.MemoryDatabase, "")
	require.NoError(t, err)

	a := app.NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	require.NoError(t, a.MigrateDB(false))
	require.NoError(t, a.SeedCatalog())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewUser inserts a user row with a random id and returns the id.
func NewUser(t testing.TB, db *gorm.DB) string {
	t.Helper()
	u := domain.User{
		ID:        uuid.NewString(),
		UserName:  "shopper",
		Email:     "shopper@example.com",
		CreatedAt: db.NowFunc(),
	}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

// NewProduct inserts a product into category 1 and returns it.
func NewProduct(t testing.TB, db *gorm.DB, name, price string, stock int, active bool) domain.Product {
	t.Helper()
	p := domain.Product{
		CategoryID:    1,
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// Money parses a decimal literal.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

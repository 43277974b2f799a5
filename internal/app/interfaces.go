package app

import (
	"github.com/sonarshop/storefront/config"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider

	// Schema lifecycle
	MigrateDB(track bool) error
	InitDb() error
	DropAll()
	// SeedCatalog loads the fixed categories and products; safe to repeat.
	SeedCatalog() error
}

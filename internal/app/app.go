package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/sonarshop/storefront/config"
	"github.com/sonarshop/storefront/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
}

// Ensure Application implements all interfaces
var (
	_ DBProvider     = (*Application)(nil)
	_ ConfigProvider = (*Application)(nil)
	_ AppContext     = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// Init sets up logging, opens the database, migrates the schema and loads the
// seed catalog.
func (a *Application) Init(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	zap.ReplaceGlobals(NewLogger(cfg.Logger, cfg.System.Debug).With(zap.String("appid", cfg.System.Appid)))

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	dbConfig := cfg.Database
	dbConfig.Debug = dbConfig.Debug || cfg.System.Debug
	a.gormDB, err = getDatabase(dbConfig, cfg.System.Workdir)
	if err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(dbConfig.Debug); err != nil {
		return err
	}
	return a.SeedCatalog()
}

// NewLogger builds the process logger: console output always, plus a rotated
// JSON file when file output is enabled. debug lowers the level to Debug in
// either mode.
func NewLogger(cfg config.LogConfig, debug bool) *zap.Logger {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if debug {
		zapConfig.Level.SetLevel(zap.DebugLevel)
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		return zap.New(core, zap.AddCaller())
	}

	logger, err := zapConfig.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	return logger
}

// MigrateDB creates or updates every table in domain.Tables. With track set
// the generated SQL is logged.
func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err = errors.Errorf("migrate panic: %v", err1)
			zap.S().Error(err.Error())
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.L().Error("database migration failed", zap.Error(err))
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(reversed(domain.Tables)...)
}

// InitDb drops and recreates the schema, then reloads the seed catalog.
func (a *Application) InitDb() error {
	a.DropAll()
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return errors.Wrap(err, "auto migrate")
	}
	return a.SeedCatalog()
}

// Release releases application resources
func (a *Application) Release() {
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}

// reversed returns tables dependents-first so drops do not trip foreign keys.
func reversed(tables []interface{}) []interface{} {
	out := make([]interface{}, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		out = append(out, tables[i])
	}
	return out
}

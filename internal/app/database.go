package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/sonarshop/storefront/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDatabase is the sqlite database name that keeps everything in process.
const MemoryDatabase = ":memory:"

// getDatabase opens the configured database. SQLite is opened with foreign
// keys enforced so restrict and cascade rules behave as on PostgreSQL.
func getDatabase(cfg config.DBConfig, workdir string) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		memory    bool
	)
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql", "":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		memory = cfg.Name == MemoryDatabase
		dialector = sqlite.Open(SqliteDSN(cfg.Name, workdir))
	default:
		return nil, errors.Errorf("unsupported database type %q", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(zap.L(), cfg.Debug),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", cfg.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get database instance")
	}
	switch {
	case memory:
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	default:
		if cfg.MaxConn > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxConn)
		}
		if cfg.IdleConn > 0 {
			sqlDB.SetMaxIdleConns(cfg.IdleConn)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// OpenSqlite opens a sqlite database by name (MemoryDatabase for in-process)
// with the storefront gorm settings.
func OpenSqlite(name, workdir string) (*gorm.DB, error) {
	return getDatabase(config.DBConfig{Type: "sqlite", Name: name}, workdir)
}

// SqliteDSN builds the sqlite connection string for a database name. Relative
// file names are placed under <workdir>/data.
func SqliteDSN(name, workdir string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if name == MemoryDatabase {
		return "file::memory:?" + pragmas
	}
	file := name
	if !filepath.IsAbs(file) && workdir != "" {
		dir := filepath.Join(workdir, "data")
		_ = os.MkdirAll(dir, 0o755)
		file = filepath.Join(dir, name)
	}
	return file + "?" + pragmas
}

// gormLogger routes gorm's log output through zap.
type gormLogger struct {
	log           *zap.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger logs slow queries and errors at warn; debug adds every statement.
func NewGormLogger(log *zap.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gormLogger{
		log:           log.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.Sugar().Infof(msg, args...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Sugar().Warnf(msg, args...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.Sugar().Errorf(msg, args...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("query failed", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Error(err))
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warn("slow query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}

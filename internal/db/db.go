package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/furnimarket-backend/internal/config"
	applog "github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func BuildDSN(cfg *config.Config) string {
	addr := cfg.DBHost

	// Prefer Cloud SQL unix socket when INSTANCE_CONNECTION_NAME is provided.
	if cfg.InstanceConnectionName != "" {
		addr = fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	} else if strings.HasPrefix(cfg.DBHost, "tcp(") {
		// already includes tcp()
	} else if strings.HasPrefix(cfg.DBHost, "unix(") {
		// already includes unix()
	} else if strings.HasPrefix(cfg.DBHost, "/") {
		addr = fmt.Sprintf("unix(%s)", cfg.DBHost)
	} else {
		addr = fmt.Sprintf("tcp(%s:%s)", cfg.DBHost, cfg.DBPort)
	}

	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=Local", cfg.DBUser, cfg.DBPassword, addr, cfg.DBName)
}

// SQLiteDSN enables foreign keys so the favorites cascade is enforced by the store.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

// NewGormLogger reports slow queries and failures through the service logger.
// A missing row is a normal lookup result and is not logged.
func NewGormLogger() logger.Interface {
	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	applog.Logger.Warn().Str("component", "gorm").Msg(fmt.Sprintf(format, args...))
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         NewGormLogger(),
	}
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return openMySQL(BuildDSN(cfg), gcfg)
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.SQLitePath, gcfg)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.DBDriver)
	}
}

func openMySQL(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	return db, nil
}

// OpenSQLite opens the embedded store. A nil gcfg uses the service defaults.
// The pool holds a single connection: SQLite allows one writer, and a single
// connection makes every transaction run to completion before the next begins.
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{
			TranslateError: true,
			Logger:         NewGormLogger(),
		}
	}
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// Migrate creates or updates the items and favorites tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Item{}, &model.Favorite{})
}

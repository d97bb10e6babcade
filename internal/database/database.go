package database

import (
	"fmt"

	"catalog/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Titles are unique regardless of case, which a plain column index cannot express.
const titleIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_products_title_upper ON products (UPPER(title))`

// Config selects the driver and connection string.
type Config struct {
	Driver string
	DSN    string
	Debug  bool
}

// Open connects to the configured store.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if cfg.Debug {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// one connection keeps in-memory databases alive and avoids SQLITE_LOCKED
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// InMemorySQLiteDSN names a private in-memory SQLite database. Handy for
// local runs with DATABASE_DRIVER=sqlite and for tests.
func InMemorySQLiteDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// Migrate creates or updates the tables and indexes the service relies on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	if err := db.Exec(titleIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create title index: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

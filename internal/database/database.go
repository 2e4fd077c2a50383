package database

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// Config for database connection
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// DSN overrides the fields above when set.
	DSN   string
	Debug bool
}

// DataSourceName builds the connection string for cfg.
func (cfg Config) DataSourceName() string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// Open connects to the database and verifies the connection. The sqlite3
// driver must be registered by the caller; postgres is registered here.
func Open(cfg Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = dialect.Postgres
	}

	db, err := sqlx.Open(driver, cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.WithFields(log.Fields{"driver": driver, "database": cfg.DBName}).Info("connected to database")
	return db, nil
}

// EntDriver wraps db for ent's schema migration. Debug mode logs every
// statement.
func EntDriver(db *sqlx.DB, debug bool) dialect.Driver {
	var drv dialect.Driver = entsql.OpenDB(db.DriverName(), db.DB)
	if debug {
		drv = dialect.DebugWithContext(drv, func(ctx context.Context, v ...any) {
			log.Debug(v...)
		})
	}
	return drv
}

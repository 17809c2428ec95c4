// Package database opens the SQL engines used as pipeline sources and sinks.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/internal/adapters/database/drivers"
	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/logger"
)

const pingTimeout = 2 * time.Second

// Config selects a driver and its connection string.
type Config struct {
	Driver string
	DSN    string
}

// Database is an open connection pool with the dialect of its engine.
type Database struct {
	DB      *sql.DB
	Driver  string
	Dialect Dialect
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	logger logger.Logger
}

// WithLogger sets the logger used while tuning the connection.
func WithLogger(l logger.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open connects to the configured engine and checks it answers a ping.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Database, error) {
	o := openOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	drivers.Ready()

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dialect, ok := DialectFor(driver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s: %w", driver, ErrEmptyDSN)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// Embedded engines serialise all access over one connection.
	if dialect.SingleConns {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		if err := tuneSQLite(pingCtx, db); err != nil {
			o.logger.Warn(ctx, "sqlite tuning skipped", logger.Error(err))
		}
	}

	o.logger.Debug(ctx, "database opened", logger.String("driver", driver))
	return &Database{DB: db, Driver: driver, Dialect: dialect}, nil
}

// Close releases the pool.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func tuneSQLite(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("apply %q: %w", q, err)
		}
	}
	return nil
}

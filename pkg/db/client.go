// Package db opens the gorm connection shared by every repository.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultSQLitePath = "ecommerce.db"

type Client struct {
	conn   *gorm.DB
	driver string
}

// Pinger is what readiness checks need from a datastore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens postgres (the default) or sqlite according to cfg.Driver.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	driver := normalizeDriver(cfg.Driver)
	dialector, err := dialectorFor(driver, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	tunePool(pool, driver, cfg)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "db_driver", driver), "db.connected")
	}
	return &Client{conn: conn, driver: driver}, nil
}

// NewFromConn wraps a connection opened elsewhere, such as a test database.
func NewFromConn(conn *gorm.DB) *Client {
	c := &Client{conn: conn, driver: DriverPostgres}
	if conn != nil && conn.Dialector != nil && conn.Dialector.Name() == DriverSQLite {
		c.driver = DriverSQLite
	}
	return c
}

func normalizeDriver(raw string) string {
	if d := strings.ToLower(strings.TrimSpace(raw)); d != "" {
		return d
	}
	return DriverPostgres
}

func dialectorFor(driver string, cfg config.DBConfig) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required")
		}
		return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), nil
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = defaultSQLitePath
		}
		return sqlite.Open(SQLiteDSN(path)), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// SQLiteDSN enables foreign keys so header deletes cascade to cart items.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func tunePool(pool *sql.DB, driver string, cfg config.DBConfig) {
	// sqlite allows one writer at a time.
	if driver == DriverSQLite {
		pool.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Driver() string {
	return c.driver
}

// SQL exposes the pooled database/sql handle for tools such as goose.
func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// WithTx runs fn in one transaction. An error or a panic from fn rolls it
// back; the panic is re-raised.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}

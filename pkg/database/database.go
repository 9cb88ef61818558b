package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Client holds the database handle, the ent driver used for migrations,
// and a query runner bound to the dialect.
type Client struct {
	*Conn
	Driver *entsql.Driver
	db     *sql.DB
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int           // Maximum number of open connections
	MaxIdleConns    int           // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum amount of time a connection may be reused
	ConnMaxIdleTime time.Duration // Maximum amount of time a connection may be idle
}

// SSLConfig holds SSL/TLS configuration for Postgres connections
type SSLConfig struct {
	Mode         string // disable, require, verify-ca, verify-full
	CertPath     string // Path to client certificate
	KeyPath      string // Path to client key
	RootCertPath string // Path to root CA certificate
}

// DefaultPoolConfig returns sensible defaults for connection pooling
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// dialectFor maps a database/sql driver name to the ent dialect.
func dialectFor(driverName string) (string, error) {
	switch driverName {
	case "postgres", "pgx":
		return dialect.Postgres, nil
	case "sqlite3", "sqlite":
		return dialect.SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driverName)
	}
}

// BuildConnectionString adds the SSL parameters to a Postgres connection URL
func BuildConnectionString(baseURL string, sslCfg *SSLConfig) (string, error) {
	if sslCfg == nil {
		return baseURL, nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	query := parsedURL.Query()
	if sslCfg.Mode != "" {
		query.Set("sslmode", sslCfg.Mode)
	}
	if sslCfg.CertPath != "" {
		query.Set("sslcert", sslCfg.CertPath)
	}
	if sslCfg.KeyPath != "" {
		query.Set("sslkey", sslCfg.KeyPath)
	}
	if sslCfg.RootCertPath != "" {
		query.Set("sslrootcert", sslCfg.RootCertPath)
	}
	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

// NewClient opens a database, applies the default pool configuration and runs migrations
func NewClient(ctx context.Context, driverName, databaseURL string) (*Client, error) {
	return NewClientWithPoolAndSSL(ctx, driverName, databaseURL, DefaultPoolConfig(), nil)
}

// NewClientWithPoolAndSSL creates a new database client with custom pool and SSL configuration.
// The SSL configuration only applies to Postgres.
func NewClientWithPoolAndSSL(ctx context.Context, driverName, databaseURL string, poolCfg PoolConfig, sslCfg *SSLConfig) (*Client, error) {
	dialectName, err := dialectFor(driverName)
	if err != nil {
		return nil, err
	}

	if dialectName == dialect.Postgres {
		databaseURL, err = BuildConnectionString(databaseURL, sslCfg)
		if err != nil {
			return nil, err
		}
		if sslCfg != nil && sslCfg.Mode != "" {
			log.Printf("🔒 Database SSL enabled (mode: %s)", sslCfg.Mode)
		}
	}

	db, err := sql.Open(driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to %s: %w", driverName, err)
	}

	db.SetMaxOpenConns(poolCfg.MaxOpenConns)
	db.SetMaxIdleConns(poolCfg.MaxIdleConns)
	db.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	client := NewFromDB(dialectName, db)
	if err := client.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// SQLite allows a single writer; serialising access avoids "table is locked" errors.
	if dialectName == dialect.SQLite {
		db.SetMaxOpenConns(1)
	}

	log.Printf("✅ Database connected and migrations applied (driver: %s)", driverName)
	return client, nil
}

// NewFromDB wraps an already opened *sql.DB without running migrations
func NewFromDB(dialectName string, db *sql.DB) *Client {
	return &Client{
		Conn:   &Conn{q: db, dialect: dialectName},
		Driver: entsql.OpenDB(dialectName, db),
		db:     db,
	}
}

// DB returns the underlying *sql.DB
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}

// Tx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error or panics.
func (c *Client) Tx(ctx context.Context, fn func(tx *Conn) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Conn{q: tx, dialect: c.dialect}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

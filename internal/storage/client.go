package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/baseplate/backoffice/config"
)

// Client wraps the record database. Queries are written with Postgres
// placeholders ($1, $2, ...); Rebind adapts them for SQLite.
type Client struct {
	DB     *sql.DB
	Driver string
}

func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	driverName := "postgres"
	if cfg.Driver == config.DriverSQLite {
		driverName = "sqlite"
	}

	db, err := sql.Open(driverName, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite serialises writers; one connection also keeps ":memory:"
		// databases from splitting per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)
	}

	return &Client{DB: db, Driver: cfg.Driver}, nil
}

// Wrap builds a Client around an open handle, mainly for tests.
func Wrap(db *sql.DB, driver string) *Client {
	return &Client{DB: db, Driver: driver}
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $N placeholders to SQLite's ?N form. Postgres queries are
// returned unchanged.
func (c *Client) Rebind(query string) string {
	if c.Driver != config.DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?$1")
}

func (c *Client) Close() error {
	return c.DB.Close()
}

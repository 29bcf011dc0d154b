// Package sqlite3 opens and configures the embedded SQLite database the
// bill ledger lives in.
package sqlite3

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	defaultConnTimeout     = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

type config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnTimeout     time.Duration
}

type Option func(*config)

func WithDSN(dsn string) Option {
	return func(c *config) { c.DSN = dsn }
}

func WithMaxOpenConns(maxOpen int) Option {
	return func(c *config) { c.MaxOpenConns = maxOpen }
}

func WithMaxIdleConns(maxIdle int) Option {
	return func(c *config) { c.MaxIdleConns = maxIdle }
}

func WithConnMaxLifetime(lifetime time.Duration) Option {
	return func(c *config) { c.ConnMaxLifetime = lifetime }
}

// DB is the shared database handle.
type DB struct {
	*sqlx.DB
}

// New opens the database and verifies connectivity.
func New(ctx context.Context, opts ...Option) (*DB, error) {
	cfg := &config{
		DSN:             ":memory:",
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
		ConnTimeout:     defaultConnTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := sqlx.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping sqlite database")
	}

	return &DB{DB: db}, nil
}

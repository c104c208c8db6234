// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/vipledger/internal/config"
)

const driverName = "pgx"

// Database is the process-wide connection pool. It is created once at
// startup and handed to repositories; Reconnect swaps the underlying pool
// without invalidating those references.
type Database struct {
	mu  sync.RWMutex
	db  *sqlx.DB
	cfg config.DatabaseConfig
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Database{db: db, cfg: cfg}, nil
}

// NewDatabaseFromDB wraps an existing handle. Used by tests with sqlmock.
func NewDatabaseFromDB(db *sqlx.DB) *Database {
	return &Database{db: db}
}

func open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Conn returns the current pool.
func (d *Database) Conn() *sqlx.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.Conn().PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Reconnect opens a fresh pool and closes the old one once the new pool has
// answered a ping. On failure the old pool is left in place.
func (d *Database) Reconnect(ctx context.Context) error {
	if d.cfg.URL == "" {
		return fmt.Errorf("reconnect: no connection url configured")
	}

	fresh, err := open(ctx, d.cfg)
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	d.mu.Lock()
	old := d.db
	d.db = fresh
	d.mu.Unlock()

	if old != nil {
		//nolint:errcheck // old pool is being discarded
		_ = old.Close()
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.Conn().Stats()
}

func (d *Database) DriverName() string {
	return d.Conn().DriverName()
}

func (d *Database) Rebind(query string) string {
	return d.Conn().Rebind(query)
}

func (d *Database) BindNamed(query string, arg any) (string, []any, error) {
	return d.Conn().BindNamed(query, arg)
}

func (d *Database) QueryContext(
	ctx context.Context,
	query string,
	args ...any,
) (*sql.Rows, error) {
	return d.Conn().QueryContext(ctx, query, args...)
}

func (d *Database) QueryxContext(
	ctx context.Context,
	query string,
	args ...any,
) (*sqlx.Rows, error) {
	return d.Conn().QueryxContext(ctx, query, args...)
}

func (d *Database) QueryRowxContext(
	ctx context.Context,
	query string,
	args ...any,
) *sqlx.Row {
	return d.Conn().QueryRowxContext(ctx, query, args...)
}

func (d *Database) ExecContext(
	ctx context.Context,
	query string,
	args ...any,
) (sql.Result, error) {
	return d.Conn().ExecContext(ctx, query, args...)
}

func (d *Database) GetContext(
	ctx context.Context,
	dest any,
	query string,
	args ...any,
) error {
	return d.Conn().GetContext(ctx, dest, query, args...)
}

func (d *Database) SelectContext(
	ctx context.Context,
	dest any,
	query string,
	args ...any,
) error {
	return d.Conn().SelectContext(ctx, dest, query, args...)
}

// InTx runs fn inside a transaction on the current pool.
func (d *Database) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return InTx(ctx, d.Conn(), fn)
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

var (
	_ DBTX = (*Database)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return InTxWithOptions(ctx, db, nil, fn)
}

func InTxWithOptions(
	ctx context.Context,
	db *sqlx.DB,
	opts *sql.TxOptions,
	fn func(tx *sqlx.Tx) error,
) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}

// EscapeLike escapes LIKE/ILIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

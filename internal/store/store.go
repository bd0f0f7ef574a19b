// Package store implements the relational persistence adapter backing the
// KV server: upsert, point lookup, and delete of (key, value) rows, guarded
// by a circuit breaker so a database outage fails fast instead of piling up
// blocked goroutines.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when no row matches the key, and by
// Delete when zero rows were affected.
var ErrNotFound = errors.New("store: key not found")

const schema = `CREATE TABLE IF NOT EXISTS kv_store (
	key_name VARCHAR(255) NOT NULL PRIMARY KEY,
	value    TEXT NOT NULL
)`

// PoolConfig controls the underlying *sql.DB connection pool.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig mirrors the pool sizing used elsewhere in this
// codebase's ancestry for a single-process benchmark workload.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:    25,
		MaxOpenConns:    75,
		ConnMaxLifetime: 10 * time.Minute,
	}
}

// ReconnectConfig controls the exponential backoff used while establishing
// the initial connection to the database at startup.
type ReconnectConfig struct {
	MaxAttempts       int
	InitialInterval   time.Duration
	MaxInterval       time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns sensible defaults for the startup retry
// loop.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxAttempts:       10,
		InitialInterval:   1 * time.Second,
		MaxInterval:       30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Store is the persistence adapter. The zero value is not usable;
// construct with Open.
type Store struct {
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// Open connects to dsn with a startup retry loop, runs the schema
// bootstrap, and returns a ready Store. Initialization failure after
// exhausting the retry budget is fatal to the caller, per the contract
// that store initialization failure is not recoverable.
func Open(ctx context.Context, dsn string, pool PoolConfig, reconnect ReconnectConfig, log *zap.Logger) (*Store, error) {
	db, err := connectWithBackoff(ctx, dsn, reconnect, log)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema bootstrap failed: %w", err)
	}

	breakerSettings := gobreaker.Settings{
		Name:    "kv_store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A missing key is a normal outcome, not a backend failure;
			// it must not count toward tripping the breaker.
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("store circuit breaker state change", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}

	return newStore(db, gobreaker.NewCircuitBreaker(breakerSettings), log), nil
}

// newStore assembles a Store around an already-connected database handle.
// Split out from Open so tests can substitute a sqlmock-backed *sql.DB
// without dialing a real server.
func newStore(db *sql.DB, breaker *gobreaker.CircuitBreaker, log *zap.Logger) *Store {
	return &Store{db: db, breaker: breaker, log: log}
}

func connectWithBackoff(ctx context.Context, dsn string, cfg ReconnectConfig, log *zap.Logger) (*sql.DB, error) {
	interval := cfg.InitialInterval
	var lastErr error

	for attempt := 1; cfg.MaxAttempts <= 0 || attempt <= cfg.MaxAttempts; attempt++ {
		db, err := sql.Open("mysql", dsn)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err == nil {
				return db, nil
			}
			db.Close()
		}

		lastErr = err
		log.Warn("store connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * cfg.BackoffMultiplier)
		if interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}

	return nil, fmt.Errorf("exhausted %d connection attempts: %w", cfg.MaxAttempts, lastErr)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the store is currently reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Put upserts (key, value).
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO kv_store (key_name, value) VALUES (?, ?)
			 ON DUPLICATE KEY UPDATE value = VALUES(value)`,
			key, value,
		)
		return nil, err
	})
	return err
}

// Get returns the value stored for key, or ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.breaker.Execute(func() (interface{}, error) {
		var value string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key_name = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return value, err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v.(string), nil
}

// Delete removes key. It returns ErrNotFound when no row was affected.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		result, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key_name = ?`, key)
		if err != nil {
			return nil, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

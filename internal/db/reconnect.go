package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

// ConnectWithRetry attempts to connect to the database with exponential backoff.
// This lets the service start while its database is still coming up.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or error if all retries exhausted
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, lg *log.Logger) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		lg.Debug("database connection attempt", "attempt", attempt, "driver", cfg.Driver)

		db, err := Connect(ctx, cfg)
		if err == nil {
			if attempt > 1 {
				lg.Info("database connected", "attempts", attempt)
			}
			return db, nil
		}

		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			return nil, err
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		lg.Warn("database connection failed", "error", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// HealthCheck performs a health check on the database.
// Returns true if the database is healthy and ready for operations.
func HealthCheck(ctx context.Context, db *DB, lg *log.Logger) bool {
	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		lg.Warn("health check failed", "stage", "ping", "error", err)
		return false
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		lg.Warn("health check failed", "stage", "query", "error", err)
		return false
	}

	if result != 1 {
		lg.Warn("health check failed", "stage", "result", "result", result)
		return false
	}

	return true
}

// connErrors are fragments of driver errors caused by a lost connection.
var connErrors = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"bad connection",
	"database is locked",
	"eof",
	"timeout",
}

// isConnError reports whether err looks like a transient connection failure.
func isConnError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WithRetry executes a database operation, retrying on connection failures.
// Other errors are returned at once.
func WithRetry(ctx context.Context, operation func() error, maxRetries int, lg *log.Logger) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * 250 * time.Millisecond
			lg.Warn("database operation failed", "attempt", attempt+1, "of", maxRetries+1,
				"error", err, "retry_in", waitTime)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return lastErr
}

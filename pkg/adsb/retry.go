package adsb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (default: 3)
	MaxRetries int

	// InitialDelay is the initial backoff delay (default: 1 second)
	InitialDelay time.Duration

	// MaxDelay is the maximum backoff delay (default: 60 seconds)
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (default: 2.0 for exponential)
	Multiplier float64

	// RespectRetryAfter uses Retry-After header if available (default: true)
	RespectRetryAfter bool

	// ShouldRetry decides whether an error is worth another attempt.
	// nil retries every error.
	ShouldRetry func(error) bool

	// Logger receives rate limit and retry messages; may be nil
	Logger *log.Logger
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          60 * time.Second,
		Multiplier:        2.0,
		RespectRetryAfter: true,
	}
}

// RetryConfigFromSettings converts the retry section of the configuration.
func RetryConfigFromSettings(s config.RetrySettings, lg *log.Logger) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxRetries = s.MaxRetries
	if s.InitialDelayMs > 0 {
		cfg.InitialDelay = time.Duration(s.InitialDelayMs) * time.Millisecond
	}
	if s.MaxDelayMs > 0 {
		cfg.MaxDelay = time.Duration(s.MaxDelayMs) * time.Millisecond
	}
	if s.Multiplier >= 1 {
		cfg.Multiplier = s.Multiplier
	}
	cfg.Logger = lg
	return cfg
}

// RetryWithBackoffResult executes a function with exponential backoff and returns a result.
// This is useful when the function returns data along with an error.
//
// Example usage:
//
//	pos, err := RetryWithBackoffResult(ctx, DefaultRetryConfig(), func() (Position, error) {
//	    return client.LastPosition(ctx, icao)
//	})
func RetryWithBackoffResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}

		result = res
		lastErr = err

		if cfg.ShouldRetry != nil && !cfg.ShouldRetry(err) {
			return result, err
		}

		// Last attempt - don't calculate next delay
		if attempt == cfg.MaxRetries {
			break
		}

		// delay = min(InitialDelay * Multiplier^attempt, MaxDelay)
		nextDelay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if nextDelay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		} else {
			delay = nextDelay
		}

		if rle, ok := IsRateLimitError(err); ok {
			if cfg.RespectRetryAfter && rle.RetryAfter > 0 {
				delay = rle.RetryAfter
			}
			if rle.Headers.Remaining >= 0 {
				cfg.Logger.Warn("rate limit hit", "remaining", rle.Headers.Remaining,
					"limit", rle.Headers.Limit, "reset", rle.Headers.Reset)
			}
		}

		cfg.Logger.Debug("retrying", "attempt", attempt+1, "delay", delay, "error", err)
	}

	return result, fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}

// retryable reports whether a provider error may succeed on another
// attempt. Missing positions and client errors other than 429 will not.
func retryable(err error) bool {
	if errors.Is(err, ErrNoPosition) || errors.Is(err, context.Canceled) {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode >= 400 && perr.StatusCode < 500 &&
		perr.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

// RetryingProvider retries transient failures of another provider with
// exponential backoff.
type RetryingProvider struct {
	Provider PositionProvider
	Config   RetryConfig
}

// NewRetryingProvider wraps p. Permanent failures are returned at once
// unless cfg already carries its own ShouldRetry.
func NewRetryingProvider(p PositionProvider, cfg RetryConfig) *RetryingProvider {
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = retryable
	}
	return &RetryingProvider{Provider: p, Config: cfg}
}

// LastPosition implements PositionProvider.
func (r *RetryingProvider) LastPosition(ctx context.Context, icao string) (Position, error) {
	return RetryWithBackoffResult(ctx, r.Config, func() (Position, error) {
		return r.Provider.LastPosition(ctx, icao)
	})
}

package quotestore

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// RetryConfig controls the bounded-retry policy for quote store calls.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

// DefaultRetryConfig is tuned for a local embedded store: short backoff,
// small retry budget, generous per-call ceiling.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	Timeout:        30 * time.Second,
}

// RetryStore wraps a quote store with bounded retries and exponential
// backoff. Store I/O must be retried or surfaced as a failure; it never
// silently yields partial data.
type RetryStore struct {
	store  Interface
	logger *logrus.Logger
	config RetryConfig
}

// Ensure RetryStore implements Interface at compile time.
var _ Interface = (*RetryStore)(nil)

// NewRetryStore creates a retrying wrapper around store.
func NewRetryStore(store Interface, logger *logrus.Logger, config ...RetryConfig) *RetryStore {
	cfg := DefaultRetryConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	return &RetryStore{store: store, logger: logger, config: cfg}
}

// retryCall runs fn up to MaxRetries+1 times under a per-call timeout.
func retryCall[T any](ctx context.Context, r *RetryStore, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	backoff := r.config.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := callCtx.Err(); err != nil {
			return zero, fmt.Errorf("%s canceled: %w", op, err)
		}

		v, err := fn(callCtx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		r.logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt + 1,
		}).WithError(err).Warn("Quote store call failed")

		if attempt == r.config.MaxRetries {
			break
		}
		select {
		case <-callCtx.Done():
			return zero, fmt.Errorf("%s canceled: %w", op, callCtx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}
	return zero, fmt.Errorf("%s failed after %d attempts: %w", op, r.config.MaxRetries+1, lastErr)
}

// TradeDates retries the underlying store call on failure
func (r *RetryStore) TradeDates(ctx context.Context, ticker string, excluded []time.Weekday) ([]string, error) {
	return retryCall(ctx, r, "trade dates", func(c context.Context) ([]string, error) {
		return r.store.TradeDates(c, ticker, excluded)
	})
}

// EntrySnapshot retries the underlying store call on failure
func (r *RetryStore) EntrySnapshot(ctx context.Context, ticker, tradeDate, entryTime string) ([]models.Quote, error) {
	return retryCall(ctx, r, "entry snapshot", func(c context.Context) ([]models.Quote, error) {
		return r.store.EntrySnapshot(c, ticker, tradeDate, entryTime)
	})
}

// ExitWindow retries the underlying store call on failure
func (r *RetryStore) ExitWindow(ctx context.Context, ticker, tradeDate string, strikes []float64,
	afterTS time.Time, hardExitTime string) ([]models.Quote, error) {
	return retryCall(ctx, r, "exit window", func(c context.Context) ([]models.Quote, error) {
		return r.store.ExitWindow(c, ticker, tradeDate, strikes, afterTS, hardExitTime)
	})
}

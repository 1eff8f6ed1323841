package quotestore

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// BreakerStore wraps a quote store with circuit breaker functionality so a
// misbehaving backend fails fast instead of stalling the whole sweep.
type BreakerStore struct {
	store   Interface
	breaker *gobreaker.CircuitBreaker
}

// Ensure BreakerStore implements Interface at compile time.
var _ Interface = (*BreakerStore)(nil)

// BreakerSettings configures circuit breaker behavior
type BreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewBreakerStore creates a BreakerStore with sensible defaults.
func NewBreakerStore(store Interface, logger *logrus.Logger) *BreakerStore {
	return NewBreakerStoreWithSettings(store, logger, BreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewBreakerStoreWithSettings creates a BreakerStore with custom settings.
func NewBreakerStoreWithSettings(store Interface, logger *logrus.Logger, settings BreakerSettings) *BreakerStore {
	gbSettings := gobreaker.Settings{
		Name:        "QuoteStoreCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &BreakerStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// execBreaker is a generic helper for circuit breaker wrapper methods
func execBreaker[T any](
	breaker *gobreaker.CircuitBreaker,
	store Interface,
	fn func(Interface) (T, error),
) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(store) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// TradeDates wraps the underlying store call with the circuit breaker
func (b *BreakerStore) TradeDates(ctx context.Context, ticker string, excluded []time.Weekday) ([]string, error) {
	return execBreaker(b.breaker, b.store, func(s Interface) ([]string, error) {
		return s.TradeDates(ctx, ticker, excluded)
	})
}

// EntrySnapshot wraps the underlying store call with the circuit breaker
func (b *BreakerStore) EntrySnapshot(ctx context.Context, ticker, tradeDate, entryTime string) ([]models.Quote, error) {
	return execBreaker(b.breaker, b.store, func(s Interface) ([]models.Quote, error) {
		return s.EntrySnapshot(ctx, ticker, tradeDate, entryTime)
	})
}

// ExitWindow wraps the underlying store call with the circuit breaker
func (b *BreakerStore) ExitWindow(ctx context.Context, ticker, tradeDate string, strikes []float64,
	afterTS time.Time, hardExitTime string) ([]models.Quote, error) {
	return execBreaker(b.breaker, b.store, func(s Interface) ([]models.Quote, error) {
		return s.ExitWindow(ctx, ticker, tradeDate, strikes, afterTS, hardExitTime)
	})
}

// Package quotestore persists and serves time-stamped option quotes for the
// simulation engine. The engine only ever reads through Interface; writes are
// an adapter concern.
package quotestore

import (
	"context"
	"time"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// ClockLayout is the HH:MM wall-clock format used for entry and hard-exit times.
const ClockLayout = "15:04"

// EntryWindow is the lookback interval ending at the entry time from which
// the entry snapshot is taken.
const EntryWindow = 5 * time.Minute

// Interface defines the contract for quote retrieval.
//
// All methods return rows filtered to bid > 0 AND ask > 0 and ordered by
// timestamp ascending. Implementations must be safe for concurrent use:
// the backtest runner fans out per-date simulations across goroutines.
type Interface interface {
	// TradeDates returns all distinct trade dates for the ticker in
	// ascending order, excluding the given weekdays.
	TradeDates(ctx context.Context, ticker string, excluded []time.Weekday) ([]string, error)

	// EntrySnapshot returns quotes in the 5-minute window ending at
	// entryTime (HH:MM) on the given trade date.
	EntrySnapshot(ctx context.Context, ticker, tradeDate, entryTime string) ([]models.Quote, error)

	// ExitWindow returns quotes for the given strikes with timestamps
	// strictly after afterTS and at-or-before hardExitTime (HH:MM) on the
	// given trade date.
	ExitWindow(ctx context.Context, ticker, tradeDate string, strikes []float64,
		afterTS time.Time, hardExitTime string) ([]models.Quote, error)
}

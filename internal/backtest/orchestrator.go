// Package backtest drives per-date condor simulations and aggregates results.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/monitor"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/quotestore"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/strategy"
)

// Config is the immutable parameter set for one backtest sweep. A fresh
// value is passed into each run so sweeps over different configurations
// can execute concurrently without shared state.
type Config struct {
	Ticker           string
	WingWidth        int
	DeltaCeiling     float64
	ProfitTarget     float64
	HardExitTime     string // HH:MM
	ExcludedWeekdays []time.Weekday
	StartDate        string // YYYY-MM-DD inclusive, empty = unbounded
	EndDate          string
	Workers          int
}

// Orchestrator simulates one full trading day: entry snapshot, leg
// selection, entry pricing, exit monitoring, record assembly.
type Orchestrator struct {
	store   quotestore.Interface
	cfg     Config
	monitor *monitor.Monitor
	logger  *logrus.Logger
}

// NewOrchestrator creates an orchestrator bound to a store and config.
func NewOrchestrator(store quotestore.Interface, cfg Config, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		cfg:     cfg,
		monitor: monitor.New(cfg.ProfitTarget, logger),
		logger:  logger,
	}
}

// ProcessTradeDate simulates one date at one entry time.
//
// A nil record with a nil error means the date was skipped: empty snapshot,
// no qualifying legs, or non-positive entry credit. Those are expected
// conditions, not failures, and are never counted as wins or losses.
// A non-nil error means store I/O failed for this date; the caller logs it
// and moves on without aborting the sweep.
func (o *Orchestrator) ProcessTradeDate(ctx context.Context, tradeDate, entryTime string) (*models.TradeRecord, error) {
	log := o.logger.WithFields(logrus.Fields{"date": tradeDate, "entry": entryTime})

	snapshot, err := o.store.EntrySnapshot(ctx, o.cfg.Ticker, tradeDate, entryTime)
	if err != nil {
		return nil, fmt.Errorf("entry snapshot for %s: %w", tradeDate, err)
	}
	if len(snapshot) == 0 {
		log.Warn("No entry data, skipping date")
		return nil, nil
	}

	// The window ends at the entry time, so its latest timestamp is the
	// snapshot closest to (at or before) the requested entry.
	entryTS := latestTimestamp(snapshot)
	atEntry := quotesAt(snapshot, entryTS)

	pos, err := strategy.SelectLegs(atEntry, strategy.Config{
		DeltaCeiling: o.cfg.DeltaCeiling,
		WingWidth:    float64(o.cfg.WingWidth),
	})
	if err != nil {
		log.WithError(err).Warn("No valid legs, skipping date")
		return nil, nil
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("selected position for %s: %w", tradeDate, err)
	}
	if pos.EntryCredit <= 0 {
		log.WithField("entry_credit", pos.EntryCredit).Warn("Non-positive entry credit, skipping date")
		return nil, nil
	}

	window, err := o.store.ExitWindow(ctx, o.cfg.Ticker, tradeDate, pos.Strikes(),
		pos.EntryTimestamp, o.cfg.HardExitTime)
	if err != nil {
		return nil, fmt.Errorf("exit window for %s: %w", tradeDate, err)
	}

	outcome, err := o.monitor.Run(window, pos)
	if err != nil {
		return nil, fmt.Errorf("exit scan for %s: %w", tradeDate, err)
	}

	dayOfWeek, err := models.DayOfWeek(tradeDate)
	if err != nil {
		return nil, err
	}

	rec := &models.TradeRecord{
		TradeDate:       tradeDate,
		DayOfWeek:       dayOfWeek,
		Ticker:          o.cfg.Ticker,
		Wing:            o.cfg.WingWidth,
		EntryTimestamp:  pos.EntryTimestamp,
		UnderlyingEntry: pos.Underlying,
		SellCallStrike:  pos.SellCall.Strike,
		SellPutStrike:   pos.SellPut.Strike,
		BuyCallStrike:   pos.BuyCall.Strike,
		BuyPutStrike:    pos.BuyPut.Strike,
		SellCallDelta:   pos.SellCall.Delta,
		SellPutDelta:    pos.SellPut.Delta,
		EntryCredit:     pos.EntryCredit,
		Outcome:         outcome,
	}
	log.WithFields(logrus.Fields{
		"entry_credit": rec.EntryCredit,
		"exit_reason":  rec.Outcome.Reason,
	}).Debug("Trade simulated")
	return rec, nil
}

func latestTimestamp(quotes []models.Quote) time.Time {
	var latest time.Time
	for _, q := range quotes {
		if q.Timestamp.After(latest) {
			latest = q.Timestamp
		}
	}
	return latest
}

func quotesAt(quotes []models.Quote, ts time.Time) []models.Quote {
	var out []models.Quote
	for _, q := range quotes {
		if q.Timestamp.Equal(ts) {
			out = append(out, q)
		}
	}
	return out
}

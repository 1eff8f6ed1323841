package backtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/quotestore"
)

// Result bundles one sweep's trade records with its summary statistics.
type Result struct {
	EntryTime string
	Records   []*models.TradeRecord
	Summary   Summary
}

// Runner executes a backtest sweep over every eligible trade date.
type Runner struct {
	store  quotestore.Interface
	cfg    Config
	orch   *Orchestrator
	logger *logrus.Logger
}

// NewRunner builds a runner for the given store and config.
func NewRunner(store quotestore.Interface, cfg Config, logger *logrus.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Runner{
		store:  store,
		cfg:    cfg,
		orch:   NewOrchestrator(store, cfg, logger),
		logger: logger,
	}
}

// Run sweeps every eligible trade date at a single entry time. Dates are
// processed concurrently but records come back in chronological date order,
// so repeated runs over the same data produce identical output.
func (r *Runner) Run(ctx context.Context, entryTime string) (*Result, error) {
	runID := uuid.New().String()[:8]
	log := r.logger.WithFields(logrus.Fields{"run_id": runID, "entry": entryTime})

	dates, err := r.store.TradeDates(ctx, r.cfg.Ticker, r.cfg.ExcludedWeekdays)
	if err != nil {
		return nil, fmt.Errorf("listing trade dates: %w", err)
	}
	dates = r.filterDateRange(dates)
	log.WithField("dates", len(dates)).Info("Starting backtest sweep")

	// Slot results by date index so concurrent completion order never
	// changes the output order.
	slots := make([]*models.TradeRecord, len(dates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			rec, err := r.orch.ProcessTradeDate(gctx, date, entryTime)
			if err != nil {
				// Store or scan failure on one date: log and keep sweeping.
				log.WithField("date", date).WithError(err).Error("Trade date failed, skipping")
				return nil
			}
			if rec != nil {
				mu.Lock()
				slots[i] = rec
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*models.TradeRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			records = append(records, rec)
		}
	}

	summary := Summarize(entryTime, records)
	log.WithFields(logrus.Fields{
		"trades":   summary.TotalTrades,
		"win_rate": fmt.Sprintf("%.1f%%", summary.WinRate*100),
	}).Info("Sweep complete")

	return &Result{EntryTime: entryTime, Records: records, Summary: summary}, nil
}

// RunEntryTimes executes one sweep per entry time, sequentially so each
// sweep gets the full worker pool, and returns results in the order given.
func (r *Runner) RunEntryTimes(ctx context.Context, entryTimes []string) ([]*Result, error) {
	results := make([]*Result, 0, len(entryTimes))
	for _, entry := range entryTimes {
		res, err := r.Run(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("sweep at %s: %w", entry, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) filterDateRange(dates []string) []string {
	if r.cfg.StartDate == "" && r.cfg.EndDate == "" {
		return dates
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if r.cfg.StartDate != "" && d < r.cfg.StartDate {
			continue
		}
		if r.cfg.EndDate != "" && d > r.cfg.EndDate {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Package monitor scans post-entry quote timelines for trade exits.
package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/strategy"
)

// Monitor replays the exit window for one position: take profit as soon as
// available, otherwise exit at the latest reliable mark before the hard
// deadline. Timestamps with incomplete leg coverage are skipped, never
// interpolated.
type Monitor struct {
	profitTarget float64
	logger       *logrus.Logger
}

// New creates a Monitor. profitTarget is the fraction of entry credit
// retained that triggers an early close (0.10 = 10%).
func New(profitTarget float64, logger *logrus.Logger) *Monitor {
	return &Monitor{profitTarget: profitTarget, logger: logger}
}

// Run walks the exit window in time order and produces the position's exit
// outcome. An error here means a bug in the scan itself (an illegal state
// transition), not a data condition.
func (m *Monitor) Run(window []models.Quote, pos *models.Position) (models.ExitOutcome, error) {
	sm := models.NewExitStateMachine()

	if len(window) == 0 {
		if err := sm.Transition(models.StateNoCompleteQuote, "window_empty"); err != nil {
			return models.ExitOutcome{}, err
		}
		return models.ExitOutcome{Reason: models.ExitNoData}, nil
	}

	timestamps, byTS := groupByTimestamp(window)

	// Forward pass: first timestamp where the profit target is met wins,
	// regardless of anything better later.
	for _, ts := range timestamps {
		cost, ok := strategy.ExitCost(byTS[ts], pos)
		if !ok {
			continue
		}
		pnl := strategy.PnL(pos.EntryCredit, cost)
		pct := strategy.PnLPct(pnl, pos.EntryCredit)
		if pct >= m.profitTarget {
			if err := sm.Transition(models.StateTPHit, "profit_target_hit"); err != nil {
				return models.ExitOutcome{}, err
			}
			m.logger.WithFields(logrus.Fields{
				"exit_ts": ts.Format("15:04:05"),
				"pnl_pct": pct,
			}).Debug("Profit target hit")
			return outcomeAt(sm, ts, cost, pnl, pct)
		}
	}

	if err := sm.Transition(models.StateFallbackScan, "scan_exhausted"); err != nil {
		return models.ExitOutcome{}, err
	}

	// Backward pass: hard exit at the temporally last complete quote.
	for i := len(timestamps) - 1; i >= 0; i-- {
		ts := timestamps[i]
		cost, ok := strategy.ExitCost(byTS[ts], pos)
		if !ok {
			continue
		}
		if err := sm.Transition(models.StateHardExit, "complete_quote_found"); err != nil {
			return models.ExitOutcome{}, err
		}
		pnl := strategy.PnL(pos.EntryCredit, cost)
		pct := strategy.PnLPct(pnl, pos.EntryCredit)
		return outcomeAt(sm, ts, cost, pnl, pct)
	}

	if err := sm.Transition(models.StateNoCompleteQuote, "no_complete_quote"); err != nil {
		return models.ExitOutcome{}, err
	}
	return models.ExitOutcome{Reason: models.ExitNoData}, nil
}

func outcomeAt(sm *models.ExitStateMachine, ts time.Time, cost, pnl, pct float64) (models.ExitOutcome, error) {
	reason, ok := sm.Reason()
	if !ok {
		return models.ExitOutcome{}, fmt.Errorf("exit scan ended in non-terminal state %s", sm.Current())
	}
	tsCopy := ts
	return models.ExitOutcome{
		Reason:        reason,
		ExitTimestamp: &tsCopy,
		ExitCost:      &cost,
		PnL:           &pnl,
		PnLPct:        &pct,
	}, nil
}

// groupByTimestamp buckets quotes by timestamp and returns the distinct
// timestamps in ascending order.
func groupByTimestamp(window []models.Quote) ([]time.Time, map[time.Time][]models.Quote) {
	byTS := make(map[time.Time][]models.Quote)
	var timestamps []time.Time
	for _, q := range window {
		if _, seen := byTS[q.Timestamp]; !seen {
			timestamps = append(timestamps, q.Timestamp)
		}
		byTS[q.Timestamp] = append(byTS[q.Timestamp], q)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	return timestamps, byTS
}

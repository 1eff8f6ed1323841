// Package report renders backtest results to CSV files and the log.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/backtest"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

var tradeHeader = []string{
	"trade_date", "day_of_week", "ticker", "wing",
	"entry_timestamp", "underlying_price_entry",
	"sell_call_strike", "sell_put_strike", "buy_call_strike", "buy_put_strike",
	"sell_call_delta", "sell_put_delta", "entry_credit",
	"exit_reason", "exit_timestamp", "exit_cost", "pnl", "pnl_pct",
}

// WriteTradeRecords writes one row per trade to path, creating parent
// directories as needed. NO_DATA trades leave the exit columns empty.
func WriteTradeRecords(path string, records []*models.TradeRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tradeHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(tradeRow(rec)); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.TradeDate, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

func tradeRow(rec *models.TradeRecord) []string {
	return []string{
		rec.TradeDate,
		rec.DayOfWeek,
		rec.Ticker,
		strconv.Itoa(rec.Wing),
		rec.EntryTimestamp.Format(timestampLayout),
		formatFloat(rec.UnderlyingEntry),
		formatFloat(rec.SellCallStrike),
		formatFloat(rec.SellPutStrike),
		formatFloat(rec.BuyCallStrike),
		formatFloat(rec.BuyPutStrike),
		formatFloat(rec.SellCallDelta),
		formatFloat(rec.SellPutDelta),
		formatFloat(rec.EntryCredit),
		string(rec.Outcome.Reason),
		formatTimePtr(rec.Outcome.ExitTimestamp),
		formatFloatPtr(rec.Outcome.ExitCost),
		formatFloatPtr(rec.Outcome.PnL),
		formatFloatPtr(rec.Outcome.PnLPct),
	}
}

var comparisonHeader = []string{
	"entry_time", "total_trades", "wins", "losses", "no_data",
	"win_rate", "total_pnl", "avg_pnl", "max_pnl", "min_pnl",
	"avg_pnl_pct", "max_pnl_pct", "min_pnl_pct",
}

// WriteComparison writes the per-entry-time summary table produced by a
// multi-entry sweep.
func WriteComparison(path string, summaries []backtest.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(comparisonHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, s := range summaries {
		row := []string{
			s.EntryTime,
			strconv.Itoa(s.TotalTrades),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			strconv.Itoa(s.NoDataTrades),
			formatFloat(s.WinRate),
			formatFloat(s.TotalPnL),
			formatFloat(s.AvgPnL),
			formatFloat(s.MaxPnL),
			formatFloat(s.MinPnL),
			formatFloat(s.AvgPnLPct),
			formatFloat(s.MaxPnLPct),
			formatFloat(s.MinPnLPct),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", s.EntryTime, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampLayout)
}

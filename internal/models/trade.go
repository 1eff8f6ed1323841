package models

import (
	"fmt"
	"time"
)

// TradeDateLayout is the canonical format for trade dates throughout the engine.
const TradeDateLayout = "2006-01-02"

// ExitReason classifies how a trade's lifecycle ended.
type ExitReason string

const (
	// ExitTakeProfit means the profit target was hit during the forward scan
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	// ExitHard means the position was closed at the last reliable mark before the deadline
	ExitHard ExitReason = "HARD_EXIT"
	// ExitNoData means no timestamp in the exit window ever had complete leg coverage
	ExitNoData ExitReason = "NO_DATA"
)

// ExitOutcome is the result of monitoring one position's exit. Pricing
// fields are nil when no complete quote set existed (NO_DATA). Immutable
// once produced.
type ExitOutcome struct {
	Reason        ExitReason `json:"exit_reason"`
	ExitTimestamp *time.Time `json:"exit_timestamp,omitempty"`
	ExitCost      *float64   `json:"exit_cost,omitempty"`
	PnL           *float64   `json:"pnl,omitempty"`
	PnLPct        *float64   `json:"pnl_pct,omitempty"`
}

// TradeRecord is one trading day's simulated result. Created by the
// orchestrator, consumed by the runner for aggregation, never mutated.
// A date with no valid entry produces no TradeRecord at all.
type TradeRecord struct {
	TradeDate       string      `json:"trade_date"`
	DayOfWeek       string      `json:"day_of_week"`
	Ticker          string      `json:"ticker"`
	Wing            int         `json:"wing"`
	EntryTimestamp  time.Time   `json:"entry_timestamp"`
	UnderlyingEntry float64     `json:"underlying_price_entry"`
	SellCallStrike  float64     `json:"sell_call_strike"`
	SellPutStrike   float64     `json:"sell_put_strike"`
	BuyCallStrike   float64     `json:"buy_call_strike"`
	BuyPutStrike    float64     `json:"buy_put_strike"`
	SellCallDelta   float64     `json:"sell_call_delta"`
	SellPutDelta    float64     `json:"sell_put_delta"`
	EntryCredit     float64     `json:"entry_credit"`
	Outcome         ExitOutcome `json:"outcome"`
}

// Win reports whether the trade finished with a positive realized P&L.
// NO_DATA trades carry no P&L and are never wins.
func (r TradeRecord) Win() bool {
	return r.Outcome.PnL != nil && *r.Outcome.PnL > 0
}

// DayOfWeek derives the weekday name from a YYYY-MM-DD trade date.
// Pure function of the date; no calendar state.
func DayOfWeek(tradeDate string) (string, error) {
	d, err := time.Parse(TradeDateLayout, tradeDate)
	if err != nil {
		return "", fmt.Errorf("parsing trade date %q: %w", tradeDate, err)
	}
	return d.Weekday().String(), nil
}

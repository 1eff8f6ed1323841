package backtest

import (
	"math"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// Summary aggregates one sweep's trade records.
//
// WinRate uses all recorded trades as the denominator, so NO_DATA records
// count against the strategy rather than disappearing from the rate.
// P&L aggregates cover only trades that actually priced an exit.
type Summary struct {
	EntryTime    string
	TotalTrades  int
	Wins         int
	Losses       int
	NoDataTrades int
	WinRate      float64
	TotalPnL     float64
	AvgPnL       float64
	MaxPnL       float64
	MinPnL       float64
	AvgPnLPct    float64
	MaxPnLPct    float64
	MinPnLPct    float64
}

// Summarize computes sweep statistics over the given records.
func Summarize(entryTime string, records []*models.TradeRecord) Summary {
	s := Summary{
		EntryTime:   entryTime,
		TotalTrades: len(records),
		MaxPnL:      math.Inf(-1),
		MinPnL:      math.Inf(1),
		MaxPnLPct:   math.Inf(-1),
		MinPnLPct:   math.Inf(1),
	}

	priced := 0
	var pctSum float64
	for _, rec := range records {
		if rec.Outcome.Reason == models.ExitNoData {
			s.NoDataTrades++
			continue
		}
		if rec.Win() {
			s.Wins++
		} else {
			s.Losses++
		}
		if rec.Outcome.PnL == nil || rec.Outcome.PnLPct == nil {
			continue
		}
		priced++
		pnl := *rec.Outcome.PnL
		pct := *rec.Outcome.PnLPct
		s.TotalPnL += pnl
		pctSum += pct
		s.MaxPnL = math.Max(s.MaxPnL, pnl)
		s.MinPnL = math.Min(s.MinPnL, pnl)
		s.MaxPnLPct = math.Max(s.MaxPnLPct, pct)
		s.MinPnLPct = math.Min(s.MinPnLPct, pct)
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalTrades)
	}
	if priced > 0 {
		s.AvgPnL = s.TotalPnL / float64(priced)
		s.AvgPnLPct = pctSum / float64(priced)
	} else {
		s.MaxPnL, s.MinPnL = 0, 0
		s.MaxPnLPct, s.MinPnLPct = 0, 0
	}
	return s
}

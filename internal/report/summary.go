package report

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/backtest"
)

// LogSummary prints one sweep's aggregate statistics to the log.
func LogSummary(logger *logrus.Logger, s backtest.Summary) {
	logger.Info("==================================================")
	logger.Infof("BACKTEST RESULTS (entry %s)", s.EntryTime)
	logger.Info("==================================================")
	logger.WithFields(logrus.Fields{
		"total_trades": s.TotalTrades,
		"wins":         s.Wins,
		"losses":       s.Losses,
		"no_data":      s.NoDataTrades,
		"win_rate":     fmt.Sprintf("%.1f%%", s.WinRate*100),
	}).Info("Trade counts")
	if s.TotalTrades > s.NoDataTrades {
		logger.WithFields(logrus.Fields{
			"total_pnl":   fmt.Sprintf("%.2f", s.TotalPnL),
			"avg_pnl":     fmt.Sprintf("%.2f", s.AvgPnL),
			"max_pnl":     fmt.Sprintf("%.2f", s.MaxPnL),
			"min_pnl":     fmt.Sprintf("%.2f", s.MinPnL),
			"avg_pnl_pct": fmt.Sprintf("%.2f%%", s.AvgPnLPct*100),
		}).Info("P&L")
	}
}

// LogComparison prints the per-entry-time comparison produced by a
// multi-entry sweep.
func LogComparison(logger *logrus.Logger, summaries []backtest.Summary) {
	logger.Info("==================================================")
	logger.Info("ENTRY TIME COMPARISON")
	logger.Info("==================================================")
	for _, s := range summaries {
		logger.Infof("%s: %d trades, %.1f%% win rate, avg P&L %.2f",
			s.EntryTime, s.TotalTrades, s.WinRate*100, s.AvgPnL)
	}
}

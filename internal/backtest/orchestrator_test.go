package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/quotestore"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testConfig() Config {
	return Config{
		Ticker:       "SPXW",
		WingWidth:    20,
		DeltaCeiling: 0.20,
		ProfitTarget: 0.10,
		HardExitTime: "13:00",
		Workers:      2,
	}
}

func entryTS(date string) time.Time {
	d, _ := time.Parse(models.TradeDateLayout, date)
	return d.Add(10 * time.Hour) // 10:00
}

func quote(ts time.Time, right models.Right, strike, delta, bid, ask float64) models.Quote {
	return models.Quote{
		Timestamp: ts, Right: right, Strike: strike,
		Delta: delta, Bid: bid, Ask: ask, Underlying: 5080,
	}
}

// chainAt builds a snapshot whose selection is deterministic: short call
// 5140, short put 5020, wings at 5160/5000, entry credit 3.2.
func chainAt(ts time.Time) []models.Quote {
	return []models.Quote{
		quote(ts, models.RightCall, 5140, 0.18, 3.0, 3.2),
		quote(ts, models.RightCall, 5160, 0.09, 1.4, 1.6),
		quote(ts, models.RightPut, 5020, -0.18, 3.0, 3.2),
		quote(ts, models.RightPut, 5000, -0.09, 1.4, 1.6),
	}
}

// closingQuotes prices the four selected legs at one timestamp.
func closingQuotes(ts time.Time, shortMid, longMid float64) []models.Quote {
	delta := 0.05
	return []models.Quote{
		quote(ts, models.RightCall, 5140, delta, shortMid, shortMid),
		quote(ts, models.RightPut, 5020, -delta, shortMid, shortMid),
		quote(ts, models.RightCall, 5160, delta, longMid, longMid),
		quote(ts, models.RightPut, 5000, -delta, longMid, longMid),
	}
}

func TestProcessTradeDate_TakeProfit(t *testing.T) {
	const date = "2024-03-15"
	entry := entryTS(date)

	store := quotestore.NewMockStore()
	store.Snapshots[date] = chainAt(entry)
	// Exit cost 2*1.3 - 2*0.2 = 2.2: pnl 1.0 on a 3.2 credit, pct ~0.3125.
	store.Windows[date] = closingQuotes(entry.Add(30*time.Minute), 1.3, 0.2)

	orch := NewOrchestrator(store, testConfig(), testLogger())
	rec, err := orch.ProcessTradeDate(context.Background(), date, "10:00")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, date, rec.TradeDate)
	assert.Equal(t, "Friday", rec.DayOfWeek)
	assert.Equal(t, "SPXW", rec.Ticker)
	assert.Equal(t, 20, rec.Wing)
	assert.Equal(t, 5140.0, rec.SellCallStrike)
	assert.Equal(t, 5020.0, rec.SellPutStrike)
	assert.Equal(t, 5160.0, rec.BuyCallStrike)
	assert.Equal(t, 5000.0, rec.BuyPutStrike)
	assert.InDelta(t, 3.2, rec.EntryCredit, 1e-9)
	assert.Equal(t, models.ExitTakeProfit, rec.Outcome.Reason)
	require.NotNil(t, rec.Outcome.PnL)
	assert.InDelta(t, 1.0, *rec.Outcome.PnL, 1e-9)
	assert.True(t, rec.Win())
}

func TestProcessTradeDate_EmptySnapshotSkips(t *testing.T) {
	store := quotestore.NewMockStore()
	orch := NewOrchestrator(store, testConfig(), testLogger())

	rec, err := orch.ProcessTradeDate(context.Background(), "2024-03-15", "10:00")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, store.WindowCalls, "no exit query when entry is skipped")
}

func TestProcessTradeDate_SelectionFailureSkips(t *testing.T) {
	const date = "2024-03-15"
	entry := entryTS(date)

	// Calls only: no condor can be formed.
	store := quotestore.NewMockStore()
	store.Snapshots[date] = []models.Quote{
		quote(entry, models.RightCall, 5140, 0.18, 3.0, 3.2),
	}

	orch := NewOrchestrator(store, testConfig(), testLogger())
	rec, err := orch.ProcessTradeDate(context.Background(), date, "10:00")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProcessTradeDate_NonPositiveCreditSkips(t *testing.T) {
	const date = "2024-03-15"
	entry := entryTS(date)

	// Wings cost more than the shorts collect: the condor is a net debit.
	store := quotestore.NewMockStore()
	store.Snapshots[date] = []models.Quote{
		quote(entry, models.RightCall, 5140, 0.18, 0.5, 0.7),
		quote(entry, models.RightCall, 5160, 0.09, 1.4, 1.6),
		quote(entry, models.RightPut, 5020, -0.18, 0.5, 0.7),
		quote(entry, models.RightPut, 5000, -0.09, 1.4, 1.6),
	}

	orch := NewOrchestrator(store, testConfig(), testLogger())
	rec, err := orch.ProcessTradeDate(context.Background(), date, "10:00")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, store.WindowCalls)
}

func TestProcessTradeDate_NoExitDataStillRecords(t *testing.T) {
	const date = "2024-03-15"
	entry := entryTS(date)

	// Entry succeeds but nothing trades afterwards: the trade happened and
	// must appear in the results with a NO_DATA outcome.
	store := quotestore.NewMockStore()
	store.Snapshots[date] = chainAt(entry)

	orch := NewOrchestrator(store, testConfig(), testLogger())
	rec, err := orch.ProcessTradeDate(context.Background(), date, "10:00")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.ExitNoData, rec.Outcome.Reason)
	assert.Nil(t, rec.Outcome.ExitTimestamp)
	assert.Nil(t, rec.Outcome.PnL)
	assert.False(t, rec.Win())
}

func TestProcessTradeDate_LatestSnapshotTimestampWins(t *testing.T) {
	const date = "2024-03-15"
	entry := entryTS(date)
	earlier := entry.Add(-2 * time.Minute)

	// The 5-minute window holds two timestamps; legs must come from the
	// latest one. The earlier chain would pick different strikes.
	store := quotestore.NewMockStore()
	snapshot := append([]models.Quote{
		quote(earlier, models.RightCall, 5150, 0.18, 3.0, 3.2),
		quote(earlier, models.RightCall, 5170, 0.09, 1.4, 1.6),
		quote(earlier, models.RightPut, 5030, -0.18, 3.0, 3.2),
		quote(earlier, models.RightPut, 5010, -0.09, 1.4, 1.6),
	}, chainAt(entry)...)
	store.Snapshots[date] = snapshot
	store.Windows[date] = closingQuotes(entry.Add(30*time.Minute), 1.3, 0.2)

	orch := NewOrchestrator(store, testConfig(), testLogger())
	rec, err := orch.ProcessTradeDate(context.Background(), date, "10:00")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 5140.0, rec.SellCallStrike)
	assert.Equal(t, entry, rec.EntryTimestamp)
}

func TestProcessTradeDate_StoreErrorPropagates(t *testing.T) {
	store := quotestore.NewMockStore()
	store.SnapshotErr = errors.New("disk on fire")

	orch := NewOrchestrator(store, testConfig(), testLogger())
	_, err := orch.ProcessTradeDate(context.Background(), "2024-03-15", "10:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry snapshot")
}

package monitor

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func condorPosition() *models.Position {
	return &models.Position{
		SellCall:       models.Leg{Role: models.RoleSellCall, Right: models.RightCall, Strike: 5140},
		SellPut:        models.Leg{Role: models.RoleSellPut, Right: models.RightPut, Strike: 5020},
		BuyCall:        models.Leg{Role: models.RoleBuyCall, Right: models.RightCall, Strike: 5160},
		BuyPut:         models.Leg{Role: models.RoleBuyPut, Right: models.RightPut, Strike: 5000},
		EntryCredit:    4.0,
		EntryTimestamp: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func exitTS(minuteOffset int) time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC).Add(time.Duration(minuteOffset) * time.Minute)
}

// legQuotes prices all four legs at one timestamp with bid == ask, so the
// exit cost is exactly 2*shortMid - 2*longMid.
func legQuotes(ts time.Time, shortMid, longMid float64) []models.Quote {
	return []models.Quote{
		{Timestamp: ts, Right: models.RightCall, Strike: 5140, Bid: shortMid, Ask: shortMid},
		{Timestamp: ts, Right: models.RightPut, Strike: 5020, Bid: shortMid, Ask: shortMid},
		{Timestamp: ts, Right: models.RightCall, Strike: 5160, Bid: longMid, Ask: longMid},
		{Timestamp: ts, Right: models.RightPut, Strike: 5000, Bid: longMid, Ask: longMid},
	}
}

func TestMonitor_TakeProfitAtFirstQualifyingTimestamp(t *testing.T) {
	pos := condorPosition()
	m := New(0.10, testLogger())

	// Exit cost per timestamp: t1 -> 4.2 (loss), t2 -> 3.8 (pct 0.05),
	// t3 -> 3.4 (pct 0.15, TP), t4 -> 2.0 (pct 0.50, better but later).
	var window []models.Quote
	window = append(window, legQuotes(exitTS(5), 2.3, 0.2)...)
	window = append(window, legQuotes(exitTS(10), 2.1, 0.2)...)
	window = append(window, legQuotes(exitTS(15), 1.9, 0.2)...)
	window = append(window, legQuotes(exitTS(20), 1.2, 0.2)...)

	out, err := m.Run(window, pos)
	require.NoError(t, err)

	assert.Equal(t, models.ExitTakeProfit, out.Reason)
	require.NotNil(t, out.ExitTimestamp)
	assert.Equal(t, exitTS(15), *out.ExitTimestamp)
	require.NotNil(t, out.PnLPct)
	assert.InDelta(t, 0.15, *out.PnLPct, 1e-9)
	require.NotNil(t, out.ExitCost)
	assert.InDelta(t, 3.4, *out.ExitCost, 1e-9)
}

func TestMonitor_IncompleteTimestampsSkippedInForwardScan(t *testing.T) {
	pos := condorPosition()
	m := New(0.10, testLogger())

	// t1 would hit TP but is missing the put wing; t2 is complete and hits.
	partial := legQuotes(exitTS(5), 1.0, 0.2)[:3]
	window := append(partial, legQuotes(exitTS(10), 1.5, 0.2)...)

	out, err := m.Run(window, pos)
	require.NoError(t, err)
	assert.Equal(t, models.ExitTakeProfit, out.Reason)
	assert.Equal(t, exitTS(10), *out.ExitTimestamp)
}

func TestMonitor_HardExitAtLatestCompleteQuote(t *testing.T) {
	pos := condorPosition()
	m := New(0.10, testLogger())

	// No timestamp reaches the target. The last two timestamps are
	// incomplete, so the hard exit lands on t2.
	var window []models.Quote
	window = append(window, legQuotes(exitTS(5), 2.3, 0.2)...)
	window = append(window, legQuotes(exitTS(10), 2.4, 0.2)...)
	window = append(window, legQuotes(exitTS(15), 2.5, 0.2)[:2]...)
	window = append(window, legQuotes(exitTS(20), 2.6, 0.2)[:3]...)

	out, err := m.Run(window, pos)
	require.NoError(t, err)

	assert.Equal(t, models.ExitHard, out.Reason)
	require.NotNil(t, out.ExitTimestamp)
	assert.Equal(t, exitTS(10), *out.ExitTimestamp)
	require.NotNil(t, out.ExitCost)
	assert.InDelta(t, 4.4, *out.ExitCost, 1e-9) // 2*2.4 - 2*0.2
	require.NotNil(t, out.PnL)
	assert.InDelta(t, -0.4, *out.PnL, 1e-9)
}

func TestMonitor_EmptyWindow(t *testing.T) {
	out, err := New(0.10, testLogger()).Run(nil, condorPosition())
	require.NoError(t, err)

	assert.Equal(t, models.ExitNoData, out.Reason)
	assert.Nil(t, out.ExitTimestamp)
	assert.Nil(t, out.ExitCost)
	assert.Nil(t, out.PnL)
	assert.Nil(t, out.PnLPct)
}

func TestMonitor_NoCompleteQuoteEver(t *testing.T) {
	pos := condorPosition()
	m := New(0.10, testLogger())

	// Every timestamp misses at least one leg.
	var window []models.Quote
	window = append(window, legQuotes(exitTS(5), 2.0, 0.2)[:3]...)
	window = append(window, legQuotes(exitTS(10), 2.0, 0.2)[1:]...)

	out, err := m.Run(window, pos)
	require.NoError(t, err)
	assert.Equal(t, models.ExitNoData, out.Reason)
	assert.Nil(t, out.ExitTimestamp)
	assert.Nil(t, out.PnL)
}

func TestMonitor_UnsortedWindowStillScansInTimeOrder(t *testing.T) {
	pos := condorPosition()
	m := New(0.10, testLogger())

	// Later TP-qualifying timestamp listed first; the earlier one must win.
	var window []models.Quote
	window = append(window, legQuotes(exitTS(20), 1.2, 0.2)...)
	window = append(window, legQuotes(exitTS(15), 1.9, 0.2)...)

	out, err := m.Run(window, pos)
	require.NoError(t, err)
	assert.Equal(t, models.ExitTakeProfit, out.Reason)
	assert.Equal(t, exitTS(15), *out.ExitTimestamp)
}

package quotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

func TestBreakerStore_PassThrough(t *testing.T) {
	mock := NewMockStore()
	mock.Dates = []string{"2024-03-15"}
	mock.Snapshots["2024-03-15"] = []models.Quote{{
		Timestamp: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Right:     models.RightCall, Strike: 5140, Delta: 0.18, Bid: 3.0, Ask: 3.2,
	}}

	store := NewBreakerStore(mock, testLogger())

	dates, err := store.TradeDates(context.Background(), "SPXW", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-15"}, dates)

	snapshot, err := store.EntrySnapshot(context.Background(), "SPXW", "2024-03-15", "10:00")
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)

	window, err := store.ExitWindow(context.Background(), "SPXW", "2024-03-15",
		[]float64{5140}, time.Now(), "13:00")
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestBreakerStore_PropagatesErrors(t *testing.T) {
	mock := NewMockStore()
	mock.TradeDatesErr = errors.New("database locked")

	store := NewBreakerStore(mock, testLogger())
	_, err := store.TradeDates(context.Background(), "SPXW", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")
}

func TestBreakerStore_OpensAfterRepeatedFailures(t *testing.T) {
	mock := NewMockStore()
	mock.SnapshotErr = errors.New("disk on fire")

	store := NewBreakerStoreWithSettings(mock, testLogger(), BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  5,
		FailureRatio: 0.6,
	})

	var err error
	for i := 0; i < 10; i++ {
		_, err = store.EntrySnapshot(context.Background(), "SPXW", "2024-03-15", "10:00")
		require.Error(t, err)
	}

	// The breaker has tripped: calls fail fast without hitting the store.
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	callsWhenOpen := mock.SnapshotCalls
	_, err = store.EntrySnapshot(context.Background(), "SPXW", "2024-03-15", "10:00")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsWhenOpen, mock.SnapshotCalls)
}

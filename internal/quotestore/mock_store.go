package quotestore

import (
	"context"
	"sync"
	"time"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// MockStore implements Interface for testing. Fixture data is keyed by
// trade date; errors can be injected per method.
type MockStore struct {
	mu sync.Mutex

	// Dates returned by TradeDates before weekday exclusion.
	Dates []string
	// Snapshots maps trade date -> entry snapshot quotes.
	Snapshots map[string][]models.Quote
	// Windows maps trade date -> exit window quotes.
	Windows map[string][]models.Quote

	TradeDatesErr error
	SnapshotErr   error
	// SnapshotErrDates injects an error only for specific dates.
	SnapshotErrDates map[string]error
	WindowErr        error

	TradeDatesCalls int
	SnapshotCalls   int
	WindowCalls     int
}

// Ensure MockStore implements Interface at compile time.
var _ Interface = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		Snapshots:        make(map[string][]models.Quote),
		Windows:          make(map[string][]models.Quote),
		SnapshotErrDates: make(map[string]error),
	}
}

// TradeDates returns the fixture dates with the weekday exclusion applied.
func (m *MockStore) TradeDates(_ context.Context, _ string, excluded []time.Weekday) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TradeDatesCalls++
	if m.TradeDatesErr != nil {
		return nil, m.TradeDatesErr
	}

	skip := make(map[time.Weekday]bool, len(excluded))
	for _, wd := range excluded {
		skip[wd] = true
	}
	var out []string
	for _, d := range m.Dates {
		t, err := time.Parse(models.TradeDateLayout, d)
		if err != nil {
			return nil, err
		}
		if !skip[t.Weekday()] {
			out = append(out, d)
		}
	}
	return out, nil
}

// EntrySnapshot returns the fixture snapshot for the date.
func (m *MockStore) EntrySnapshot(_ context.Context, _, tradeDate, _ string) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotCalls++
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	if err, ok := m.SnapshotErrDates[tradeDate]; ok {
		return nil, err
	}
	return m.Snapshots[tradeDate], nil
}

// ExitWindow returns the fixture window for the date, filtered to the
// requested strikes and to timestamps strictly after afterTS.
func (m *MockStore) ExitWindow(_ context.Context, _, tradeDate string, strikes []float64,
	afterTS time.Time, _ string) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WindowCalls++
	if m.WindowErr != nil {
		return nil, m.WindowErr
	}

	want := make(map[float64]bool, len(strikes))
	for _, s := range strikes {
		want[s] = true
	}
	var out []models.Quote
	for _, q := range m.Windows[tradeDate] {
		if want[q.Strike] && q.Timestamp.After(afterTS) {
			out = append(out, q)
		}
	}
	return out, nil
}

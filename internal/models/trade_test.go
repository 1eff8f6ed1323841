package models

import "testing"

func TestDayOfWeek(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "Monday"},
		{"2024-01-02", "Tuesday"},
		{"2024-01-03", "Wednesday"},
		{"2024-01-04", "Thursday"},
		{"2024-01-05", "Friday"},
		{"2024-02-29", "Thursday"}, // leap day
	}
	for _, tt := range tests {
		got, err := DayOfWeek(tt.date)
		if err != nil {
			t.Errorf("DayOfWeek(%s) returned error: %v", tt.date, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DayOfWeek(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestDayOfWeek_InvalidDate(t *testing.T) {
	for _, date := range []string{"", "01/02/2024", "2024-13-01", "not-a-date"} {
		if _, err := DayOfWeek(date); err == nil {
			t.Errorf("DayOfWeek(%q) should fail", date)
		}
	}
}

func TestTradeRecord_Win(t *testing.T) {
	pos := 1.25
	neg := -0.40
	zero := 0.0

	tests := []struct {
		name string
		pnl  *float64
		want bool
	}{
		{"positive pnl", &pos, true},
		{"negative pnl", &neg, false},
		{"zero pnl", &zero, false},
		{"no data", nil, false},
	}
	for _, tt := range tests {
		rec := TradeRecord{Outcome: ExitOutcome{PnL: tt.pnl}}
		if rec.Win() != tt.want {
			t.Errorf("%s: Win() = %v, want %v", tt.name, rec.Win(), tt.want)
		}
	}
}

// Package strategy selects and prices iron-condor legs from quote snapshots.
package strategy

import (
	"errors"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// DefaultDeltaCeiling is the short-leg delta risk limit.
const DefaultDeltaCeiling = 0.20

// Config holds the leg-selection parameters for one simulation. Immutable;
// pass a fresh value per call so sweeps over multiple configurations can
// run in parallel.
type Config struct {
	DeltaCeiling float64
	WingWidth    float64
}

// Selection failures. These skip the trade date; they are never fatal.
var (
	// ErrNoCallsOrPuts means the snapshot was missing one whole side
	ErrNoCallsOrPuts = errors.New("snapshot missing calls or puts")
	// ErrNoQualifyingCall means no call had delta below the ceiling
	ErrNoQualifyingCall = errors.New("no call below the delta ceiling")
	// ErrNoQualifyingPut means no put had delta above the negative ceiling
	ErrNoQualifyingPut = errors.New("no put above the negative delta ceiling")
)

// SelectLegs picks the four condor legs from a single timestamp's snapshot.
//
// Short legs maximize premium while respecting the delta risk limit: the
// sell call is the call with the greatest delta still below the ceiling,
// the sell put its mirror. Wings sit wing-width beyond the short strikes,
// falling back to the outermost available strike when the chain runs out
// (a best-effort wing, possibly narrower than requested).
//
// Ties on the extremal delta are broken by the lowest strike so selection
// never depends on store row ordering.
func SelectLegs(snapshot []models.Quote, cfg Config) (*models.Position, error) {
	var calls, puts []models.Quote
	for _, q := range snapshot {
		switch q.Right {
		case models.RightCall:
			calls = append(calls, q)
		case models.RightPut:
			puts = append(puts, q)
		}
	}
	if len(calls) == 0 || len(puts) == 0 {
		return nil, ErrNoCallsOrPuts
	}

	sellCall, ok := pickSellCall(calls, cfg.DeltaCeiling)
	if !ok {
		return nil, ErrNoQualifyingCall
	}
	sellPut, ok := pickSellPut(puts, cfg.DeltaCeiling)
	if !ok {
		return nil, ErrNoQualifyingPut
	}

	buyCall := pickWingAbove(calls, sellCall.Strike+cfg.WingWidth)
	buyPut := pickWingBelow(puts, sellPut.Strike-cfg.WingWidth)

	pos := &models.Position{
		SellCall: models.Leg{
			Role: models.RoleSellCall, Right: models.RightCall,
			Strike: sellCall.Strike, EntryMid: sellCall.Mid(), Delta: sellCall.Delta,
		},
		SellPut: models.Leg{
			Role: models.RoleSellPut, Right: models.RightPut,
			Strike: sellPut.Strike, EntryMid: sellPut.Mid(), Delta: sellPut.Delta,
		},
		BuyCall: models.Leg{
			Role: models.RoleBuyCall, Right: models.RightCall,
			Strike: buyCall.Strike, EntryMid: buyCall.Mid(), Delta: buyCall.Delta,
		},
		BuyPut: models.Leg{
			Role: models.RoleBuyPut, Right: models.RightPut,
			Strike: buyPut.Strike, EntryMid: buyPut.Mid(), Delta: buyPut.Delta,
		},
		EntryTimestamp: sellCall.Timestamp,
		Underlying:     sellCall.Underlying,
	}
	pos.EntryCredit = EntryCredit(pos.SellCall.EntryMid, pos.SellPut.EntryMid,
		pos.BuyCall.EntryMid, pos.BuyPut.EntryMid)
	return pos, nil
}

// pickSellCall returns the call with the greatest delta still below the
// ceiling; ties break to the lowest strike.
func pickSellCall(calls []models.Quote, ceiling float64) (models.Quote, bool) {
	var best models.Quote
	found := false
	for _, q := range calls {
		if q.Delta >= ceiling {
			continue
		}
		if !found || q.Delta > best.Delta || (q.Delta == best.Delta && q.Strike < best.Strike) {
			best = q
			found = true
		}
	}
	return best, found
}

// pickSellPut returns the put with the most negative delta still above the
// negative ceiling; ties break to the lowest strike.
func pickSellPut(puts []models.Quote, ceiling float64) (models.Quote, bool) {
	var best models.Quote
	found := false
	for _, q := range puts {
		if q.Delta <= -ceiling {
			continue
		}
		if !found || q.Delta < best.Delta || (q.Delta == best.Delta && q.Strike < best.Strike) {
			best = q
			found = true
		}
	}
	return best, found
}

// pickWingAbove returns the quote with the smallest strike >= target, or
// the highest available strike when no quote reaches the target.
func pickWingAbove(quotes []models.Quote, target float64) models.Quote {
	var best, highest models.Quote
	found := false
	for i, q := range quotes {
		if i == 0 || q.Strike > highest.Strike {
			highest = q
		}
		if q.Strike < target {
			continue
		}
		if !found || q.Strike < best.Strike {
			best = q
			found = true
		}
	}
	if !found {
		return highest
	}
	return best
}

// pickWingBelow returns the quote with the largest strike <= target, or
// the lowest available strike when no quote reaches the target.
func pickWingBelow(quotes []models.Quote, target float64) models.Quote {
	var best, lowest models.Quote
	found := false
	for i, q := range quotes {
		if i == 0 || q.Strike < lowest.Strike {
			lowest = q
		}
		if q.Strike > target {
			continue
		}
		if !found || q.Strike > best.Strike {
			best = q
			found = true
		}
	}
	if !found {
		return lowest
	}
	return best
}

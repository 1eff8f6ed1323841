package strategy

import (
	"math"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/models"
)

// strikeEpsilon tolerates float drift when matching legs by strike.
const strikeEpsilon = 1e-4

// Mid returns the bid/ask midpoint.
func Mid(bid, ask float64) float64 {
	return (bid + ask) / 2
}

// EntryCredit returns the net credit collected when the condor is opened:
// premium received on the short legs minus premium paid for the wings.
func EntryCredit(sellCallMid, sellPutMid, buyCallMid, buyPutMid float64) float64 {
	return (sellCallMid + sellPutMid) - (buyCallMid + buyPutMid)
}

// ExitCost prices the reversal of the position at one timestamp's quote
// set: buy back the short legs, sell off the long legs. Legs are matched
// by (strike, right). ok is false when fewer than all four legs are
// quoted, in which case pricing at this timestamp is undefined.
func ExitCost(quotes []models.Quote, pos *models.Position) (float64, bool) {
	var buyCloseCall, buyClosePut, sellCloseCall, sellClosePut float64
	var haveSC, haveSP, haveBC, haveBP bool

	for _, q := range quotes {
		switch {
		case matchLeg(q, pos.SellCall):
			buyCloseCall = q.Mid()
			haveSC = true
		case matchLeg(q, pos.SellPut):
			buyClosePut = q.Mid()
			haveSP = true
		case matchLeg(q, pos.BuyCall):
			sellCloseCall = q.Mid()
			haveBC = true
		case matchLeg(q, pos.BuyPut):
			sellClosePut = q.Mid()
			haveBP = true
		}
	}
	if !haveSC || !haveSP || !haveBC || !haveBP {
		return 0, false
	}
	return (buyCloseCall + buyClosePut) - (sellCloseCall + sellClosePut), true
}

func matchLeg(q models.Quote, leg models.Leg) bool {
	return q.Right == leg.Right && math.Abs(q.Strike-leg.Strike) <= strikeEpsilon
}

// PnL is the realized profit when the position is closed at exitCost.
func PnL(entryCredit, exitCost float64) float64 {
	return entryCredit - exitCost
}

// PnLPct expresses pnl as a fraction of the entry credit. The orchestrator
// rejects non-positive credits before any position exists, but the guard
// stays so a zero credit can never divide.
func PnLPct(pnl, entryCredit float64) float64 {
	if entryCredit <= 0 {
		return 0
	}
	return pnl / entryCredit
}

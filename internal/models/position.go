package models

import (
	"fmt"
	"time"
)

// LegRole tags each of the four condor legs with its function in the spread.
type LegRole string

const (
	// RoleSellCall is the short call, the upper short strike
	RoleSellCall LegRole = "SELL_CALL"
	// RoleSellPut is the short put, the lower short strike
	RoleSellPut LegRole = "SELL_PUT"
	// RoleBuyCall is the long call wing above the short call
	RoleBuyCall LegRole = "BUY_CALL"
	// RoleBuyPut is the long put wing below the short put
	RoleBuyPut LegRole = "BUY_PUT"
)

// Valid returns true if the LegRole is one of the defined constants
func (r LegRole) Valid() bool {
	switch r {
	case RoleSellCall, RoleSellPut, RoleBuyCall, RoleBuyPut:
		return true
	default:
		return false
	}
}

// Right returns the contract side a leg with this role must reference.
func (r LegRole) Right() Right {
	switch r {
	case RoleSellCall, RoleBuyCall:
		return RightCall
	default:
		return RightPut
	}
}

// Leg is a role-tagged reference to a strike/right pair. The strike and
// right are fixed at entry for the life of the trade; only market prices
// for the contract change as new quotes arrive.
type Leg struct {
	Role     LegRole `json:"role"`
	Right    Right   `json:"right"`
	Strike   float64 `json:"strike"`
	EntryMid float64 `json:"entry_mid"`
	Delta    float64 `json:"delta"`
}

// Position is the four condor legs plus the entry pricing captured once at
// selection time. Positions are read-only after construction.
type Position struct {
	SellCall       Leg       `json:"sell_call"`
	SellPut        Leg       `json:"sell_put"`
	BuyCall        Leg       `json:"buy_call"`
	BuyPut         Leg       `json:"buy_put"`
	EntryCredit    float64   `json:"entry_credit"`
	EntryTimestamp time.Time `json:"entry_timestamp"`
	Underlying     float64   `json:"underlying"`
}

// Legs returns the four legs in canonical order.
func (p *Position) Legs() [4]Leg {
	return [4]Leg{p.SellCall, p.SellPut, p.BuyCall, p.BuyPut}
}

// Strikes returns the strikes of the four legs in canonical order, the set
// the exit-monitoring quote window is restricted to.
func (p *Position) Strikes() []float64 {
	return []float64{p.SellCall.Strike, p.SellPut.Strike, p.BuyCall.Strike, p.BuyPut.Strike}
}

// Validate ensures the position satisfies the structural invariant: exactly
// four legs, one per role, covering both rights and both net directions.
func (p *Position) Validate() error {
	legs := p.Legs()
	want := [4]LegRole{RoleSellCall, RoleSellPut, RoleBuyCall, RoleBuyPut}
	for i, leg := range legs {
		if leg.Role != want[i] {
			return fmt.Errorf("leg %d: role must be %s (got %s)", i, want[i], leg.Role)
		}
		if leg.Right != leg.Role.Right() {
			return fmt.Errorf("leg %s: right must be %s (got %s)", leg.Role, leg.Role.Right(), leg.Right)
		}
		if leg.Strike <= 0 {
			return fmt.Errorf("leg %s: strike must be positive (got %.4f)", leg.Role, leg.Strike)
		}
	}
	if p.EntryTimestamp.IsZero() {
		return fmt.Errorf("position entry timestamp must be set")
	}
	return nil
}

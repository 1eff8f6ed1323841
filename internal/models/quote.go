// Package models provides data structures and state management for condor trades.
package models

import (
	"fmt"
	"time"
)

// Right identifies the side of an option contract.
type Right string

const (
	// RightCall represents a call option contract
	RightCall Right = "CALL"
	// RightPut represents a put option contract
	RightPut Right = "PUT"
)

// Valid returns true if the Right is one of the defined constants
func (r Right) Valid() bool {
	switch r {
	case RightCall, RightPut:
		return true
	default:
		return false
	}
}

// Quote is one option contract's market state at a single timestamp.
// Quotes are immutable once produced by the quote store.
type Quote struct {
	Timestamp  time.Time `json:"timestamp"`
	Right      Right     `json:"right"`
	Strike     float64   `json:"strike"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Delta      float64   `json:"delta"`
	Underlying float64   `json:"underlying"`
}

// Mid returns the bid/ask midpoint, the fair-value proxy used for
// all entry and exit pricing.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// Validate checks the quote at the store boundary so downstream code can
// rely on the field shapes without re-checking.
func (q Quote) Validate() error {
	if !q.Right.Valid() {
		return fmt.Errorf("quote right must be CALL or PUT (got %q)", q.Right)
	}
	if q.Strike <= 0 {
		return fmt.Errorf("quote strike must be positive (got %.4f)", q.Strike)
	}
	if q.Bid < 0 || q.Ask < 0 {
		return fmt.Errorf("quote bid/ask must be non-negative (got %.4f/%.4f)", q.Bid, q.Ask)
	}
	if q.Timestamp.IsZero() {
		return fmt.Errorf("quote timestamp must be set")
	}
	switch q.Right {
	case RightCall:
		if q.Delta <= 0 || q.Delta >= 1 {
			return fmt.Errorf("call delta must be in (0,1) (got %.4f)", q.Delta)
		}
	case RightPut:
		if q.Delta >= 0 || q.Delta <= -1 {
			return fmt.Errorf("put delta must be in (-1,0) (got %.4f)", q.Delta)
		}
	}
	return nil
}

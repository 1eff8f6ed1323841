package models

import "fmt"

// ExitState represents the current state of the exit scan for one position
type ExitState string

const (
	// StateScanningForTP is the initial state: forward scan for a profit-target hit
	StateScanningForTP ExitState = "scanning_for_tp"
	// StateTPHit is terminal: the profit target was reached
	StateTPHit ExitState = "tp_hit"
	// StateFallbackScan is the backward scan for the last complete quote
	StateFallbackScan ExitState = "fallback_scan"
	// StateHardExit is terminal: closed at the latest reliable mark
	StateHardExit ExitState = "hard_exit"
	// StateNoCompleteQuote is terminal: no timestamp ever had full leg coverage
	StateNoCompleteQuote ExitState = "no_complete_quote"
)

// ExitTransition defines a valid exit-scan state transition
type ExitTransition struct {
	From        ExitState
	To          ExitState
	Condition   string
	Description string
}

// ValidExitTransitions enumerates every legal exit-scan transition
var ValidExitTransitions = []ExitTransition{
	{StateScanningForTP, StateTPHit, "profit_target_hit", "pnl_pct reached the profit target"},
	{StateScanningForTP, StateFallbackScan, "scan_exhausted", "forward scan ended without a TP hit"},
	{StateScanningForTP, StateNoCompleteQuote, "window_empty", "no quotes in the exit window"},
	{StateFallbackScan, StateHardExit, "complete_quote_found", "latest complete quote located"},
	{StateFallbackScan, StateNoCompleteQuote, "no_complete_quote", "no timestamp had full leg coverage"},
}

// ExitStateMachine walks a position through the exit scan. The forward pass
// looks for the first profit-target hit; the backward pass falls back to the
// last timestamp with complete four-leg coverage. Missing quotes are never
// interpolated.
type ExitStateMachine struct {
	current  ExitState
	previous ExitState
}

// NewExitStateMachine creates a machine in the initial scanning state
func NewExitStateMachine() *ExitStateMachine {
	return &ExitStateMachine{
		current:  StateScanningForTP,
		previous: StateScanningForTP,
	}
}

// Current returns the current state
func (sm *ExitStateMachine) Current() ExitState {
	return sm.current
}

// Previous returns the previous state
func (sm *ExitStateMachine) Previous() ExitState {
	return sm.previous
}

// Transition moves to a new state if the transition is legal
func (sm *ExitStateMachine) Transition(to ExitState, condition string) error {
	for _, t := range ValidExitTransitions {
		if t.From == sm.current && t.To == to && t.Condition == condition {
			sm.previous = sm.current
			sm.current = to
			return nil
		}
	}
	return fmt.Errorf("invalid exit transition from %s to %s with condition %q",
		sm.current, to, condition)
}

// Terminal returns true once the scan has reached an outcome
func (sm *ExitStateMachine) Terminal() bool {
	switch sm.current {
	case StateTPHit, StateHardExit, StateNoCompleteQuote:
		return true
	default:
		return false
	}
}

// Reason maps a terminal state to the surfaced exit reason. ok is false
// while the scan is still in progress.
func (sm *ExitStateMachine) Reason() (ExitReason, bool) {
	switch sm.current {
	case StateTPHit:
		return ExitTakeProfit, true
	case StateHardExit:
		return ExitHard, true
	case StateNoCompleteQuote:
		return ExitNoData, true
	default:
		return "", false
	}
}

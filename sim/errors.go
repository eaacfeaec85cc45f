package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedBid is returned when a strategy produces NaN or Inf.
	ErrMalformedBid = errors.New("malformed bid")
	// ErrMalformedOutcome is returned when an auction rule produces a
	// negative, NaN or Inf payment.
	ErrMalformedOutcome = errors.New("malformed auction outcome")
	// ErrPluginPanic wraps a panic raised inside a strategy or auction rule.
	ErrPluginPanic = errors.New("plugin panicked")
)

// Failure roles reported by MatchError.
const (
	RoleSetup      = "setup"
	RoleValuations = "valuations"
	RoleStrategy   = "strategy"
	RoleAuction    = "auction"
)

// MatchError reports a fatal failure inside one match with enough context to
// locate it: which match, which round, and which collaborator failed.
type MatchError struct {
	Matchup Matchup
	Round   int // -1 when the failure happened before the first round
	Role    string
	Seat    int // 1 or 2 for strategy failures, 0 otherwise
	Err     error
}

func (e *MatchError) Error() string {
	where := fmt.Sprintf("match %d (auction=%q, %q vs %q)", e.Matchup.Index, e.Matchup.Auction, e.Matchup.Player1, e.Matchup.Player2)
	if e.Round >= 0 {
		where += fmt.Sprintf(" round %d", e.Round)
	}
	switch e.Role {
	case RoleStrategy:
		return fmt.Sprintf("%s: strategy %q (seat %d): %v", where, e.Matchup.Player(e.Seat), e.Seat, e.Err)
	case RoleAuction:
		return fmt.Sprintf("%s: auction %q: %v", where, e.Matchup.Auction, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", where, e.Role, e.Err)
	}
}

func (e *MatchError) Unwrap() error { return e.Err }

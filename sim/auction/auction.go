// Package auction provides the built-in two-bidder auction rules.
// All of them are registered into sim.BuiltinAuctions by register.go.
package auction

import (
	"github.com/inference-sim/auction-sim/sim"
)

// RandSource provides random numbers for tie-breaking.
// *rand.Rand satisfies it; tests inject deterministic sources.
type RandSource interface {
	// Intn returns a random integer in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// noWinner is returned by highestBidder when nobody gets the allocation.
const noWinner = -1

// highestBidder returns 0 or 1 for the bidder with the higher bid, breaking
// exact ties with rs. When both bids are zero nobody wins.
func highestBidder(bid1, bid2 float64, rs RandSource) int {
	switch {
	case bid1 > bid2:
		return 0
	case bid2 > bid1:
		return 1
	case bid1 == 0:
		return noWinner
	default:
		return rs.Intn(2)
	}
}

// FirstPrice awards the allocation to the higher bid; the winner pays its
// own bid and the loser pays nothing.
type FirstPrice struct {
	rand RandSource
}

// NewFirstPrice creates a first-price rule breaking ties with rs.
func NewFirstPrice(rs RandSource) *FirstPrice {
	return &FirstPrice{rand: rs}
}

// Clear implements sim.AuctionRule.
func (a *FirstPrice) Clear(bid1, bid2 float64) (sim.Outcome, sim.Outcome, error) {
	bids := [2]float64{bid1, bid2}
	var out [2]sim.Outcome
	if w := highestBidder(bid1, bid2, a.rand); w != noWinner {
		out[w] = sim.Outcome{Won: true, Payment: bids[w]}
	}
	return out[0], out[1], nil
}

// SecondPrice awards the allocation to the higher bid; the winner pays the
// losing bid.
type SecondPrice struct {
	rand RandSource
}

// NewSecondPrice creates a second-price rule breaking ties with rs.
func NewSecondPrice(rs RandSource) *SecondPrice {
	return &SecondPrice{rand: rs}
}

// Clear implements sim.AuctionRule.
func (a *SecondPrice) Clear(bid1, bid2 float64) (sim.Outcome, sim.Outcome, error) {
	bids := [2]float64{bid1, bid2}
	var out [2]sim.Outcome
	if w := highestBidder(bid1, bid2, a.rand); w != noWinner {
		out[w] = sim.Outcome{Won: true, Payment: bids[1-w]}
	}
	return out[0], out[1], nil
}

// AllPay awards the allocation to the higher bid; both bidders pay their
// own bids whether they win or not.
type AllPay struct {
	rand RandSource
}

// NewAllPay creates an all-pay rule breaking ties with rs.
func NewAllPay(rs RandSource) *AllPay {
	return &AllPay{rand: rs}
}

// Clear implements sim.AuctionRule.
func (a *AllPay) Clear(bid1, bid2 float64) (sim.Outcome, sim.Outcome, error) {
	out := [2]sim.Outcome{{Payment: bid1}, {Payment: bid2}}
	if w := highestBidder(bid1, bid2, a.rand); w != noWinner {
		out[w].Won = true
	}
	return out[0], out[1], nil
}

package auction

import (
	"github.com/shopspring/decimal"

	"github.com/inference-sim/auction-sim/sim"
)

const monetaryPrecision int32 = 4 // bids are compared at 0.0001 precision

// DefaultReserve is the reserve price of the registered reserve-first-price rule.
const DefaultReserve = 0.1

// BidMeetsReserve returns true if bid meets or exceeds reserve.
// Uses decimal arithmetic with monetaryPrecision to avoid floating-point errors.
func BidMeetsReserve(bid, reserve float64) bool {
	bidDecimal := decimal.NewFromFloat(bid).Round(monetaryPrecision)
	reserveDecimal := decimal.NewFromFloat(reserve).Round(monetaryPrecision)

	return bidDecimal.GreaterThanOrEqual(reserveDecimal)
}

// ReserveFirstPrice is a first-price rule in which bids below the reserve are
// ineligible. If neither bid meets the reserve nobody wins. A bid that meets
// the reserve only after rounding to monetaryPrecision pays the reserve, so a
// winner never pays less than the reserve.
type ReserveFirstPrice struct {
	Reserve float64
	rand    RandSource
}

// NewReserveFirstPrice creates the rule with the given reserve.
func NewReserveFirstPrice(reserve float64, rs RandSource) *ReserveFirstPrice {
	return &ReserveFirstPrice{Reserve: reserve, rand: rs}
}

// Clear implements sim.AuctionRule.
func (a *ReserveFirstPrice) Clear(bid1, bid2 float64) (sim.Outcome, sim.Outcome, error) {
	bids := [2]float64{bid1, bid2}
	var eligible [2]float64
	for i, b := range bids {
		if BidMeetsReserve(b, a.Reserve) {
			eligible[i] = b
		}
	}
	var out [2]sim.Outcome
	if w := highestBidder(eligible[0], eligible[1], a.rand); w != noWinner {
		out[w] = sim.Outcome{Won: true, Payment: max(bids[w], a.Reserve)}
	}
	return out[0], out[1], nil
}

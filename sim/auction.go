package sim

import "math/rand"

// Outcome is one bidder's side of a cleared auction.
type Outcome struct {
	Won     bool
	Payment float64
}

// AuctionRule clears one sealed-bid auction between two bidders.
// The two outcomes are independent: the caller never assumes that exactly
// one bidder wins. Payments must be finite and non-negative.
type AuctionRule interface {
	Clear(bid1, bid2 float64) (Outcome, Outcome, error)
}

// AuctionRuleFunc adapts a plain function to the AuctionRule interface.
type AuctionRuleFunc func(bid1, bid2 float64) (Outcome, Outcome, error)

// Clear calls f(bid1, bid2).
func (f AuctionRuleFunc) Clear(bid1, bid2 float64) (Outcome, Outcome, error) {
	return f(bid1, bid2)
}

// AuctionFactory builds a fresh AuctionRule for one match. rng is the
// match's auction stream (tie-breaking and other randomized clearing).
type AuctionFactory func(rng *rand.Rand) (AuctionRule, error)

// StaticAuction returns a factory that hands out the same deterministic rule
// to every match.
func StaticAuction(rule AuctionRule) AuctionFactory {
	return func(_ *rand.Rand) (AuctionRule, error) { return rule, nil }
}
